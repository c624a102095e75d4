// config.go
//
// Harness configuration. Config files are JSONC (JSON with comments and
// trailing commas): standardized with hujson, then decoded with sonnet so
// the file format matches what humans actually keep in repos.

package harness

import (
	"fmt"
	"os"

	"github.com/sugawarayuuta/sonnet"
	"github.com/tailscale/hujson"
)

// Config describes one harness run.
type Config struct {
	Variant     string  `json:"variant"`      // flatlru | sharded | mutexlru
	Capacity    int     `json:"capacity"`     // logical entries, power of two
	Shards      int     `json:"shards"`       // sharded variant only
	MaxThreads  int     `json:"max_threads"`  // reader-slot bound, 0 = auto
	Readers     int     `json:"readers"`      // concurrent reader goroutines
	Writers     int     `json:"writers"`      // concurrent writer goroutines
	Ops         int64   `json:"ops"`          // total writer operations
	KeySpace    uint64  `json:"key_space"`    // distinct keys in the trace
	HotFraction float64 `json:"hot_fraction"` // share of keyspace that is hot
	HotBias     float64 `json:"hot_bias"`     // probability an op hits the hot set
	ValueSize   int     `json:"value_size"`   // payload bytes per value
	ArenaPages  int     `json:"arena_pages"`  // huge pages for the value arena, 0 = default
	ResultsDB   string  `json:"results_db"`   // sqlite sink path, "" = disabled
	ResultsJSON string  `json:"results_json"` // json sink path, "" = disabled
}

// DefaultConfig returns a config exercising the flat variant with a
// read-heavy mix on a modest keyspace.
func DefaultConfig() Config {
	return Config{
		Variant:     "flatlru",
		Capacity:    4096,
		Shards:      16,
		Readers:     4,
		Writers:     1,
		Ops:         200_000,
		KeySpace:    16_384,
		HotFraction: 0.1,
		HotBias:     0.9,
		ValueSize:   64,
	}
}

// Load reads, standardizes and decodes a JSONC config file, then validates
// it. Missing numeric fields inherit defaults.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	cfg := DefaultConfig()
	if err := sonnet.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the cache constructors would panic on,
// turning them into errors at the harness boundary.
func (c Config) Validate() error {
	switch c.Variant {
	case "flatlru", "sharded", "mutexlru":
	default:
		return fmt.Errorf("unknown variant %q", c.Variant)
	}
	if c.Capacity < 1 || c.Capacity&(c.Capacity-1) != 0 {
		return fmt.Errorf("capacity %d is not a power of two ≥ 1", c.Capacity)
	}
	if c.Variant == "sharded" {
		if c.Shards < 1 || c.Shards&(c.Shards-1) != 0 {
			return fmt.Errorf("shards %d is not a power of two ≥ 1", c.Shards)
		}
		if c.Capacity/c.Shards < 2 {
			return fmt.Errorf("capacity %d leaves fewer than 2 entries per shard", c.Capacity)
		}
	}
	if c.MaxThreads != 0 && (c.MaxThreads < 1 || c.MaxThreads&(c.MaxThreads-1) != 0) {
		return fmt.Errorf("max_threads %d is not a power of two", c.MaxThreads)
	}
	if c.Readers < 0 || c.Writers < 1 {
		return fmt.Errorf("need at least one writer and a non-negative reader count")
	}
	if c.Ops < 1 {
		return fmt.Errorf("ops must be ≥ 1")
	}
	if c.KeySpace < 1 {
		return fmt.Errorf("key_space must be ≥ 1")
	}
	if c.HotFraction <= 0 || c.HotFraction > 1 {
		return fmt.Errorf("hot_fraction %v outside (0, 1]", c.HotFraction)
	}
	if c.HotBias < 0 || c.HotBias > 1 {
		return fmt.Errorf("hot_bias %v outside [0, 1]", c.HotBias)
	}
	if c.ValueSize < MinPayloadSize {
		return fmt.Errorf("value_size must be ≥ %d", MinPayloadSize)
	}
	return nil
}
