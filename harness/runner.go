// runner.go
//
// Workload runner. Writers push self-checking payloads through the
// configured cache variant while readers hammer a skewed key trace;
// throughput, hit ratio and any integrity violations are collected into a
// Result. Corrupt reads are counted, never masked — a nonzero count is a
// seqlock or reclamation bug and the run reports failure.

package harness

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"flatlru/arena"
	"flatlru/cache"
	"flatlru/constants"
	"flatlru/utils"
)

// Result is the outcome of one harness run.
type Result struct {
	Variant      string  `json:"variant"`
	StartedAt    string  `json:"started_at"`
	Ops          int64   `json:"ops"`
	Reads        int64   `json:"reads"`
	Writes       int64   `json:"writes"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Corrupt      int64   `json:"corrupt"`
	WrongKey     int64   `json:"wrong_key"`
	DurationSec  float64 `json:"duration_sec"`
	ReadsPerSec  float64 `json:"reads_per_sec"`
	WritesPerSec float64 `json:"writes_per_sec"`
	ArenaBump    uint64  `json:"arena_bump_bytes"`
	ArenaReused  uint64  `json:"arena_reused"`
	ArenaMissed  uint64  `json:"arena_missed"`
}

// xorshift is the per-worker trace generator: deterministic, allocation
// free, and independent across workers by seed.
type xorshift struct{ s uint64 }

func (x *xorshift) next() uint64 {
	x.s ^= x.s << 13
	x.s ^= x.s >> 7
	x.s ^= x.s << 17
	return x.s
}

// pickKey draws from the hot set with probability HotBias, else uniformly
// from the whole keyspace.
func pickKey(rng *xorshift, cfg *Config) uint64 {
	hotKeys := uint64(float64(cfg.KeySpace) * cfg.HotFraction)
	if hotKeys < 1 {
		hotKeys = 1
	}
	r := rng.next()
	if float64(r%1000)/1000.0 < cfg.HotBias {
		return 1 + r%hotKeys
	}
	return 1 + r%cfg.KeySpace
}

// buildCache constructs the variant under test.
func buildCache(cfg Config, a *arena.Arena) cache.Interface {
	switch cfg.Variant {
	case "flatlru":
		return cache.New(cache.Config{
			Capacity:   cfg.Capacity,
			MaxThreads: cfg.MaxThreads,
			Arena:      a,
		})
	case "sharded":
		return cache.NewSharded(cache.ShardedConfig{
			TotalCapacity: cfg.Capacity,
			Shards:        cfg.Shards,
			MaxThreads:    cfg.MaxThreads,
			Arena:         a,
		})
	case "mutexlru":
		return cache.NewMutex(cfg.Capacity, a)
	default:
		panic("harness: unvalidated variant " + cfg.Variant)
	}
}

// Run executes one configured workload and returns its Result. The error is
// non-nil when the run observed integrity violations.
func Run(cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	pages := cfg.ArenaPages
	if pages == 0 {
		pages = constants.DefaultArenaPages
	}
	a := arena.New(constants.BlockSize, pages)
	c := buildCache(cfg, a)

	var (
		reads, writes    atomic.Int64
		hits, misses     atomic.Int64
		corrupt, wrongKy atomic.Int64
		writersDone      atomic.Bool
	)

	start := time.Now()
	var writersWG, readersWG sync.WaitGroup

	// Writers split the op budget.
	perWriter := cfg.Ops / int64(cfg.Writers)
	for w := 0; w < cfg.Writers; w++ {
		writersWG.Add(1)
		go func(seed uint64) {
			defer writersWG.Done()
			rng := xorshift{s: utils.Mix64(seed)}
			for i := int64(0); i < perWriter; i++ {
				key := pickKey(&rng, &cfg)
				c.Put(key, EncodePayload(key, uint64(i), cfg.ValueSize))
				writes.Add(1)
			}
		}(uint64(w) + 1)
	}

	// Readers run until the writers finish.
	for r := 0; r < cfg.Readers; r++ {
		readersWG.Add(1)
		go func(seed uint64) {
			defer readersWG.Done()
			rng := xorshift{s: utils.Mix64(seed)}
			for !writersDone.Load() {
				key := pickKey(&rng, &cfg)
				h, ok := c.Get(key)
				reads.Add(1)
				if !ok {
					misses.Add(1)
					continue
				}
				hits.Add(1)
				got, vok := VerifyPayload(h.Bytes())
				switch {
				case !vok:
					corrupt.Add(1)
				case got != key:
					wrongKy.Add(1)
				}
				h.Release(a)
			}
		}(uint64(r) + 101)
	}

	writersWG.Wait()
	writersDone.Store(true)
	readersWG.Wait()

	elapsed := time.Since(start).Seconds()
	st := a.Stats()
	c.Close()
	a.Close()

	res := Result{
		Variant:      c.Name(),
		StartedAt:    start.UTC().Format(time.RFC3339),
		Ops:          cfg.Ops,
		Reads:        reads.Load(),
		Writes:       writes.Load(),
		Hits:         hits.Load(),
		Misses:       misses.Load(),
		Corrupt:      corrupt.Load(),
		WrongKey:     wrongKy.Load(),
		DurationSec:  elapsed,
		ReadsPerSec:  float64(reads.Load()) / elapsed,
		WritesPerSec: float64(writes.Load()) / elapsed,
		ArenaBump:    st.BumpBytes,
		ArenaReused:  st.Reused,
		ArenaMissed:  st.Missed,
	}

	if res.Corrupt > 0 || res.WrongKey > 0 {
		return res, fmt.Errorf("integrity violation: %d corrupt, %d wrong-key reads",
			res.Corrupt, res.WrongKey)
	}
	return res, nil
}
