// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: main.go — Cache workload harness entry point
//
// Purpose:
//   - Drives one harness run against the configured cache variant and
//     reports throughput, hit ratio and integrity counters.
//   - Flags override the (optional) JSONC config file field-by-field.
// ─────────────────────────────────────────────────────────────────────────────

package main

import (
	"os"

	flag "github.com/spf13/pflag"

	"flatlru/debug"
	"flatlru/harness"
	"flatlru/utils"
)

func main() {
	var (
		configPath = flag.String("config", "", "JSONC config file (optional)")
		variant    = flag.String("variant", "", "cache variant: flatlru | sharded | mutexlru")
		ops        = flag.Int64("ops", 0, "total writer operations")
		readers    = flag.Int("readers", -1, "concurrent reader goroutines")
		writers    = flag.Int("writers", 0, "concurrent writer goroutines")
		capacity   = flag.Int("capacity", 0, "logical cache capacity (power of two)")
	)
	flag.Parse()

	cfg := harness.DefaultConfig()
	if *configPath != "" {
		loaded, err := harness.Load(*configPath)
		if err != nil {
			debug.DropError("harness: config rejected", err)
			os.Exit(2)
		}
		cfg = loaded
	}
	if *variant != "" {
		cfg.Variant = *variant
	}
	if *ops > 0 {
		cfg.Ops = *ops
	}
	if *readers >= 0 {
		cfg.Readers = *readers
	}
	if *writers > 0 {
		cfg.Writers = *writers
	}
	if *capacity > 0 {
		cfg.Capacity = *capacity
	}

	res, runErr := harness.Run(cfg)

	debug.DropMessage("harness", "variant="+res.Variant+
		" reads="+utils.Itoa(int(res.Reads))+
		" writes="+utils.Itoa(int(res.Writes))+
		" hits="+utils.Itoa(int(res.Hits))+
		" misses="+utils.Itoa(int(res.Misses))+
		" corrupt="+utils.Itoa(int(res.Corrupt))+
		" reads/s="+utils.Itoa(int(res.ReadsPerSec))+
		" writes/s="+utils.Itoa(int(res.WritesPerSec)))

	if cfg.ResultsDB != "" {
		if err := harness.WriteSQLite(cfg.ResultsDB, res); err != nil {
			debug.DropError("harness: sqlite sink failed", err)
		}
	}
	if cfg.ResultsJSON != "" {
		if err := harness.WriteJSON(cfg.ResultsJSON, res); err != nil {
			debug.DropError("harness: json sink failed", err)
		}
	}

	if runErr != nil {
		debug.DropError("harness: run failed", runErr)
		os.Exit(1)
	}
}
