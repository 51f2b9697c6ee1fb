package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	persistlog "duelforge.gg/internal/persistence/log"
	"duelforge.gg/internal/sim/catalogs"
	"duelforge.gg/internal/sim/encounter"
	"duelforge.gg/internal/sim/tuning"
)

// replay rebuilds an encounter from its recorded manifest, re-runs every
// journaled tick, and verifies that each digest matches. Any divergence
// means the catalogs, tuning, or code no longer agree with what the
// journal was recorded against.
func main() {
	var (
		dataDir    = flag.String("data", "./data", "runtime data directory")
		encID      = flag.String("encounter", "", "encounter id to replay")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *encID == "" {
		fmt.Fprintln(os.Stderr, "missing -encounter")
		os.Exit(2)
	}

	manifest, err := encounter.ReadManifest(*dataDir, *encID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read manifest:", err)
		os.Exit(1)
	}
	entries, err := persistlog.ReadJournal(*dataDir, *encID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read journal:", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "empty journal for", *encID)
		os.Exit(1)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}

	cfg, err := manifest.Config()
	if err != nil {
		fmt.Fprintln(os.Stderr, "match config:", err)
		os.Exit(1)
	}
	enc, err := encounter.New(cats, tune, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "encounter:", err)
		os.Exit(1)
	}

	fmt.Printf("replaying %s seed=%d ticks=%d\n", manifest.EncounterID, manifest.Seed, len(entries))

	var checked int
	for _, entry := range entries {
		if *toTick != 0 && entry.Tick > *toTick {
			break
		}
		res, err := enc.RunTick()
		if err != nil {
			fmt.Fprintf(os.Stderr, "tick %d: %v\n", entry.Tick, err)
			os.Exit(1)
		}
		if res.Tick != entry.Tick {
			fmt.Fprintf(os.Stderr, "tick mismatch: ran=%d journal=%d\n", res.Tick, entry.Tick)
			os.Exit(1)
		}
		if entry.Tick < *fromTick {
			continue
		}
		checked++
		if res.Digest != entry.Digest {
			fmt.Fprintf(os.Stderr, "digest mismatch at tick %d:\n  got  %s\n  want %s\n", entry.Tick, res.Digest, entry.Digest)
			os.Exit(1)
		}
	}

	fmt.Printf("replay ok: checked=%d ticks\n", checked)
}
