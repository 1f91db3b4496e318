// Package main rebuilds projections from the event journal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stewardhq/steward/internal/platform/config"
	"github.com/stewardhq/steward/internal/projection"
	rostersvc "github.com/stewardhq/steward/internal/roster/service"
	"github.com/stewardhq/steward/internal/storage/sqlite"
)

type replayConfig struct {
	StoragePath string        `env:"STEWARD_STORAGE_PATH" envDefault:"steward.db"`
	Timeout     time.Duration `env:"STEWARD_REPLAY_TIMEOUT" envDefault:"5m"`
}

func main() {
	var cfg replayConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("Error: %v", err)
	}

	afterSeq := flag.Uint64("after", 0, "replay events with sequence greater than this")
	untilSeq := flag.Uint64("until", 0, "stop after this sequence (0 replays to the end)")
	contextID := flag.String("context", "", "replay a single context only")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	store, err := sqlite.Open(cfg.StoragePath)
	if err != nil {
		config.Exitf("Error: open storage: %v", err)
	}
	defer store.Close()

	funnel := projection.NewFunnel(
		rostersvc.NewApplier(store),
		rostersvc.NewStatsApplier(store, store),
		store,
	)

	var lastSeq uint64
	if *contextID != "" {
		lastSeq, err = projection.ReplayContext(ctx, store, funnel, *contextID)
	} else {
		lastSeq, err = projection.Replay(ctx, store, funnel, projection.ReplayOptions{
			AfterSeq: *afterSeq,
			UntilSeq: *untilSeq,
		})
	}
	if err != nil {
		config.Exitf("Error: replay stopped at seq %d: %v", lastSeq, err)
	}
	fmt.Printf("replayed through seq %d\n", lastSeq)
}
