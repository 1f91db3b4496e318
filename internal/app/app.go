// Package app wires the consistency core together for the service binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"log"

	"go.opentelemetry.io/otel"

	"github.com/stewardhq/steward/internal/bus"
	notifysvc "github.com/stewardhq/steward/internal/notify/service"
	"github.com/stewardhq/steward/internal/projection"
	rostersvc "github.com/stewardhq/steward/internal/roster/service"
	schedulesvc "github.com/stewardhq/steward/internal/schedule/service"
	skillsvc "github.com/stewardhq/steward/internal/skill/service"
	"github.com/stewardhq/steward/internal/storage"
	"github.com/stewardhq/steward/internal/storage/memory"
	"github.com/stewardhq/steward/internal/storage/sqlite"
)

// Config carries the environment configuration for the steward service.
type Config struct {
	// StorageDriver selects the storage adapter: "sqlite" or "memory".
	StorageDriver string `env:"STEWARD_STORAGE_DRIVER" envDefault:"sqlite"`
	// StoragePath is the sqlite database path.
	StoragePath string `env:"STEWARD_STORAGE_PATH" envDefault:"steward.db"`
}

// App owns the wired core: one store, one bus, and the services and
// subscribers attached to it.
type App struct {
	Store  storage.Store
	Bus    *bus.Bus
	Skills *skillsvc.Service
	Roster *rostersvc.Queries
	Saga   *schedulesvc.Saga
	Funnel *projection.Funnel

	detaches []func()
}

// New opens storage and wires every subscriber in dependency order: the
// journal recorder first so replays see every event, then the projection
// funnel, then the notification router.
func New(cfg Config) (*App, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	meter := otel.GetMeterProvider().Meter("steward")
	b := bus.New(bus.WithMeter(meter))

	rosterApplier := rostersvc.NewApplier(store)
	statsApplier := rostersvc.NewStatsApplier(store, store)
	funnel := projection.NewFunnel(rosterApplier, statsApplier, store)
	recorder := projection.NewRecorder(store)
	router := notifysvc.NewRouter(store, store)

	a := &App{
		Store:  store,
		Bus:    b,
		Skills: skillsvc.New(store, b),
		Roster: rostersvc.NewQueries(store),
		Saga:   schedulesvc.NewSaga(store, store, rosterApplier, b),
		Funnel: funnel,
	}
	a.detaches = append(a.detaches,
		recorder.Attach(b),
		funnel.Attach(b),
		router.Attach(b),
	)
	return a, nil
}

func openStore(cfg Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "", "sqlite":
		store, err := sqlite.Open(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		return store, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// Run blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	log.Printf("steward: core ready, %s storage", storageLabel(a.Store))
	<-ctx.Done()
	return nil
}

// Close detaches every subscriber and closes storage.
func (a *App) Close() error {
	for _, detach := range a.detaches {
		detach()
	}
	a.detaches = nil
	if closer, ok := a.Store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func storageLabel(store storage.Store) string {
	if _, ok := store.(*memory.Store); ok {
		return "memory"
	}
	return "sqlite"
}
