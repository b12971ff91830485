package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/continuation"
	"github.com/meltforce/liftlog/internal/live"
	"github.com/meltforce/liftlog/internal/remote"
	"github.com/meltforce/liftlog/internal/telemetry"
	"github.com/meltforce/liftlog/internal/workout"
)

// app wires the device dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *continuation.Store
	client  *remote.Client
	catalog *catalog.Catalog
	sink    telemetry.Sink
	host    *live.Host
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

func openStore(cfg *config.Config) (*continuation.Store, error) {
	return continuation.Open(cfg.Device.StateDir)
}

// newApp loads the device config and builds the host. Logs go to w.
func newApp(ctx context.Context, w io.Writer) (*app, error) {
	cfg, err := config.LoadDevice(configPath)
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg, w)

	cat, err := loadCatalog(cfg.Device.CatalogPath)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	sink, err := telemetry.New(ctx, cfg.Telemetry, Version, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := remote.NewClient(cfg.Device.BackendURL, cfg.Device.APIKey)
	host := live.NewHost(workout.Deps{
		Persistence: client,
		Store:       store,
		Preferences: workout.StaticPreferences{RestTimer: cfg.Workout.RestTimerEnabled},
		Sink:        sink,
		Log:         log,
	}, workout.Options{
		UserID:               cfg.Device.UserID,
		RestSeconds:          cfg.Workout.RestSeconds,
		IncludePayloadVolume: cfg.Workout.IncludePayloadVolume,
		DisableAutosave:      !cfg.Workout.Autosave,
	}, cat, log)

	log.Debug("device ready", "backend", cfg.Device.BackendURL, "state_dir", cfg.Device.StateDir)
	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		client:  client,
		catalog: cat,
		sink:    sink,
		host:    host,
	}, nil
}

// Close flushes the live workout and releases resources.
func (a *app) Close(ctx context.Context) {
	a.host.Close()
	if err := a.sink.Close(ctx); err != nil {
		a.log.Warn("closing telemetry", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing continuation store", "error", err)
	}
}
