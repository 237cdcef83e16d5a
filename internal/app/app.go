// Package app wires the roomspatial subsystems into a running application.
//
// App owns the full lifecycle: New builds one Room per configured room
// (connecting each to its conference backend), Run drives every room's tick
// loop concurrently until its context is canceled, and Shutdown tears every
// room down in parallel, bounded by the caller's context deadline.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roomspatial/roomspatial/internal/config"
	"github.com/roomspatial/roomspatial/internal/observe"
	"github.com/roomspatial/roomspatial/pkg/audio"
)

// defaultTickRate matches a 60Hz animation frame, the same cadence the
// reference front end drives its own requestAnimationFrame loop at
// (spec.md §4.7).
const defaultTickRate = time.Second / 60

// App owns every hosted Room's lifetime (SPEC_FULL.md §5 "Per-room
// hosting").
type App struct {
	cfg      *config.Config
	registry *config.Registry
	metrics  *observe.Metrics
	settings SettingsStore
	tileMaps TileMapLoader

	rooms map[string]*Room

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithMetrics injects a Metrics instance instead of using observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithSettingsStore injects a SettingsStore instead of an in-memory one.
func WithSettingsStore(s SettingsStore) Option {
	return func(a *App) { a.settings = s }
}

// WithTileMapLoader injects a TileMapLoader instead of DefaultTileMapLoader.
func WithTileMapLoader(l TileMapLoader) Option {
	return func(a *App) { a.tileMaps = l }
}

// New builds an App: one Room per cfg.Rooms entry, each connected to its
// conference backend and joined under the room's host identity. Rooms are
// not yet ticking; call Run to start them.
func New(ctx context.Context, cfg *config.Config, registry *config.Registry, opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		registry: registry,
		rooms:    make(map[string]*Room),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.settings == nil {
		a.settings = NewMemorySettingsStore()
	}
	if a.tileMaps == nil {
		a.tileMaps = DefaultTileMapLoader
	}

	if len(cfg.Rooms) == 0 {
		slog.Warn("app: no rooms configured")
	}

	for _, rc := range cfg.Rooms {
		tm, err := a.tileMaps(rc.TileMap)
		if err != nil {
			return nil, fmt.Errorf("app: room %q: load tile map: %w", rc.Name, err)
		}

		room, err := NewRoom(rc, cfg.Conference, cfg.Audio, tm, registry, a.metrics)
		if err != nil {
			return nil, fmt.Errorf("app: build room %q: %w", rc.Name, err)
		}
		if err := room.Connect(ctx); err != nil {
			return nil, fmt.Errorf("app: connect room %q: %w", rc.Name, err)
		}

		a.rooms[rc.Name] = room
		slog.Info("app: room connected", "room", rc.Name)
	}

	return a, nil
}

// Rooms returns the set of hosted rooms by name.
func (a *App) Rooms() map[string]*Room { return a.rooms }

// Run drives every room's tick loop concurrently, fanning out with
// [errgroup.Group] so one room's failure doesn't silently strand the others:
// the group's context is canceled for every room as soon as any one of them
// returns an error, and Run returns that first error once all rooms have
// stopped.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for name, room := range a.rooms {
		room := room
		name := name
		g.Go(func() error {
			if err := room.Run(gctx, defaultTickRate); err != nil {
				return fmt.Errorf("app: room %q: %w", name, err)
			}
			return nil
		})
	}

	slog.Info("app running", "rooms", len(a.rooms))
	err := g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// OnConfigChanged applies a reloaded configuration to every running room: it
// diffs old against new and, when the audio section changed, re-asserts the
// new spatialization properties on every room live
// (SPEC_FULL.md §5's config hot-reload supplement). Intended for use as a
// [config.Watcher]'s onChange callback.
func (a *App) OnConfigChanged(old, new *config.Config) {
	diff := config.Diff(old, new)
	if !diff.AudioChanged {
		return
	}

	props := audio.Properties{
		MinDistance:   diff.NewAudio.MinDistance,
		MaxDistance:   diff.NewAudio.MaxDistance,
		RolloffFactor: diff.NewAudio.Rolloff,
		TransitionTime: func() float64 {
			if diff.NewAudio.TransitionTimeMS <= 0 {
				return audio.DefaultProperties.TransitionTime
			}
			return diff.NewAudio.TransitionTime()
		}(),
	}
	for name, room := range a.rooms {
		room.SetAudioProperties(props)
		slog.Info("app: applied reloaded audio properties", "room", name)
	}
	a.cfg = new
}

// Shutdown leaves and disconnects every room concurrently, bounded by ctx's
// deadline. Safe to call multiple times; only the first call has effect.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "rooms", len(a.rooms))

		g, gctx := errgroup.WithContext(ctx)
		for name, room := range a.rooms {
			room := room
			name := name
			g.Go(func() error {
				if err := room.Shutdown(gctx); err != nil {
					return fmt.Errorf("room %q: %w", name, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			slog.Warn("shutdown error", "err", err)
			shutdownErr = err
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
