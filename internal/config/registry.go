package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/roomspatial/roomspatial/internal/conference"
	"github.com/roomspatial/roomspatial/pkg/audio"
)

// ErrBackendNotRegistered is returned by CreateBackend when no factory has
// been registered under the requested name.
var ErrBackendNotRegistered = errors.New("config: conference backend not registered")

// ErrSpatializerNotRegistered is returned by Spatializers when no factory has
// been registered under the requested name.
var ErrSpatializerNotRegistered = errors.New("config: spatializer variant not registered")

// BackendFactory constructs a conference.Backend from the server's
// conference configuration (spec.md §6.1, §6.5).
type BackendFactory func(ConferenceConfig) (conference.Backend, error)

// Registry maps backend and spatializer names to their constructors. It is
// safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	backends     map[string]BackendFactory
	spatializers map[string]audio.Factory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		backends:     make(map[string]BackendFactory),
		spatializers: make(map[string]audio.Factory),
	}
}

// RegisterBackend registers a conference backend factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterBackend(name string, factory BackendFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = factory
}

// RegisterSpatializer registers a spatializer variant factory under name, so
// that [AudioConfig.SpatializerOrder] can reference it by name.
func (r *Registry) RegisterSpatializer(name string, factory audio.Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spatializers[name] = factory
}

// CreateBackend instantiates the conference backend registered under name.
// Returns [ErrBackendNotRegistered] if no factory has been registered.
func (r *Registry) CreateBackend(name string, cfg ConferenceConfig) (conference.Backend, error) {
	r.mu.RLock()
	factory, ok := r.backends[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotRegistered, name)
	}
	return factory(cfg)
}

// Spatializers resolves cfg.SpatializerOrder into an ordered []audio.Factory
// suitable for [audio.NewAudioManager]'s capability-probing fallthrough.
// Unknown names are reported, not silently skipped.
func (r *Registry) Spatializers(order []string) ([]audio.Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factories := make([]audio.Factory, 0, len(order))
	for _, name := range order {
		f, ok := r.spatializers[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrSpatializerNotRegistered, name)
		}
		factories = append(factories, f)
	}
	return factories, nil
}
