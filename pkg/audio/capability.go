package audio

import (
	"errors"
	"fmt"

	"github.com/roomspatial/roomspatial/internal/resilience"
)

// variantBuild bundles one successfully-constructed spatializer variant.
type variantBuild struct {
	kind     VariantKind
	listener Listener
	source   SourceFactory
}

// DefaultFactories lists the four spatializer variants in capability
// probing order: ambisonic first (highest fidelity), direct last (always
// supported). Callers normally pass this to ProbeVariants; tests may pass a
// subset to exercise fallthrough.
func DefaultFactories(ambisonic, modernPanner, legacyPanner, direct Factory) []Factory {
	return []Factory{ambisonic, modernPanner, legacyPanner, direct}
}

// ProbeVariants selects the first spatializer variant this Context
// supports, trying factories in order (spec.md §4.3, SPEC_FULL.md §5). It is
// built on [resilience.FallbackGroup], the same primitive used for provider
// failover elsewhere: picking a spatializer backend is structurally
// identical to picking a healthy provider — try the best option, fall back
// in registration order, stop at the first success.
func ProbeVariants(ctx Context, props Properties, factories []Factory) (VariantKind, Listener, SourceFactory, error) {
	if len(factories) == 0 {
		return 0, nil, nil, errors.New("audio: no spatializer variants registered")
	}

	group := resilience.NewFallbackGroup(factories[0], factories[0].Kind.String(), resilience.FallbackConfig{})
	for _, f := range factories[1:] {
		group.AddFallback(f.Kind.String(), f)
	}

	build, err := resilience.ExecuteWithResult(group, func(f Factory) (variantBuild, error) {
		listener, sourceFactory, ok := f.New(ctx, props)
		if !ok {
			return variantBuild{}, ErrUnsupported
		}
		return variantBuild{kind: f.Kind, listener: listener, source: sourceFactory}, nil
	})
	if err != nil {
		return 0, nil, nil, fmt.Errorf("audio: no spatializer variant available: %w", err)
	}
	return build.kind, build.listener, build.source, nil
}
