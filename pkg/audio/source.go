package audio

import "github.com/roomspatial/roomspatial/pkg/spatial"

// Properties are the global spatialization parameters shared by every
// PannerSource, applied uniformly by AudioManager.SetAudioProperties
// (spec.md §4.4).
type Properties struct {
	MinDistance    float64
	MaxDistance    float64
	RolloffFactor  float64
	ConeInnerAngle float64
	ConeOuterAngle float64
	ConeOuterGain  float64
	TransitionTime float64 // seconds used for SetTarget's dt on every pose update
}

// DefaultProperties match the reference implementation's defaults.
var DefaultProperties = Properties{
	MinDistance:    1,
	MaxDistance:    10,
	RolloffFactor:  1,
	ConeInnerAngle: 360,
	ConeOuterAngle: 0,
	ConeOuterGain:  0,
	TransitionTime: 0.125,
}

// PannerSource is the common contract every spatializer variant implements
// (spec.md §4.3): a per-remote-participant audio source whose position is
// driven by an InterpolatedPose and whose parameters track Properties.
type PannerSource interface {
	// ID identifies the remote participant this source renders.
	ID() string

	// SetPose asserts a new target pose reached at time t+dt, matching
	// InterpolatedPose.SetTarget's snap-vs-continuous semantics.
	SetPose(p, forward, up spatial.Vector3, t, dt float64)

	// Update advances the source's interpolation to time t and writes the
	// resulting position/orientation onto the underlying graph nodes.
	Update(t float64)

	// SetProperties applies new global spatialization parameters.
	SetProperties(props Properties)

	// SetOutputDevice selects an output device by ID, or returns
	// ErrUnsupported on a variant with no per-source output routing.
	SetOutputDevice(deviceID string) error

	// Dispose releases graph resources. Idempotent: calling it more than
	// once is a no-op, matching spec.md §4.3's disposal requirement.
	Dispose()
}

// Listener is the common contract for the local participant's ear position,
// implemented once per spatializer variant (spec.md §4.3).
type Listener interface {
	// SetPose asserts the listener's new target pose, same semantics as
	// PannerSource.SetPose.
	SetPose(p, forward, up spatial.Vector3, t, dt float64)

	// Update advances the listener's interpolation to time t and writes the
	// resulting position/orientation onto the underlying graph nodes.
	Update(t float64)
}

// VariantKind names one of the four spatializer backends spec.md §4.3
// describes, in probing preference order (most to least capable).
type VariantKind int

const (
	VariantAmbisonic VariantKind = iota
	VariantModernPanner
	VariantLegacyPanner
	VariantDirect
)

func (k VariantKind) String() string {
	switch k {
	case VariantAmbisonic:
		return "ambisonic"
	case VariantModernPanner:
		return "modern-panner"
	case VariantLegacyPanner:
		return "legacy-panner"
	case VariantDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Factory builds a Listener and the PannerSource constructor for one
// spatializer variant, given the platform Context. It returns ok=false when
// the variant cannot be supported on this Context (e.g. no ambisonic
// renderer available), so that capability probing can fall through to the
// next variant (spec.md §4.3, SPEC_FULL.md §5).
type Factory struct {
	Kind VariantKind
	New  func(ctx Context, props Properties) (Listener, SourceFactory, bool)
}

// SourceFactory creates one PannerSource for a remote participant, wired to
// the given input (microphone stream or clip element).
type SourceFactory func(id string, ctx Context, listener Listener, input SourceInput, props Properties) (PannerSource, error)

// SourceInput is the audio feeding a PannerSource: exactly one of Stream or
// Element is set.
type SourceInput struct {
	Stream  MediaStream
	Element AudioElement
}
