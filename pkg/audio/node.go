// Package audio implements the spatial audio engine: the listener/source
// graph that turns per-participant poses into spatialized voice, and the
// capability-driven backend selection that picks which of the ambisonic,
// modern-panner, legacy-panner or direct spatializer variants renders each
// source (spec.md §3/§4.3/§4.4).
//
// The real-time audio graph itself — AudioContext, PannerNode, GainNode,
// AnalyserNode, HRIR convolution — is a platform concern provided by a
// collaborator (browser WebAudio via a WASM boundary, or a native engine);
// this package depends on it only through the narrow interfaces below, the
// same way the reference implementation depends on the browser's WebAudio
// API without owning it.
package audio

import "errors"

// ErrUnsupported is returned by operations a platform's concrete node does
// not implement for the device or build in question (e.g. setSinkId on a
// browser without output-device selection).
var ErrUnsupported = errors.New("audio: unsupported on this platform")

// AudioParam mirrors a WebAudio AudioParam: a value the core writes on every
// tick and the platform's real-time engine reads at its own rate (spec.md
// §5's "engine reads at its own rate" decoupling).
type AudioParam interface {
	SetValueAtTime(value float64, when float64)
}

// Node is the capability every audio graph node shares.
type Node interface {
	Connect(dest Node)
	Disconnect()
}

// GainNode is a volume-control node.
type GainNode interface {
	Node
	Gain() AudioParam
}

// SourceNode feeds the graph from a live MediaStream (microphone) or a
// pre-loaded element (clip). Polling for MediaStream activation (spec.md
// §4.3) and the playsInline/autoplay/loop flags for elements are the
// platform's responsibility; the core only starts and stops the node.
type SourceNode interface {
	Node
	Play() error
	Stop() error
}

// PannerNode is the modern, AudioParam-driven WebAudio panner capability
// set, used by the ModernPanner spatializer variant (spec.md §4.3 item 2).
type PannerNode interface {
	Node
	PositionX() AudioParam
	PositionY() AudioParam
	PositionZ() AudioParam
	OrientationX() AudioParam
	OrientationY() AudioParam
	OrientationZ() AudioParam
	SetDistanceModel(model DistanceModel)
	SetPanningModel(model PanningModel)
	SetMinDistance(d float64)
	SetMaxDistance(d float64)
	SetRolloffFactor(r float64)
	SetCone(innerAngle, outerAngle, outerGain float64)
}

// LegacyPannerNode is the older imperative-method panner capability set, used
// by the LegacyPanner spatializer variant (spec.md §4.3 item 3).
type LegacyPannerNode interface {
	Node
	SetPosition(x, y, z float64)
	SetOrientation(fx, fy, fz float64)
	SetDistanceModel(model DistanceModel)
	SetPanningModel(model PanningModel)
	SetMinDistance(d float64)
	SetMaxDistance(d float64)
	SetRolloffFactor(r float64)
	SetCone(innerAngle, outerAngle, outerGain float64)
}

// ListenerNode is the modern AudioParam-driven listener capability set.
type ListenerNode interface {
	PositionX() AudioParam
	PositionY() AudioParam
	PositionZ() AudioParam
	ForwardX() AudioParam
	ForwardY() AudioParam
	ForwardZ() AudioParam
	UpX() AudioParam
	UpY() AudioParam
	UpZ() AudioParam
}

// LegacyListenerNode is the older imperative-method listener capability set.
type LegacyListenerNode interface {
	SetPosition(x, y, z float64)
	SetOrientation(fx, fy, fz, ux, uy, uz float64)
}

// DistanceModel mirrors WebAudio's PannerNode.distanceModel.
type DistanceModel int

const (
	DistanceInverse DistanceModel = iota
	DistanceLinear
	DistanceExponential
)

// PanningModel mirrors WebAudio's PannerNode.panningModel. Spec.md §4.3's
// panner cone configuration pins every panner-based variant to HRTF, the
// higher-quality head-related-transfer-function algorithm, rather than the
// cheaper equalpower default.
type PanningModel int

const (
	PanningHRTF PanningModel = iota
	PanningEqualPower
)

// MediaStream is a live input, typically a microphone capture.
type MediaStream interface {
	ID() string
	// Active reports whether the stream has begun producing frames. Spec.md
	// §4.3 requires polling this before wiring a source node, since some
	// platforms report a stream as available before it is actually live.
	Active() bool
}

// AudioElement is a pre-loaded playback source, typically a sound clip.
type AudioElement interface {
	SetLoop(loop bool)
	SetVolume(v float64)
	// SetSinkID selects an output device for this element specifically, used
	// by the per-clip device override. Returns ErrUnsupported on platforms
	// without per-element output routing.
	SetSinkID(deviceID string) error
}

// RenderingMode selects how an AmbisonicRenderer mixes its ambisonic bed,
// per spec.md §6.3.
type RenderingMode int

const (
	RenderingAmbisonic RenderingMode = iota
	RenderingBypass
	RenderingOff
)

// AmbisonicRenderer is the §6.3 contract consumed by the Ambisonic
// spatializer variant. The HRIR convolution itself is entirely a
// collaborator concern; the core only feeds it audio, sets its listener
// rotation, and switches its rendering mode.
type AmbisonicRenderer interface {
	Input() Node
	Output() Node
	Initialize() error
	SetRotationMatrix3(mat [9]float64)
	SetRenderingMode(mode RenderingMode)
}

// Context abstracts the platform AudioContext: it creates graph nodes and
// exposes the audio clock that every Pose timestamp is asserted against.
type Context interface {
	CurrentTime() float64
	Destination() Node
	CreateGain() GainNode
	// CreatePannerNode returns the modern panner capability, or ok=false on a
	// platform that only offers the legacy panner (or none at all).
	CreatePannerNode() (node PannerNode, ok bool)
	CreateLegacyPannerNode() (node LegacyPannerNode, ok bool)
	Listener() (ListenerNode, bool)
	LegacyListener() (LegacyListenerNode, bool)
	CreateSourceFromStream(stream MediaStream) (SourceNode, error)
	CreateSourceFromElement(element AudioElement) (SourceNode, error)
	// NewAmbisonicRenderer constructs a renderer bed, or ok=false if this
	// platform build has no ambisonic convolution available.
	NewAmbisonicRenderer() (r AmbisonicRenderer, ok bool)
}
