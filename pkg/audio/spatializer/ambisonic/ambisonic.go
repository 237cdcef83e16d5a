// Package ambisonic implements the Ambisonic spatializer variant (spec.md
// §4.3 item 1, §6.3): the highest-fidelity backend, which feeds every
// participant into a shared AmbisonicRenderer bed and steers the *listener's*
// orientation by rotating the whole bed, rather than steering each source
// individually. The HRIR convolution behind AmbisonicRenderer is a
// collaborator concern (spec.md §6.3); this package only computes the
// rotation matrix and routes audio through Input/Output.
package ambisonic

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roomspatial/roomspatial/pkg/audio"
	"github.com/roomspatial/roomspatial/pkg/spatial"
)

// Listener owns the shared AmbisonicRenderer and re-derives its rotation
// matrix from the interpolated listener pose on every Update.
type Listener struct {
	renderer audio.AmbisonicRenderer
	pose     *spatial.InterpolatedPose
}

// NewListener constructs the Listener and initializes the renderer bed.
// ok is false if this Context has no ambisonic renderer available, so
// capability probing falls through to ModernPanner.
func NewListener(ctx audio.Context, _ audio.Properties) (*Listener, audio.AmbisonicRenderer, bool) {
	renderer, ok := ctx.NewAmbisonicRenderer()
	if !ok {
		return nil, nil, false
	}
	if err := renderer.Initialize(); err != nil {
		return nil, nil, false
	}
	renderer.SetRenderingMode(audio.RenderingAmbisonic)
	renderer.Output().Connect(ctx.Destination())

	return &Listener{
		renderer: renderer,
		pose:     spatial.NewInterpolatedPose(spatial.NewPose(0, spatial.Zero, spatial.DefaultForward, spatial.DefaultUp)),
	}, renderer, true
}

func (l *Listener) SetPose(p, forward, up spatial.Vector3, t, dt float64) {
	l.pose.SetTarget(p, forward, up, t, dt)
}

func (l *Listener) Update(t float64) {
	cur := l.pose.Update(t)
	l.renderer.SetRotationMatrix3(rotationMatrix(cur.F, cur.U))
}

var _ audio.Listener = (*Listener)(nil)

// rotationMatrix builds the 3x3, row-major basis matrix (right, up, forward)
// the ambisonic renderer uses to rotate its sound field to match the
// listener's orientation (spec.md §6.3). right is derived as forward × up so
// the basis stays orthonormal even though only forward and up are tracked
// poses. The cross/normalize step is done in gonum's r3 package rather than
// spatial.Vector3's own arithmetic, since this is the one place in the engine
// where a basis matrix (not a pose) is the actual product.
func rotationMatrix(forward, up spatial.Vector3) [9]float64 {
	f := r3.Vec{X: forward.X, Y: forward.Y, Z: forward.Z}
	u := r3.Vec{X: up.X, Y: up.Y, Z: up.Z}
	right := r3.Unit(r3.Cross(f, u))
	return [9]float64{
		right.X, u.X, f.X,
		right.Y, u.Y, f.Y,
		right.Z, u.Z, f.Z,
	}
}

// Source feeds one remote participant's audio into the shared ambisonic
// bed. Unlike the panner variants, a Source here carries no position of its
// own: spec.md §6.3 places every participant at the renderer's origin and
// relies entirely on the listener's rotation for directionality, matching
// first-order-ambisonic decoding's "rotate the bed, not the sources" model.
type Source struct {
	id       string
	gain     audio.GainNode
	input    audio.SourceNode
	renderer audio.AmbisonicRenderer
	disposed bool
}

func New(id string, ctx audio.Context, listener audio.Listener, in audio.SourceInput, _ audio.Properties) (audio.PannerSource, error) {
	l, ok := listener.(*Listener)
	if !ok {
		return nil, audio.ErrUnsupported
	}

	gain := ctx.CreateGain()
	var srcNode audio.SourceNode
	var err error
	switch {
	case in.Stream != nil:
		srcNode, err = ctx.CreateSourceFromStream(in.Stream)
	case in.Element != nil:
		srcNode, err = ctx.CreateSourceFromElement(in.Element)
	}
	if err != nil {
		return nil, err
	}
	if srcNode != nil {
		srcNode.Connect(gain)
	}
	gain.Connect(l.renderer.Input())

	return &Source{id: id, gain: gain, input: srcNode, renderer: l.renderer}, nil
}

func (s *Source) ID() string { return s.id }

// SetPose and Update are no-ops: this variant's directionality comes
// entirely from the listener's rotation of the shared bed.
func (s *Source) SetPose(p, forward, up spatial.Vector3, t, dt float64) {}
func (s *Source) Update(t float64)                                      {}
func (s *Source) SetProperties(props audio.Properties)                  {}

func (s *Source) SetOutputDevice(deviceID string) error {
	return audio.ErrUnsupported
}

func (s *Source) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	if s.input != nil {
		s.input.Disconnect()
	}
	s.gain.Disconnect()
}

var _ audio.PannerSource = (*Source)(nil)

// Variant returns the audio.Factory for capability probing. Ambisonic is
// tried first since it offers the most accurate spatialization.
func Variant() audio.Factory {
	return audio.Factory{
		Kind: audio.VariantAmbisonic,
		New: func(ctx audio.Context, props audio.Properties) (audio.Listener, audio.SourceFactory, bool) {
			l, _, ok := NewListener(ctx, props)
			if !ok {
				return nil, nil, false
			}
			return l, New, true
		},
	}
}
