// Package direct implements the Direct spatializer variant (spec.md §4.3
// item 4): a non-spatial fallback that routes a source straight to the
// listener's destination through a gain node. Capability probing reaches it
// only when every variant ahead of it in the probing order is unavailable.
package direct

import (
	"github.com/roomspatial/roomspatial/pkg/audio"
	"github.com/roomspatial/roomspatial/pkg/spatial"
)

// Listener is the Direct variant's no-op listener: there is nothing to
// position because nothing is spatialized.
type Listener struct{}

func NewListener(audio.Context, audio.Properties) (*Listener, bool) {
	return &Listener{}, true
}

func (*Listener) SetPose(p, forward, up spatial.Vector3, t, dt float64) {}
func (*Listener) Update(t float64)                                      {}

var _ audio.Listener = (*Listener)(nil)

// Source routes one participant's audio straight through a gain node,
// applying no positional effect.
type Source struct {
	id       string
	gain     audio.GainNode
	input    audio.SourceNode
	disposed bool
}

// New constructs a Direct Source. ctx and listener are accepted to satisfy
// audio.SourceFactory's shape; listener is unused since Direct has no
// spatial state.
func New(id string, ctx audio.Context, _ audio.Listener, in audio.SourceInput, _ audio.Properties) (audio.PannerSource, error) {
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
	gain.Connect(ctx.Destination())

	return &Source{id: id, gain: gain, input: srcNode}, nil
}

func (s *Source) ID() string { return s.id }

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

// Variant returns the audio.Factory for capability probing (spec.md §4.3,
// SPEC_FULL.md §5). Direct has no prerequisites and so always succeeds,
// making it the correct last entry in the probing order.
func Variant() audio.Factory {
	return audio.Factory{
		Kind: audio.VariantDirect,
		New: func(ctx audio.Context, props audio.Properties) (audio.Listener, audio.SourceFactory, bool) {
			l, ok := NewListener(ctx, props)
			if !ok {
				return nil, nil, false
			}
			return l, New, true
		},
	}
}
