// Package legacypanner implements the LegacyPanner spatializer variant
// (spec.md §4.3 item 3): browsers whose PannerNode only exposes the older
// imperative setPosition/setOrientation methods rather than AudioParams.
package legacypanner

import (
	"github.com/roomspatial/roomspatial/pkg/audio"
	"github.com/roomspatial/roomspatial/pkg/spatial"
)

// Listener drives a LegacyListenerNode directly: since there are no
// AudioParams to ramp, each Update call issues one imperative call with the
// interpolated pose.
type Listener struct {
	node audio.LegacyListenerNode
	pose *spatial.InterpolatedPose
}

func NewListener(ctx audio.Context, _ audio.Properties) (*Listener, bool) {
	node, ok := ctx.LegacyListener()
	if !ok {
		return nil, false
	}
	return &Listener{
		node: node,
		pose: spatial.NewInterpolatedPose(spatial.NewPose(0, spatial.Zero, spatial.DefaultForward, spatial.DefaultUp)),
	}, true
}

func (l *Listener) SetPose(p, forward, up spatial.Vector3, t, dt float64) {
	l.pose.SetTarget(p, forward, up, t, dt)
}

func (l *Listener) Update(t float64) {
	cur := l.pose.Update(t)
	l.node.SetPosition(cur.P.X, cur.P.Y, cur.P.Z)
	l.node.SetOrientation(cur.F.X, cur.F.Y, cur.F.Z, cur.U.X, cur.U.Y, cur.U.Z)
}

var _ audio.Listener = (*Listener)(nil)

// Source drives one remote participant's LegacyPannerNode.
type Source struct {
	id       string
	panner   audio.LegacyPannerNode
	input    audio.SourceNode
	pose     *spatial.InterpolatedPose
	props    audio.Properties
	disposed bool
}

func New(id string, ctx audio.Context, _ audio.Listener, in audio.SourceInput, props audio.Properties) (audio.PannerSource, error) {
	panner, ok := ctx.CreateLegacyPannerNode()
	if !ok {
		return nil, audio.ErrUnsupported
	}

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
		srcNode.Connect(panner)
	}
	panner.Connect(ctx.Destination())

	s := &Source{
		id:     id,
		panner: panner,
		input:  srcNode,
		pose:   spatial.NewInterpolatedPose(spatial.NewPose(0, spatial.Zero, spatial.DefaultForward, spatial.DefaultUp)),
		props:  props,
	}
	s.applyProperties()
	return s, nil
}

func (s *Source) ID() string { return s.id }

func (s *Source) SetPose(p, forward, up spatial.Vector3, t, dt float64) {
	s.pose.SetTarget(p, forward, up, t, dt)
}

func (s *Source) Update(t float64) {
	cur := s.pose.Update(t)
	s.panner.SetPosition(cur.P.X, cur.P.Y, cur.P.Z)
	s.panner.SetOrientation(cur.F.X, cur.F.Y, cur.F.Z)
}

func (s *Source) SetProperties(props audio.Properties) {
	s.props = props
	s.applyProperties()
}

func (s *Source) applyProperties() {
	s.panner.SetDistanceModel(audio.DistanceInverse)
	s.panner.SetPanningModel(audio.PanningHRTF)
	s.panner.SetMinDistance(s.props.MinDistance)
	s.panner.SetMaxDistance(s.props.MaxDistance)
	s.panner.SetRolloffFactor(s.props.RolloffFactor)
	s.panner.SetCone(s.props.ConeInnerAngle, s.props.ConeOuterAngle, s.props.ConeOuterGain)
}

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
	s.panner.Disconnect()
}

var _ audio.PannerSource = (*Source)(nil)

// Variant returns the audio.Factory for capability probing.
func Variant() audio.Factory {
	return audio.Factory{
		Kind: audio.VariantLegacyPanner,
		New: func(ctx audio.Context, props audio.Properties) (audio.Listener, audio.SourceFactory, bool) {
			l, ok := NewListener(ctx, props)
			if !ok {
				return nil, nil, false
			}
			return l, New, true
		},
	}
}
