// Package modernpanner implements the ModernPanner spatializer variant
// (spec.md §4.3 item 2): the common-case browser PannerNode whose position
// and orientation are AudioParams, set with SetValueAtTime rather than
// imperative setters so the real-time engine can sample them at its own
// rate (spec.md §5).
package modernpanner

import (
	"github.com/roomspatial/roomspatial/pkg/audio"
	"github.com/roomspatial/roomspatial/pkg/spatial"
)

// Listener drives a ListenerNode's nine position/forward/up AudioParams.
type Listener struct {
	node audio.ListenerNode
	pose *spatial.InterpolatedPose
}

func NewListener(ctx audio.Context, _ audio.Properties) (*Listener, bool) {
	node, ok := ctx.Listener()
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
	l.node.PositionX().SetValueAtTime(cur.P.X, t)
	l.node.PositionY().SetValueAtTime(cur.P.Y, t)
	l.node.PositionZ().SetValueAtTime(cur.P.Z, t)
	l.node.ForwardX().SetValueAtTime(cur.F.X, t)
	l.node.ForwardY().SetValueAtTime(cur.F.Y, t)
	l.node.ForwardZ().SetValueAtTime(cur.F.Z, t)
	l.node.UpX().SetValueAtTime(cur.U.X, t)
	l.node.UpY().SetValueAtTime(cur.U.Y, t)
	l.node.UpZ().SetValueAtTime(cur.U.Z, t)
}

var _ audio.Listener = (*Listener)(nil)

// Source drives one remote participant's PannerNode.
type Source struct {
	id       string
	panner   audio.PannerNode
	input    audio.SourceNode
	pose     *spatial.InterpolatedPose
	props    audio.Properties
	disposed bool
}

func New(id string, ctx audio.Context, _ audio.Listener, in audio.SourceInput, props audio.Properties) (audio.PannerSource, error) {
	panner, ok := ctx.CreatePannerNode()
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
	s.panner.PositionX().SetValueAtTime(cur.P.X, t)
	s.panner.PositionY().SetValueAtTime(cur.P.Y, t)
	s.panner.PositionZ().SetValueAtTime(cur.P.Z, t)
	s.panner.OrientationX().SetValueAtTime(cur.F.X, t)
	s.panner.OrientationY().SetValueAtTime(cur.F.Y, t)
	s.panner.OrientationZ().SetValueAtTime(cur.F.Z, t)
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
		Kind: audio.VariantModernPanner,
		New: func(ctx audio.Context, props audio.Properties) (audio.Listener, audio.SourceFactory, bool) {
			l, ok := NewListener(ctx, props)
			if !ok {
				return nil, nil, false
			}
			return l, New, true
		},
	}
}
