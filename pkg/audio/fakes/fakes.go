// Package fakes provides in-memory implementations of the pkg/audio node
// and Context interfaces, for use in tests that exercise spatializer
// variants and AudioManager without a browser WebAudio graph.
//
// Every fake records its calls so tests can assert on them, following the
// same pattern as the reference implementation's other mock packages.
package fakes

import (
	"github.com/roomspatial/roomspatial/pkg/audio"
)

// Param is a fake AudioParam recording every SetValueAtTime call and
// exposing the most recent value.
type Param struct {
	Value   float64
	SetTime float64
	Calls   int
}

func (p *Param) SetValueAtTime(value, when float64) {
	p.Value = value
	p.SetTime = when
	p.Calls++
}

// Node is a fake graph Node recording connections.
type Node struct {
	ConnectedTo []audio.Node
	Disconnects int
}

func (n *Node) Connect(dest audio.Node) { n.ConnectedTo = append(n.ConnectedTo, dest) }
func (n *Node) Disconnect()             { n.Disconnects++ }

// Gain is a fake GainNode.
type Gain struct {
	Node
	GainParam Param
}

func (g *Gain) Gain() audio.AudioParam { return &g.GainParam }

// Panner is a fake modern PannerNode.
type Panner struct {
	Node
	PosX, PosY, PosZ                    Param
	OriX, OriY, OriZ                    Param
	DistanceModel                       audio.DistanceModel
	PanningModel                        audio.PanningModel
	MinDistance                         float64
	MaxDistance                         float64
	RolloffFactor                       float64
	ConeInner, ConeOuter, ConeOuterGain float64
}

func (p *Panner) PositionX() audio.AudioParam            { return &p.PosX }
func (p *Panner) PositionY() audio.AudioParam            { return &p.PosY }
func (p *Panner) PositionZ() audio.AudioParam            { return &p.PosZ }
func (p *Panner) OrientationX() audio.AudioParam         { return &p.OriX }
func (p *Panner) OrientationY() audio.AudioParam         { return &p.OriY }
func (p *Panner) OrientationZ() audio.AudioParam         { return &p.OriZ }
func (p *Panner) SetDistanceModel(m audio.DistanceModel) { p.DistanceModel = m }
func (p *Panner) SetPanningModel(m audio.PanningModel)   { p.PanningModel = m }
func (p *Panner) SetMinDistance(d float64)               { p.MinDistance = d }
func (p *Panner) SetMaxDistance(d float64)               { p.MaxDistance = d }
func (p *Panner) SetRolloffFactor(r float64)             { p.RolloffFactor = r }
func (p *Panner) SetCone(inner, outer, outerGain float64) {
	p.ConeInner, p.ConeOuter, p.ConeOuterGain = inner, outer, outerGain
}

// LegacyPanner is a fake LegacyPannerNode.
type LegacyPanner struct {
	Node
	X, Y, Z                                 float64
	FX, FY, FZ                              float64
	DistanceModel                           audio.DistanceModel
	PanningModel                            audio.PanningModel
	MinDistance, MaxDistance, RolloffFactor float64
}

func (p *LegacyPanner) SetPosition(x, y, z float64)             { p.X, p.Y, p.Z = x, y, z }
func (p *LegacyPanner) SetOrientation(fx, fy, fz float64)       { p.FX, p.FY, p.FZ = fx, fy, fz }
func (p *LegacyPanner) SetDistanceModel(m audio.DistanceModel)  { p.DistanceModel = m }
func (p *LegacyPanner) SetPanningModel(m audio.PanningModel)    { p.PanningModel = m }
func (p *LegacyPanner) SetMinDistance(d float64)                { p.MinDistance = d }
func (p *LegacyPanner) SetMaxDistance(d float64)                { p.MaxDistance = d }
func (p *LegacyPanner) SetRolloffFactor(r float64)              { p.RolloffFactor = r }
func (p *LegacyPanner) SetCone(inner, outer, outerGain float64) {}

// Listener is a fake modern ListenerNode.
type Listener struct {
	PosX, PosY, PosZ Param
	FwdX, FwdY, FwdZ Param
	UpX_, UpY_, UpZ_ Param
}

func (l *Listener) PositionX() audio.AudioParam { return &l.PosX }
func (l *Listener) PositionY() audio.AudioParam { return &l.PosY }
func (l *Listener) PositionZ() audio.AudioParam { return &l.PosZ }
func (l *Listener) ForwardX() audio.AudioParam  { return &l.FwdX }
func (l *Listener) ForwardY() audio.AudioParam  { return &l.FwdY }
func (l *Listener) ForwardZ() audio.AudioParam  { return &l.FwdZ }
func (l *Listener) UpX() audio.AudioParam       { return &l.UpX_ }
func (l *Listener) UpY() audio.AudioParam       { return &l.UpY_ }
func (l *Listener) UpZ() audio.AudioParam       { return &l.UpZ_ }

// LegacyListener is a fake LegacyListenerNode.
type LegacyListener struct {
	X, Y, Z    float64
	FX, FY, FZ float64
	UX, UY, UZ float64
}

func (l *LegacyListener) SetPosition(x, y, z float64) { l.X, l.Y, l.Z = x, y, z }
func (l *LegacyListener) SetOrientation(fx, fy, fz, ux, uy, uz float64) {
	l.FX, l.FY, l.FZ, l.UX, l.UY, l.UZ = fx, fy, fz, ux, uy, uz
}

// Source is a fake SourceNode.
type Source struct {
	Node
	Playing bool
	Stopped bool
}

func (s *Source) Play() error { s.Playing = true; return nil }
func (s *Source) Stop() error { s.Stopped = true; return nil }

// Stream is a fake MediaStream.
type Stream struct {
	StreamID string
	IsActive bool
}

func (s Stream) ID() string   { return s.StreamID }
func (s Stream) Active() bool { return s.IsActive }

// Element is a fake AudioElement.
type Element struct {
	Loop    bool
	Volume  float64
	SinkErr error
}

func (e *Element) SetLoop(loop bool)         { e.Loop = loop }
func (e *Element) SetVolume(v float64)       { e.Volume = v }
func (e *Element) SetSinkID(id string) error { return e.SinkErr }

// Renderer is a fake AmbisonicRenderer.
type Renderer struct {
	InputNode, OutputNode Node
	Initialized           bool
	InitErr               error
	RotationMatrix        [9]float64
	Mode                  audio.RenderingMode
}

func (r *Renderer) Input() audio.Node                         { return &r.InputNode }
func (r *Renderer) Output() audio.Node                        { return &r.OutputNode }
func (r *Renderer) Initialize() error                         { r.Initialized = true; return r.InitErr }
func (r *Renderer) SetRotationMatrix3(m [9]float64)           { r.RotationMatrix = m }
func (r *Renderer) SetRenderingMode(mode audio.RenderingMode) { r.Mode = mode }

// Context is a fake audio.Context. Availability of each capability is
// controlled by the *Available fields; when false the corresponding
// Create/New method returns ok=false, letting tests exercise capability
// fallthrough (spec.md §4.3).
type Context struct {
	Time float64

	PannerAvailable         bool
	LegacyPannerAvailable   bool
	ListenerAvailable       bool
	LegacyListenerAvailable bool
	AmbisonicAvailable      bool

	Dest               Node
	ListenerNode       Listener
	LegacyListenerNode LegacyListener
	AmbisonicRenderer  Renderer

	CreateSourceErr error

	// LastPanner and LastLegacyPanner capture the most recently created
	// panner node, so tests can assert on the parameters a Source wrote to
	// it without the fake Context needing a full node registry.
	LastPanner       *Panner
	LastLegacyPanner *LegacyPanner
}

func (c *Context) CurrentTime() float64       { return c.Time }
func (c *Context) Destination() audio.Node    { return &c.Dest }
func (c *Context) CreateGain() audio.GainNode { return &Gain{} }

func (c *Context) CreatePannerNode() (audio.PannerNode, bool) {
	if !c.PannerAvailable {
		return nil, false
	}
	c.LastPanner = &Panner{}
	return c.LastPanner, true
}

func (c *Context) CreateLegacyPannerNode() (audio.LegacyPannerNode, bool) {
	if !c.LegacyPannerAvailable {
		return nil, false
	}
	c.LastLegacyPanner = &LegacyPanner{}
	return c.LastLegacyPanner, true
}

func (c *Context) Listener() (audio.ListenerNode, bool) {
	if !c.ListenerAvailable {
		return nil, false
	}
	return &c.ListenerNode, true
}

func (c *Context) LegacyListener() (audio.LegacyListenerNode, bool) {
	if !c.LegacyListenerAvailable {
		return nil, false
	}
	return &c.LegacyListenerNode, true
}

func (c *Context) CreateSourceFromStream(stream audio.MediaStream) (audio.SourceNode, error) {
	if c.CreateSourceErr != nil {
		return nil, c.CreateSourceErr
	}
	return &Source{}, nil
}

func (c *Context) CreateSourceFromElement(element audio.AudioElement) (audio.SourceNode, error) {
	if c.CreateSourceErr != nil {
		return nil, c.CreateSourceErr
	}
	return &Source{}, nil
}

func (c *Context) NewAmbisonicRenderer() (audio.AmbisonicRenderer, bool) {
	if !c.AmbisonicAvailable {
		return nil, false
	}
	return &c.AmbisonicRenderer, true
}

var _ audio.Context = (*Context)(nil)
