// Package headless implements a minimal [audio.Context] for processes that
// host a room's AudioManager without a real-time audio device attached
// (spec.md §6.1): the roomspatiald server keeps one AudioManager per room
// purely for pose bookkeeping and activity-state fan-out, while the actual
// WebAudio graph — panning, HRIR convolution, device I/O — belongs to the
// browser/WASM front end connected to the same room (spec.md §1's "remain
// external collaborators").
//
// Every node this Context creates is a no-op sink: Connect/Disconnect only
// track wiring for symmetry with a real graph, and none of the panning or
// ambisonic capabilities are reported available, so [audio.ProbeVariants]
// always settles on the Direct variant here.
package headless

import (
	"math"
	"sync/atomic"

	"github.com/roomspatial/roomspatial/pkg/audio"
)

// Context is a capability-free [audio.Context]. Time is supplied externally
// by SetTime so it can track the same clock the owning room's tick loop
// uses, rather than drifting from it.
type Context struct {
	timeBits atomic.Uint64
	dest     node
}

// NewContext returns a Context with its clock at zero.
func NewContext() *Context {
	return &Context{}
}

// SetTime asserts the context's current time, called once per tick from the
// same clock driving the room's InterpolatedPose updates.
func (c *Context) SetTime(t float64) {
	c.timeBits.Store(math.Float64bits(t))
}

func (c *Context) CurrentTime() float64 {
	return math.Float64frombits(c.timeBits.Load())
}

func (c *Context) Destination() audio.Node { return &c.dest }

func (c *Context) CreateGain() audio.GainNode { return &gainNode{} }

func (c *Context) CreatePannerNode() (audio.PannerNode, bool)             { return nil, false }
func (c *Context) CreateLegacyPannerNode() (audio.LegacyPannerNode, bool) { return nil, false }
func (c *Context) Listener() (audio.ListenerNode, bool)                   { return nil, false }
func (c *Context) LegacyListener() (audio.LegacyListenerNode, bool)       { return nil, false }

func (c *Context) CreateSourceFromStream(audio.MediaStream) (audio.SourceNode, error) {
	return &sourceNode{}, nil
}

func (c *Context) CreateSourceFromElement(audio.AudioElement) (audio.SourceNode, error) {
	return &sourceNode{}, nil
}

func (c *Context) NewAmbisonicRenderer() (audio.AmbisonicRenderer, bool) { return nil, false }

var _ audio.Context = (*Context)(nil)

// node is the shared no-op Connect/Disconnect implementation.
type node struct{}

func (*node) Connect(audio.Node) {}
func (*node) Disconnect()        {}

type gainNode struct {
	node
	gain audioParam
}

func (g *gainNode) Gain() audio.AudioParam { return &g.gain }

type audioParam struct{ value float64 }

func (p *audioParam) SetValueAtTime(value float64, _ float64) { p.value = value }

type sourceNode struct{ node }

func (*sourceNode) Play() error { return nil }
func (*sourceNode) Stop() error { return nil }
