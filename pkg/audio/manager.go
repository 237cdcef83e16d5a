package audio

import (
	"fmt"
	"sync"

	"github.com/roomspatial/roomspatial/pkg/spatial"
)

// user holds the spatializer-variant-specific state for one participant: a
// PannerSource and, if an AnalyserNode factory was supplied, a talking/quiet
// activity detector tapped from the same graph node.
type user struct {
	source   PannerSource
	analyser ActivityDetector
}

// clip holds the state for one pre-loaded sound (UI cue, ambient loop). A
// clip's PannerSource is created the same way as a participant's, so it can
// optionally be positioned in the room like any other source.
type clip struct {
	source  PannerSource
	element AudioElement
}

// ActivityDetector is the talking/quiet detector attached to a user's
// source, implemented by pkg/audio/activity.Analyser. It is an interface
// here so AudioManager does not import the activity package: neither
// package depends on the other, and callers wire an Analyser in through
// [AnalyserFactory].
type ActivityDetector interface {
	// Update runs one detection pass and returns whether the talking/quiet
	// state changed on this call.
	Update() (talking bool, changed bool)
}

// AnalyserFactory builds an ActivityDetector tapped from a newly created
// source, or returns ok=false if activity detection is not requested or not
// available for this input.
type AnalyserFactory func(id string, input SourceInput) (ActivityDetector, bool)

// AudioManager is the root of the spatial audio engine (spec.md §4.4): it
// owns the listener and every participant/clip source, drives their pose
// interpolation on each tick, and holds the global spatialization
// properties applied uniformly to every source.
//
// AudioManager is safe for concurrent use: callers may add/remove
// users and clips from one goroutine (e.g. a signaling handler) while the
// room's tick loop calls Update from another.
type AudioManager struct {
	mu sync.RWMutex

	ctx           Context
	variant       VariantKind
	listener      Listener
	sourceFactory SourceFactory
	analyserNew   AnalyserFactory

	props Properties

	users map[string]*user
	clips map[string]*clip
}

// NewAudioManager probes the supplied spatializer variants against ctx and
// constructs an AudioManager using the first one the platform supports
// (spec.md §4.3/§4.4). analyserNew may be nil, disabling activity detection.
func NewAudioManager(ctx Context, factories []Factory, props Properties, analyserNew AnalyserFactory) (*AudioManager, VariantKind, error) {
	kind, listener, sourceFactory, err := ProbeVariants(ctx, props, factories)
	if err != nil {
		return nil, 0, err
	}
	return &AudioManager{
		ctx:           ctx,
		variant:       kind,
		listener:      listener,
		sourceFactory: sourceFactory,
		analyserNew:   analyserNew,
		props:         props,
		users:         make(map[string]*user),
		clips:         make(map[string]*clip),
	}, kind, nil
}

// Variant reports which spatializer backend was selected.
func (m *AudioManager) Variant() VariantKind {
	return m.variant
}

// SetListenerPose asserts the local participant's new pose, reached at
// time t + m.props.TransitionTime (spec.md §4.2's continuous-retarget dt).
func (m *AudioManager) SetListenerPose(p, forward, up spatial.Vector3, t float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.listener.SetPose(p, forward, up, t, m.props.TransitionTime)
}

// CreateUser wires a new remote participant's audio into the graph. id must
// be unique; a duplicate id returns an error rather than silently replacing
// the existing source, since an in-place replacement would orphan whatever
// is still connected to the old one.
func (m *AudioManager) CreateUser(id string, input SourceInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[id]; exists {
		return fmt.Errorf("audio: user %q already exists", id)
	}

	src, err := m.sourceFactory(id, m.ctx, m.listener, input, m.props)
	if err != nil {
		return fmt.Errorf("audio: create user %q: %w", id, err)
	}

	u := &user{source: src}
	if m.analyserNew != nil {
		if det, ok := m.analyserNew(id, input); ok {
			u.analyser = det
		}
	}
	m.users[id] = u
	return nil
}

// SetUserPose asserts a remote participant's new pose. Unknown ids are
// ignored: a pose update racing a concurrent RemoveUser is expected, not an
// error condition.
func (m *AudioManager) SetUserPose(id string, p, forward, up spatial.Vector3, t float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return
	}
	u.source.SetPose(p, forward, up, t, m.props.TransitionTime)
}

// RemoveUser disposes and forgets a participant's source. Removing an
// unknown id is a no-op.
func (m *AudioManager) RemoveUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return
	}
	u.source.Dispose()
	delete(m.users, id)
}

// CreateClip wires a pre-loaded sound into the graph under name. A clip may
// optionally be positioned like a user source (e.g. a localized ambient
// loop); a non-positional clip simply never receives SetClipPose calls.
func (m *AudioManager) CreateClip(name string, element AudioElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clips[name]; exists {
		return fmt.Errorf("audio: clip %q already exists", name)
	}

	src, err := m.sourceFactory(name, m.ctx, m.listener, SourceInput{Element: element}, m.props)
	if err != nil {
		return fmt.Errorf("audio: create clip %q: %w", name, err)
	}
	m.clips[name] = &clip{source: src, element: element}
	return nil
}

// SetClipPose positions a clip, same semantics as SetUserPose.
func (m *AudioManager) SetClipPose(name string, p, forward, up spatial.Vector3, t float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clips[name]
	if !ok {
		return
	}
	c.source.SetPose(p, forward, up, t, m.props.TransitionTime)
}

// RemoveClip disposes and forgets a clip. Removing an unknown name is a
// no-op.
func (m *AudioManager) RemoveClip(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clips[name]
	if !ok {
		return
	}
	c.source.Dispose()
	delete(m.clips, name)
}

// SetAudioProperties updates the global spatialization parameters and
// re-applies them to every live source (spec.md §4.4), so an operator
// changing min/max distance or rolloff mid-session takes effect immediately
// rather than only for sources created afterward.
func (m *AudioManager) SetAudioProperties(props Properties) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.props = props
	for _, u := range m.users {
		u.source.SetProperties(props)
	}
	for _, c := range m.clips {
		c.source.SetProperties(props)
	}
}

// Update advances the listener and every user/clip source to time t, and
// polls activity detectors, returning the set of user ids whose
// talking/quiet state changed on this call (spec.md §4.4's per-tick
// pipeline: pose → AudioManager.update → render).
func (m *AudioManager) Update(t float64) (talkingChanged map[string]bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.listener.Update(t)
	for _, u := range m.users {
		u.source.Update(t)
	}
	for _, c := range m.clips {
		c.source.Update(t)
	}

	for id, u := range m.users {
		if u.analyser == nil {
			continue
		}
		talking, changed := u.analyser.Update()
		if !changed {
			continue
		}
		if talkingChanged == nil {
			talkingChanged = make(map[string]bool)
		}
		talkingChanged[id] = talking
	}
	return talkingChanged
}
