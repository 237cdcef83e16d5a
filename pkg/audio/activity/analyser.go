// Package activity implements talking/quiet detection from a participant's
// frequency-domain audio data (spec.md §4.5): a hysteresis counter fed by
// energy in the human speech band, so a single quiet frame during a word
// doesn't flicker the "talking" indicator off.
package activity

// AnalyserNode supplies frequency-domain magnitude data, in the same dB
// convention as WebAudio's AnalyserNode.getFloatFrequencyData: 0 dB is full
// scale, and quieter bins are increasingly negative. It is a platform
// concern — in a browser this taps the real AudioContext graph; [FFTNode]
// is a standalone reference implementation used by this package's own tests
// and any deployment without a browser AnalyserNode to tap.
type AnalyserNode interface {
	// SampleRateHz is the audio context's sample rate.
	SampleRateHz() float64
	// FrequencyData fills dst with the current magnitude spectrum; dst's
	// length is the analyser's bin count (half the FFT size plus one).
	FrequencyData(dst []float64)
}

// Tuning constants for the speech-band hysteresis detector (spec.md §4.5).
const (
	minSpeechHz = 85
	maxSpeechHz = 255

	hysteresisMax       = 60
	hysteresisThreshold = 5
)

// Analyser is a single participant's talking/quiet detector. It is not safe
// for concurrent use; callers own synchronization (normally driven from the
// room's tick loop, one call to Update per tick, same as
// [spatial.InterpolatedPose]).
type Analyser struct {
	node AnalyserNode
	buf  []float64

	counter int
	talking bool
}

// New constructs an Analyser that reads binCount frequency bins from node
// on each Update.
func New(node AnalyserNode, binCount int) *Analyser {
	return &Analyser{node: node, buf: make([]float64, binCount)}
}

// Update reads the current frequency data, folds it into the hysteresis
// counter, and returns the resulting talking state and whether it changed
// since the previous Update (spec.md §4.5's talking/quiet events fire only
// on change).
func (a *Analyser) Update() (talking bool, changed bool) {
	a.node.FrequencyData(a.buf)

	mean := speechBandMean(a.buf, a.node.SampleRateHz())
	score := 1.1 + mean/100

	switch {
	case score >= 0.5:
		if a.counter < hysteresisMax {
			a.counter++
		}
	default:
		if a.counter > 0 {
			a.counter--
		}
	}

	was := a.talking
	a.talking = a.counter > hysteresisThreshold
	return a.talking, a.talking != was
}

// speechBandMean averages the magnitude bins falling within
// [minSpeechHz, maxSpeechHz], given the analyser's sample rate and bin
// count. Bins are linearly spaced from 0 to sampleRate/2 across len(buf).
func speechBandMean(buf []float64, sampleRate float64) float64 {
	n := len(buf)
	if n == 0 || sampleRate <= 0 {
		return 0
	}
	nyquist := sampleRate / 2

	lo := int(minSpeechHz / nyquist * float64(n))
	hi := int(maxSpeechHz / nyquist * float64(n))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	if hi < lo {
		return 0
	}

	var sum float64
	count := 0
	for i := lo; i <= hi; i++ {
		sum += buf[i]
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
