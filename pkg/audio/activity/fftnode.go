package activity

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTNode is a reference [AnalyserNode] computing a real dB magnitude
// spectrum over a sliding window of PCM samples. Write feeds it samples;
// FrequencyData runs the FFT on demand, the same way a browser's
// AnalyserNode recomputes its spectrum lazily on read.
//
// FFTNode is not safe for concurrent use.
type FFTNode struct {
	sampleRate float64
	size       int
	window     []float64
	fft        *fourier.FFT
}

// NewFFTNode constructs an FFTNode over a window of size samples.
func NewFFTNode(sampleRate float64, size int) *FFTNode {
	return &FFTNode{
		sampleRate: sampleRate,
		size:       size,
		fft:        fourier.NewFFT(size),
	}
}

// Write appends PCM samples to the sliding window, retaining only the most
// recent size samples.
func (n *FFTNode) Write(samples []float64) {
	n.window = append(n.window, samples...)
	if len(n.window) > n.size {
		n.window = n.window[len(n.window)-n.size:]
	}
}

// SampleRateHz implements AnalyserNode.
func (n *FFTNode) SampleRateHz() float64 { return n.sampleRate }

// FrequencyData implements AnalyserNode, writing up to len(dst) dB
// magnitude bins computed from the current window (zero-padded on the left
// if fewer than size samples have been written yet).
func (n *FFTNode) FrequencyData(dst []float64) {
	padded := n.window
	if len(padded) < n.size {
		padded = make([]float64, n.size)
		copy(padded[n.size-len(n.window):], n.window)
	}

	coeffs := n.fft.Coefficients(nil, padded)
	for i := range dst {
		if i >= len(coeffs) {
			dst[i] = -180
			continue
		}
		mag := math.Hypot(real(coeffs[i]), imag(coeffs[i]))
		if mag <= 1e-12 {
			dst[i] = -180
			continue
		}
		dst[i] = 20 * math.Log10(mag)
	}
}

var _ AnalyserNode = (*FFTNode)(nil)
