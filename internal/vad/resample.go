// internal/vad/resample.go
package vad

import "math"

// All-pass coefficients of the half-band decimator in Q13, upper 0.64 and
// lower 0.17.
var halfBandCoefsQ13 = [2]int32{5243, 1392}

// halfBand decimates by two with a pair of first-order all-pass branches.
type halfBand struct {
	state [2]int32
}

func (h *halfBand) reset() {
	h.state = [2]int32{}
}

// process writes len(in)/2 samples into out.
func (h *halfBand) process(in, out []int16) {
	s1, s2 := h.state[0], h.state[1]
	for n := 0; n < len(in)>>1; n++ {
		x := int32(in[2*n])
		t1 := int16((s1 >> 1) + ((halfBandCoefsQ13[0] * x) >> 14))
		out[n] = t1
		s1 = x - ((halfBandCoefsQ13[0] * int32(t1)) >> 12)

		x = int32(in[2*n+1])
		t2 := int16((s2 >> 1) + ((halfBandCoefsQ13[1] * x) >> 14))
		out[n] += t2
		s2 = x - ((halfBandCoefsQ13[1] * int32(t2)) >> 12)
	}
	h.state[0], h.state[1] = s1, s2
}

const (
	decimateTaps   = 48
	decimateFactor = 3
	// decimateCutoff is the pass band edge relative to the 48 kHz input rate.
	decimateCutoff = 6800.0 / 48000.0
)

// decimateCoefsQ15 is a Hamming windowed-sinc low pass with unity DC gain.
var decimateCoefsQ15 = designLowPass(decimateTaps, decimateCutoff)

func designLowPass(taps int, cutoff float64) []int32 {
	h := make([]float64, taps)
	var sum float64
	mid := float64(taps-1) / 2
	for i := range h {
		x := float64(i) - mid
		v := 2 * cutoff
		if x != 0 {
			v = math.Sin(2*math.Pi*cutoff*x) / (math.Pi * x)
		}
		v *= 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(taps-1))
		h[i] = v
		sum += v
	}

	out := make([]int32, taps)
	var qsum int32
	for i, v := range h {
		out[i] = int32(math.Round(v / sum * 32768))
		qsum += out[i]
	}
	// Fold the rounding residue into the centre tap so DC passes unchanged.
	out[taps/2] += 32768 - qsum
	return out
}

// decimator3 brings 48 kHz down to 16 kHz with a polyphase FIR.
type decimator3 struct {
	buf []int16 // taps-1 samples of history followed by the current frame
}

func newDecimator3(maxFrame int) *decimator3 {
	return &decimator3{buf: make([]int16, decimateTaps-1, decimateTaps-1+maxFrame)}
}

func (d *decimator3) reset() {
	d.buf = d.buf[:decimateTaps-1]
	for i := range d.buf {
		d.buf[i] = 0
	}
}

// process writes len(in)/3 samples into out. len(in) must be a multiple of 3.
func (d *decimator3) process(in, out []int16) {
	d.buf = append(d.buf[:decimateTaps-1], in...)
	for n := 0; n < len(in)/decimateFactor; n++ {
		newest := decimateTaps - 1 + decimateFactor*n + decimateFactor - 1
		var acc int64
		for k, c := range decimateCoefsQ15 {
			acc += int64(c) * int64(d.buf[newest-k])
		}
		out[n] = saturate16((acc + 1<<14) >> 15)
	}
	copy(d.buf, d.buf[len(d.buf)-(decimateTaps-1):])
	d.buf = d.buf[:decimateTaps-1]
}
