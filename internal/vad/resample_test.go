package vad

import "testing"

func TestDesignLowPass_UnityGain(t *testing.T) {
	if len(decimateCoefsQ15) != decimateTaps {
		t.Fatalf("taps = %d, want %d", len(decimateCoefsQ15), decimateTaps)
	}
	var sum int32
	for _, c := range decimateCoefsQ15 {
		sum += c
	}
	if sum != 32768 {
		t.Errorf("coefficient sum = %d, want 32768", sum)
	}
}

func TestDecimator3_DC(t *testing.T) {
	d := newDecimator3(480)
	in := make([]int16, 480)
	for i := range in {
		in[i] = 1000
	}
	out := make([]int16, 160)
	d.process(in, out)
	d.process(in, out)
	for i, v := range out {
		if v != 1000 {
			t.Fatalf("out[%d] = %d, want 1000", i, v)
		}
	}

	d.reset()
	d.process(make([]int16, 480), out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("after reset out[%d] = %d, want 0", i, v)
		}
	}
}

func TestHalfBand_Silence(t *testing.T) {
	var h halfBand
	out := make([]int16, 80)
	h.process(make([]int16, 160), out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %d, want 0", i, v)
		}
	}
	if h.state != [2]int32{} {
		t.Errorf("state = %v, want zero", h.state)
	}
}
