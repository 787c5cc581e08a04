// internal/vad/rate.go
package vad

import (
	"fmt"
	"time"
)

// SampleRate is one of the telephony rates the detector accepts.
type SampleRate int

const (
	Rate8k  SampleRate = 8000
	Rate16k SampleRate = 16000
	Rate32k SampleRate = 32000
	Rate48k SampleRate = 48000
)

// frameDurationsMs lists the legal frame durations in milliseconds.
var frameDurationsMs = [...]int{10, 20, 30}

// SupportedRates returns the accepted sample rates in ascending order.
func SupportedRates() []SampleRate {
	return []SampleRate{Rate8k, Rate16k, Rate32k, Rate48k}
}

// FrameDurations returns the legal frame durations.
func FrameDurations() []time.Duration {
	out := make([]time.Duration, len(frameDurationsMs))
	for i, ms := range frameDurationsMs {
		out[i] = time.Duration(ms) * time.Millisecond
	}
	return out
}

// Valid reports whether r is a supported rate.
func (r SampleRate) Valid() bool {
	switch r {
	case Rate8k, Rate16k, Rate32k, Rate48k:
		return true
	}
	return false
}

// Hz returns the rate as a plain integer.
func (r SampleRate) Hz() int {
	return int(r)
}

func (r SampleRate) String() string {
	return fmt.Sprintf("%d Hz", int(r))
}

// ParseSampleRate validates hz against the supported set.
func ParseSampleRate(hz int) (SampleRate, error) {
	r := SampleRate(hz)
	if !r.Valid() {
		return 0, fmt.Errorf("%w %d Hz (supported: 8000, 16000, 32000, 48000)", ErrUnsupportedSampleRate, hz)
	}
	return r, nil
}

// FrameLength returns the number of samples in a frame of ms milliseconds at rate.
// It returns 0 when either argument is not legal.
func FrameLength(rate SampleRate, ms int) int {
	if !rate.Valid() {
		return 0
	}
	for _, d := range frameDurationsMs {
		if d == ms {
			return int(rate) * ms / 1000
		}
	}
	return 0
}

// FrameLengths returns the three legal frame lengths at rate, shortest first.
func FrameLengths(rate SampleRate) []int {
	if !rate.Valid() {
		return nil
	}
	out := make([]int, len(frameDurationsMs))
	for i, ms := range frameDurationsMs {
		out[i] = int(rate) * ms / 1000
	}
	return out
}

// ValidFrameLength reports whether n samples is a 10, 20 or 30 ms frame at rate.
func ValidFrameLength(rate SampleRate, n int) bool {
	for _, l := range FrameLengths(rate) {
		if l == n {
			return true
		}
	}
	return false
}
