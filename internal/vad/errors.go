// internal/vad/errors.go
package vad

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedSampleRate indicates a rate outside 8000/16000/32000/48000 Hz
	ErrUnsupportedSampleRate = errors.New("unsupported sample rate")
	// ErrInvalidFrameLength indicates a frame that is not 10, 20 or 30 ms long
	ErrInvalidFrameLength = errors.New("invalid frame length")
	// ErrClosed indicates use of a detector after Close
	ErrClosed = errors.New("detector is closed")
	// ErrCorruptState indicates the internal model failed its integrity check
	ErrCorruptState = errors.New("detector state is corrupt")
)

// ConfigError reports an unsupported sample rate at construction or reconfiguration.
type ConfigError struct {
	Op         string
	SampleRate int
	Err        error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("vad %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FrameError reports a frame whose length is not legal at the configured rate.
type FrameError struct {
	Op         string
	Length     int
	SampleRate SampleRate
	Err        error
}

func (e *FrameError) Error() string {
	lengths := FrameLengths(e.SampleRate)
	want := make([]string, len(lengths))
	for i, l := range lengths {
		want[i] = fmt.Sprint(l)
	}
	return fmt.Sprintf("vad %s: %v: %d samples at %v (want %s)",
		e.Op, e.Err, e.Length, e.SampleRate, strings.Join(want, ", "))
}

func (e *FrameError) Unwrap() error { return e.Err }

// StateError reports an operation on a closed or never-created detector.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("vad %s: %v", e.Op, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

// ClassificationError reports that no decision could be produced for a frame.
// It is never returned for a valid non-voice frame.
type ClassificationError struct {
	Op  string
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("vad %s: %v", e.Op, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }
