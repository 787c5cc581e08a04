// internal/host/registry.go
// Package host exposes detectors to callers that can only hold an integer
// token, such as a foreign-function boundary. Detectors live in a registry
// and are addressed by opaque handles; no memory address is ever handed out.
package host

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ColonelBlimp/govad/internal/recovery"
	"github.com/ColonelBlimp/govad/internal/vad"
)

// Handle identifies a detector owned by a Registry. Zero is never issued.
type Handle int64

// Operation messages used as the component part of *Error.
const (
	opCreate        = "failed to create VAD instance"
	opLookup        = "failed to find VAD instance"
	opReset         = "failed to reset VAD instance"
	opClose         = "failed to close VAD instance"
	opSetMode       = "failed to set VAD mode"
	opSetSampleRate = "failed to set VAD sample rate"
	opClassify      = "failed to calculate VAD"
)

// Error is returned by every Registry operation that fails.
type Error struct {
	Op     string
	Handle Handle
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type entry struct {
	mu       sync.Mutex
	detector *vad.Detector
}

// Registry maps handles to detectors. It is safe for concurrent use; calls on
// the same handle are serialized.
type Registry struct {
	mu      sync.RWMutex
	entries map[Handle]*entry
	next    Handle
	logger  *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		entries: make(map[Handle]*entry),
		logger:  logger,
	}
}

// Create builds a detector and returns its handle. Unknown mode codes fall
// back to the quality mode.
func (r *Registry) Create(sampleRateHz, modeCode int) (Handle, error) {
	mode := vad.ModeFromCode(modeCode)
	d, err := vad.New(sampleRateHz, mode)
	if err != nil {
		r.logger.Warn("create rejected", "sample_rate", sampleRateHz, "mode", modeCode, "error", err)
		return 0, &Error{Op: opCreate, Err: err}
	}

	r.mu.Lock()
	r.next++
	h := r.next
	r.entries[h] = &entry{detector: d}
	r.mu.Unlock()

	r.logger.Debug("detector created", "handle", h, "sample_rate", sampleRateHz, "mode", mode.String())
	return h, nil
}

func (r *Registry) lookup(h Handle) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[h]
	r.mu.RUnlock()
	if !ok {
		return nil, &Error{Op: opLookup, Handle: h, Err: &vad.StateError{Op: "lookup", Err: vad.ErrClosed}}
	}
	return e, nil
}

// with runs fn on the detector behind h while holding its entry lock.
// A panic inside fn is returned as an error.
func (r *Registry) with(h Handle, op string, fn func(d *vad.Detector) error) error {
	e, err := r.lookup(h)
	if err != nil {
		return err
	}
	if err := e.call(op, fn); err != nil {
		r.logger.Debug("operation failed", "handle", h, "op", op, "error", err)
		return &Error{Op: op, Handle: h, Err: err}
	}
	return nil
}

func (e *entry) call(op string, fn func(d *vad.Detector) error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recovery.ToError(op, &err)
	return fn(e.detector)
}

// Reset restores the detector to its freshly created state.
func (r *Registry) Reset(h Handle) error {
	return r.with(h, opReset, (*vad.Detector).Reset)
}

// SetMode changes the aggressiveness mode of the detector.
func (r *Registry) SetMode(h Handle, modeCode int) error {
	return r.with(h, opSetMode, func(d *vad.Detector) error {
		return d.SetMode(vad.ModeFromCode(modeCode))
	})
}

// SetSampleRate changes the input rate of the detector.
func (r *Registry) SetSampleRate(h Handle, sampleRateHz int) error {
	return r.with(h, opSetSampleRate, func(d *vad.Detector) error {
		return d.SetSampleRate(sampleRateHz)
	})
}

// IsVoiceSegment classifies one frame.
func (r *Registry) IsVoiceSegment(h Handle, samples []int16) (bool, error) {
	var voice bool
	err := r.with(h, opClassify, func(d *vad.Detector) error {
		var err error
		voice, err = d.Classify(samples)
		return err
	})
	return voice, err
}

// Close destroys the detector and releases its handle. Closing a handle twice
// fails.
func (r *Registry) Close(h Handle) error {
	r.mu.Lock()
	e, ok := r.entries[h]
	delete(r.entries, h)
	r.mu.Unlock()
	if !ok {
		return &Error{Op: opClose, Handle: h, Err: &vad.StateError{Op: "close", Err: vad.ErrClosed}}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.detector.Close(); err != nil {
		return &Error{Op: opClose, Handle: h, Err: err}
	}
	r.logger.Debug("detector closed", "handle", h, "frames", e.detector.Frames())
	return nil
}

// CloseAll destroys every detector still registered.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[Handle]*entry)
	r.mu.Unlock()

	for h, e := range entries {
		e.mu.Lock()
		err := e.detector.Close()
		frames := e.detector.Frames()
		e.mu.Unlock()
		if err != nil {
			r.logger.Debug("close failed", "handle", h, "error", err)
			continue
		}
		r.logger.Debug("detector closed", "handle", h, "frames", frames)
	}
}

// Len returns the number of open handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Open reports whether h refers to a live detector.
func (r *Registry) Open(h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[h]
	return ok
}
