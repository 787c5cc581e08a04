// internal/segment/segmenter.go
// Package segment turns per-frame voice decisions into speech segments.
package segment

import (
	"errors"
	"sync/atomic"
	"time"
)

var (
	// ErrInvalidFrameDuration indicates the frame duration must be positive
	ErrInvalidFrameDuration = errors.New("frame duration must be positive")
	// ErrInvalidStartFrames indicates start frames must be at least one
	ErrInvalidStartFrames = errors.New("start frames must be at least 1")
	// ErrInvalidEndFrames indicates end frames must be at least one
	ErrInvalidEndFrames = errors.New("end frames must be at least 1")
)

// Event is emitted when speech starts or ends.
// Offset is stream time derived from the number of frames pushed, so the same
// input always produces the same events.
type Event struct {
	// Start is true when speech begins, false when it ends
	Start bool
	// Offset is the stream position of the first frame of the new state
	Offset time.Duration
	// Duration is the length of the segment that just ended (zero on Start)
	Duration time.Duration
}

// Callback receives segment events. It runs on the goroutine calling Push.
type Callback func(event Event)

// Segment is a completed stretch of speech.
type Segment struct {
	Start time.Duration
	End   time.Duration
}

// Duration returns End - Start.
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// Config holds segmenter settings.
type Config struct {
	// FrameDuration is the duration of one classified frame
	FrameDuration time.Duration
	// StartFrames is the run of voice frames needed to open a segment
	StartFrames int
	// EndFrames is the run of non-voice frames needed to close it
	EndFrames int
}

// Segmenter debounces voice decisions. A run of StartFrames voice frames opens
// a segment at the first frame of the run, a run of EndFrames silent frames
// closes it at the first silent frame.
type Segmenter struct {
	config Config

	active       bool
	pendingCount int
	pendingSince int64 // frame index where the pending run began
	segmentStart int64
	frame        int64

	segments []Segment

	callbackPtr atomic.Pointer[Callback]
}

// NewSegmenter validates cfg and returns an idle segmenter.
func NewSegmenter(cfg Config) (*Segmenter, error) {
	if cfg.FrameDuration <= 0 {
		return nil, ErrInvalidFrameDuration
	}
	if cfg.StartFrames < 1 {
		return nil, ErrInvalidStartFrames
	}
	if cfg.EndFrames < 1 {
		return nil, ErrInvalidEndFrames
	}
	return &Segmenter{config: cfg}, nil
}

// SetCallback sets the event callback; nil clears it.
func (s *Segmenter) SetCallback(cb Callback) {
	if cb == nil {
		s.callbackPtr.Store(nil)
	} else {
		s.callbackPtr.Store(&cb)
	}
}

// Push records the decision for the next frame.
func (s *Segmenter) Push(voice bool) {
	idx := s.frame
	s.frame++

	if voice == s.active {
		s.pendingCount = 0
		return
	}

	if s.pendingCount == 0 {
		s.pendingSince = idx
	}
	s.pendingCount++

	need := s.config.StartFrames
	if s.active {
		need = s.config.EndFrames
	}
	if s.pendingCount < need {
		return
	}

	s.pendingCount = 0
	if !s.active {
		s.active = true
		s.segmentStart = s.pendingSince
		s.emit(Event{Start: true, Offset: s.at(s.pendingSince)})
		return
	}
	s.close(s.pendingSince)
}

// Flush closes an open segment at the current stream position.
func (s *Segmenter) Flush() {
	if !s.active {
		return
	}
	end := s.frame
	if s.pendingCount > 0 {
		end = s.pendingSince
	}
	s.pendingCount = 0
	s.close(end)
}

func (s *Segmenter) close(endFrame int64) {
	seg := Segment{Start: s.at(s.segmentStart), End: s.at(endFrame)}
	s.active = false
	s.segments = append(s.segments, seg)
	s.emit(Event{Start: false, Offset: seg.End, Duration: seg.Duration()})
}

func (s *Segmenter) at(frame int64) time.Duration {
	return time.Duration(frame) * s.config.FrameDuration
}

func (s *Segmenter) emit(event Event) {
	if cb := s.callbackPtr.Load(); cb != nil {
		(*cb)(event)
	}
}

// Active reports whether a segment is open.
func (s *Segmenter) Active() bool {
	return s.active
}

// Position returns the stream time of the frames pushed so far.
func (s *Segmenter) Position() time.Duration {
	return s.at(s.frame)
}

// Segments returns the completed segments.
func (s *Segmenter) Segments() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Reset discards all state and completed segments.
func (s *Segmenter) Reset() {
	s.active = false
	s.pendingCount = 0
	s.pendingSince = 0
	s.segmentStart = 0
	s.frame = 0
	s.segments = nil
}

// Config returns the current configuration.
func (s *Segmenter) Config() Config {
	return s.config
}
