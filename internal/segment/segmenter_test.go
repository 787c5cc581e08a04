package segment

import (
	"testing"
	"time"
)

const frame = 20 * time.Millisecond

func newTestSegmenter(t *testing.T, start, end int) *Segmenter {
	t.Helper()
	s, err := NewSegmenter(Config{FrameDuration: frame, StartFrames: start, EndFrames: end})
	if err != nil {
		t.Fatalf("NewSegmenter failed: %v", err)
	}
	return s
}

func pushAll(s *Segmenter, pattern string) {
	for _, c := range pattern {
		s.Push(c == '1')
	}
}

func TestNewSegmenter_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero duration", Config{FrameDuration: 0, StartFrames: 1, EndFrames: 1}, ErrInvalidFrameDuration},
		{"zero start", Config{FrameDuration: frame, StartFrames: 0, EndFrames: 1}, ErrInvalidStartFrames},
		{"negative end", Config{FrameDuration: frame, StartFrames: 1, EndFrames: -1}, ErrInvalidEndFrames},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSegmenter(tc.cfg)
			if err != tc.want {
				t.Errorf("expected %v, got: %v", tc.want, err)
			}
		})
	}
}

func TestSegmenter_OpensAndCloses(t *testing.T) {
	s := newTestSegmenter(t, 3, 4)

	var events []Event
	s.SetCallback(func(e Event) { events = append(events, e) })

	// Frames 2..9 voice, then silence.
	pushAll(s, "0011111111000000")

	if s.Active() {
		t.Fatal("segment still open after four silent frames")
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if !events[0].Start || events[0].Offset != 2*frame {
		t.Errorf("start event = %+v, want offset %v", events[0], 2*frame)
	}
	if events[1].Start || events[1].Offset != 10*frame || events[1].Duration != 8*frame {
		t.Errorf("end event = %+v", events[1])
	}

	segs := s.Segments()
	if len(segs) != 1 || segs[0].Start != 2*frame || segs[0].End != 10*frame {
		t.Errorf("Segments() = %+v", segs)
	}
}

func TestSegmenter_IgnoresShortBursts(t *testing.T) {
	s := newTestSegmenter(t, 3, 2)
	pushAll(s, "0110110100")

	if s.Active() || len(s.Segments()) != 0 {
		t.Errorf("short bursts opened a segment: %+v", s.Segments())
	}
}

func TestSegmenter_BridgesShortGaps(t *testing.T) {
	s := newTestSegmenter(t, 1, 3)
	pushAll(s, "1110011000")

	segs := s.Segments()
	if len(segs) != 1 {
		t.Fatalf("Segments() = %+v, want one", segs)
	}
	if segs[0].Start != 0 || segs[0].End != 7*frame {
		t.Errorf("segment = %+v", segs[0])
	}
}

func TestSegmenter_Flush(t *testing.T) {
	s := newTestSegmenter(t, 1, 5)
	pushAll(s, "01111")
	if !s.Active() {
		t.Fatal("segment not open")
	}
	s.Flush()
	if s.Active() {
		t.Error("Flush left the segment open")
	}
	segs := s.Segments()
	if len(segs) != 1 || segs[0].Start != frame || segs[0].End != 5*frame {
		t.Errorf("Segments() = %+v", segs)
	}

	// Flush with trailing silence ends at the first silent frame.
	s.Reset()
	pushAll(s, "1100")
	s.Flush()
	segs = s.Segments()
	if len(segs) != 1 || segs[0].End != 2*frame {
		t.Errorf("Segments() after trailing silence = %+v", segs)
	}

	// Flush when idle does nothing.
	s.Flush()
	if len(s.Segments()) != 1 {
		t.Error("idle Flush added a segment")
	}
}

func TestSegmenter_Reset(t *testing.T) {
	s := newTestSegmenter(t, 1, 1)
	pushAll(s, "110011")
	s.Reset()

	if s.Active() || s.Position() != 0 || len(s.Segments()) != 0 {
		t.Errorf("Reset left state: active=%v position=%v segments=%v",
			s.Active(), s.Position(), s.Segments())
	}
}

func TestSegmenter_NilCallback(t *testing.T) {
	s := newTestSegmenter(t, 1, 1)
	called := false
	s.SetCallback(func(Event) { called = true })
	s.SetCallback(nil)
	pushAll(s, "101")
	if called {
		t.Error("callback invoked after being cleared")
	}
}

func TestSegment_Duration(t *testing.T) {
	seg := Segment{Start: time.Second, End: 3 * time.Second}
	if seg.Duration() != 2*time.Second {
		t.Errorf("Duration() = %v", seg.Duration())
	}
}
