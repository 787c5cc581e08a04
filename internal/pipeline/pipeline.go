// internal/pipeline/pipeline.go
// Package pipeline feeds frames from a source through a detector and a
// segmenter.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ColonelBlimp/govad/internal/segment"
	"github.com/ColonelBlimp/govad/internal/vad"
)

// Source yields frames until it returns io.EOF.
type Source interface {
	Next() ([]int16, error)
}

// Result is the decision for one frame.
type Result struct {
	Index  int
	Offset time.Duration
	Voice  bool
}

// Summary describes a completed run.
type Summary struct {
	Frames      int
	VoiceFrames int
	Duration    time.Duration
	Segments    []segment.Segment
}

// VoiceRatio returns the fraction of frames classified as voice.
func (s Summary) VoiceRatio() float64 {
	if s.Frames == 0 {
		return 0
	}
	return float64(s.VoiceFrames) / float64(s.Frames)
}

// Pipeline owns nothing; the caller closes the detector.
type Pipeline struct {
	detector  *vad.Detector
	segmenter *segment.Segmenter
	logger    *slog.Logger
	onFrame   func(Result)
	frameDur  time.Duration
}

// New wires a detector to a segmenter. A nil logger discards output.
func New(det *vad.Detector, seg *segment.Segmenter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		detector:  det,
		segmenter: seg,
		logger:    logger,
		frameDur:  seg.Config().FrameDuration,
	}
}

// OnFrame registers fn to receive every frame decision. Set before Run.
func (p *Pipeline) OnFrame(fn func(Result)) {
	p.onFrame = fn
}

// Run classifies frames until the source is exhausted or ctx is done. An open
// segment is closed at the end of the stream. The summary is valid even when
// an error is returned.
func (p *Pipeline) Run(ctx context.Context, src Source) (Summary, error) {
	var sum Summary
	var runErr error

	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			runErr = fmt.Errorf("read frame %d: %w", sum.Frames, err)
			break
		}

		voice, err := p.detector.Classify(frame)
		if err != nil {
			runErr = fmt.Errorf("frame %d: %w", sum.Frames, err)
			break
		}

		res := Result{Index: sum.Frames, Offset: time.Duration(sum.Frames) * p.frameDur, Voice: voice}
		sum.Frames++
		if voice {
			sum.VoiceFrames++
		}
		p.segmenter.Push(voice)
		if p.onFrame != nil {
			p.onFrame(res)
		}
	}

	p.segmenter.Flush()
	sum.Duration = time.Duration(sum.Frames) * p.frameDur
	sum.Segments = p.segmenter.Segments()

	p.logger.Debug("pipeline finished",
		"frames", sum.Frames,
		"voice_frames", sum.VoiceFrames,
		"segments", len(sum.Segments),
		"error", runErr)
	return sum, runErr
}

// ChannelSource adapts a frame channel to Source. It returns io.EOF when the
// channel is closed and ctx.Err() when ctx is done.
type ChannelSource struct {
	ctx    context.Context
	frames <-chan []int16
}

// NewChannelSource returns a Source reading from frames.
func NewChannelSource(ctx context.Context, frames <-chan []int16) *ChannelSource {
	return &ChannelSource{ctx: ctx, frames: frames}
}

// Next blocks until a frame arrives.
func (s *ChannelSource) Next() ([]int16, error) {
	select {
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	case frame, ok := <-s.frames:
		if !ok {
			return nil, io.EOF
		}
		return frame, nil
	}
}
