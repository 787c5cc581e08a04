// internal/wavfile/reader.go
// Package wavfile reads mono 16-bit PCM WAV files as detector frames.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ColonelBlimp/govad/internal/vad"
)

var (
	ErrNotWAV        = errors.New("not a valid WAV file")
	ErrNotPCM        = errors.New("only PCM WAV files are supported")
	ErrNotMono       = errors.New("only mono WAV files are supported")
	ErrBitDepth      = errors.New("only 16-bit WAV files are supported")
	ErrFrameDuration = errors.New("frame duration must be 10, 20 or 30 ms")
)

const (
	wavFormatPCM     = 1
	readChunkSamples = 4096
	requiredBitDepth = 16
	requiredNumChans = 1
)

// Info describes the audio stream of an opened file.
type Info struct {
	SampleRate  vad.SampleRate
	FrameLength int
	Duration    time.Duration
}

// Reader yields fixed-length frames from a WAV stream.
type Reader struct {
	closer  io.Closer
	dec     *wav.Decoder
	info    Info
	buf     *audio.IntBuffer
	pending []int16
	eof     bool
	dropped int
}

// Open opens path and prepares it for frames of frameMs milliseconds.
func Open(path string, frameMs int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	r, err := NewReader(f, frameMs)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewReader decodes the header from rs and validates the stream format.
func NewReader(rs io.ReadSeeker, frameMs int) (*Reader, error) {
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotWAV, err)
		}
		return nil, ErrNotWAV
	}
	if int(dec.WavAudioFormat) != wavFormatPCM {
		return nil, fmt.Errorf("%w (format tag %d)", ErrNotPCM, dec.WavAudioFormat)
	}
	if int(dec.NumChans) != requiredNumChans {
		return nil, fmt.Errorf("%w (got %d channels)", ErrNotMono, dec.NumChans)
	}
	if int(dec.BitDepth) != requiredBitDepth {
		return nil, fmt.Errorf("%w (got %d-bit)", ErrBitDepth, dec.BitDepth)
	}
	rate, err := vad.ParseSampleRate(int(dec.SampleRate))
	if err != nil {
		return nil, err
	}
	frameLen := vad.FrameLength(rate, frameMs)
	if frameLen == 0 {
		return nil, fmt.Errorf("%w (got %d ms)", ErrFrameDuration, frameMs)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("seek to pcm data: %w", err)
	}
	samples := int64(dec.PCMSize) / (requiredBitDepth / 8)
	duration := time.Duration(samples) * time.Second / time.Duration(rate.Hz())

	return &Reader{
		dec: dec,
		info: Info{
			SampleRate:  rate,
			FrameLength: frameLen,
			Duration:    duration,
		},
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: int(dec.SampleRate)},
			Data:           make([]int, readChunkSamples),
			SourceBitDepth: requiredBitDepth,
		},
		pending: make([]int16, 0, readChunkSamples+frameLen),
	}, nil
}

// Info returns the stream description.
func (r *Reader) Info() Info {
	return r.info
}

// Next returns the next full frame, or io.EOF once fewer than one frame of
// samples remain. The remainder is discarded and counted by Dropped.
func (r *Reader) Next() ([]int16, error) {
	for len(r.pending) < r.info.FrameLength && !r.eof {
		if err := r.fill(); err != nil {
			return nil, err
		}
	}
	if len(r.pending) < r.info.FrameLength {
		r.dropped += len(r.pending)
		r.pending = r.pending[:0]
		return nil, io.EOF
	}

	frame := make([]int16, r.info.FrameLength)
	copy(frame, r.pending)
	r.pending = append(r.pending[:0], r.pending[r.info.FrameLength:]...)
	return frame, nil
}

func (r *Reader) fill() error {
	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read pcm: %w", err)
	}
	if n == 0 || errors.Is(err, io.EOF) {
		r.eof = true
	}
	for _, s := range r.buf.Data[:n] {
		r.pending = append(r.pending, int16(s))
	}
	return nil
}

// Dropped returns the number of trailing samples that did not fill a frame.
func (r *Reader) Dropped() int {
	return r.dropped
}

// Close closes the underlying file when the reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Write encodes samples as a mono 16-bit PCM WAV file.
func Write(w io.WriteSeeker, rate vad.SampleRate, samples []int16) error {
	enc := wav.NewEncoder(w, rate.Hz(), requiredBitDepth, requiredNumChans, wavFormatPCM)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: requiredNumChans, SampleRate: rate.Hz()},
		Data:           data,
		SourceBitDepth: requiredBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
