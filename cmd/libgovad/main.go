//go:build cgo

// cmd/libgovad/main.go
// Command libgovad exports the detector registry as a C shared library:
//
//	go build -buildmode=c-shared -o libgovad.so ./cmd/libgovad
//
// Every call takes or returns an opaque int64 handle. Failures return a
// negative status and, when msg is non-nil, write a NUL-terminated message of
// at most msgLen bytes into it.
package main

import "C"

import (
	"errors"
	"log/slog"
	"os"
	"unsafe"

	"github.com/ColonelBlimp/govad/internal/host"
	"github.com/ColonelBlimp/govad/internal/recovery"
	"github.com/ColonelBlimp/govad/internal/vad"
)

// Status codes returned across the boundary.
const (
	statusOK             = 0
	statusConfig         = -1
	statusFrame          = -2
	statusState          = -3
	statusClassification = -4
	statusInternal       = -5
)

var registry = host.NewRegistry(newLogger())

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("GOVAD_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("app", "libgovad")
}

func main() {}

// statusFor maps an error to its status code and writes its message.
func statusFor(err error, msg unsafe.Pointer, msgLen int32) int32 {
	if err == nil {
		return statusOK
	}
	writeMessage(msg, msgLen, err.Error())

	var (
		cerr *vad.ConfigError
		ferr *vad.FrameError
		serr *vad.StateError
		kerr *vad.ClassificationError
	)
	switch {
	case errors.As(err, &cerr):
		return statusConfig
	case errors.As(err, &ferr):
		return statusFrame
	case errors.As(err, &serr):
		return statusState
	case errors.As(err, &kerr):
		return statusClassification
	}
	return statusInternal
}

func writeMessage(msg unsafe.Pointer, msgLen int32, text string) {
	if msg == nil || msgLen <= 0 {
		return
	}
	buf := unsafe.Slice((*byte)(msg), msgLen)
	n := copy(buf[:msgLen-1], text)
	buf[n] = 0
}

//export govad_create
func govad_create(sampleRate, mode int32, msg unsafe.Pointer, msgLen int32) (handle int64) {
	var err error
	defer func() {
		if err != nil {
			handle = int64(statusFor(err, msg, msgLen))
		}
	}()
	defer recovery.ToError("create", &err)

	h, cerr := registry.Create(int(sampleRate), int(mode))
	if cerr != nil {
		err = cerr
		return 0
	}
	return int64(h)
}

//export govad_reset
func govad_reset(handle int64, msg unsafe.Pointer, msgLen int32) int32 {
	return statusFor(registry.Reset(host.Handle(handle)), msg, msgLen)
}

//export govad_close
func govad_close(handle int64, msg unsafe.Pointer, msgLen int32) int32 {
	return statusFor(registry.Close(host.Handle(handle)), msg, msgLen)
}

//export govad_set_mode
func govad_set_mode(handle int64, mode int32, msg unsafe.Pointer, msgLen int32) int32 {
	return statusFor(registry.SetMode(host.Handle(handle), int(mode)), msg, msgLen)
}

//export govad_set_sample_rate
func govad_set_sample_rate(handle int64, sampleRate int32, msg unsafe.Pointer, msgLen int32) int32 {
	return statusFor(registry.SetSampleRate(host.Handle(handle), int(sampleRate)), msg, msgLen)
}

// govad_is_voice_segment returns 1 for voice, 0 for non-voice and a negative
// status on failure. samples must point to n 16-bit samples.
//
//export govad_is_voice_segment
func govad_is_voice_segment(handle int64, samples unsafe.Pointer, n int32, msg unsafe.Pointer, msgLen int32) int32 {
	var frame []int16
	if samples != nil && n > 0 {
		frame = unsafe.Slice((*int16)(samples), n)
	}
	voice, err := registry.IsVoiceSegment(host.Handle(handle), frame)
	if err != nil {
		return statusFor(err, msg, msgLen)
	}
	if voice {
		return 1
	}
	return 0
}

// govad_is_open returns 1 while handle refers to a live detector.
//
//export govad_is_open
func govad_is_open(handle int64) int32 {
	if registry.Open(host.Handle(handle)) {
		return 1
	}
	return 0
}
