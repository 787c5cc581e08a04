// internal/audio/capture.go
// Package audio captures mono S16 audio from a device and delivers it as
// fixed-length frames.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/govad/internal/recovery"
)

var (
	ErrNotInitialized = errors.New("audio capture not initialized")
	ErrAlreadyRunning = errors.New("audio capture already running")
	ErrNotRunning     = errors.New("audio capture not running")
	ErrInvalidFrame   = errors.New("frame length must be positive")
)

// Config holds audio capture configuration
type Config struct {
	DeviceIndex int    // -1 for default device
	SampleRate  uint32 // one of the detector rates
	FrameLength uint32 // samples per frame, also the device period
}

// DefaultConfig returns 16 kHz capture with 20 ms frames.
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  16000,
		FrameLength: 320,
	}
}

// FrameCallback is called from the audio thread with each complete frame.
// Must be non-blocking and fast.
type FrameCallback func(frame []int16)

// DeviceInfo describes a capture device.
type DeviceInfo struct {
	Index     int
	Name      string
	IsDefault bool
}

// Capture handles real-time sampling from an audio device
type Capture struct {
	config      Config
	ctx         *malgo.AllocatedContext
	device      *malgo.Device
	framer      *Framer
	running     bool
	mu          sync.RWMutex
	callbackPtr atomic.Pointer[FrameCallback]
	closed      atomic.Bool
	closeOnce   sync.Once
	sendMu      sync.RWMutex // held for reading while sending on Frames
	dropped     atomic.Uint64

	// Frames receives every complete frame; frames are dropped when full
	Frames chan []int16
}

// New creates a new audio capture instance
func New(cfg Config) *Capture {
	return &Capture{
		config: cfg,
		framer: NewFramer(int(cfg.FrameLength)),
		Frames: make(chan []int16, 64),
	}
}

// SetCallback sets a callback for real-time frame processing; nil clears it.
func (c *Capture) SetCallback(cb FrameCallback) {
	if cb == nil {
		c.callbackPtr.Store(nil)
	} else {
		c.callbackPtr.Store(&cb)
	}
}

// Init initializes the audio backend
func (c *Capture) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	c.ctx = ctx
	return nil
}

// ListDevices returns available capture devices
func (c *Capture) ListDevices() ([]DeviceInfo, error) {
	infos, err := c.devices()
	if err != nil {
		return nil, err
	}
	out := make([]DeviceInfo, len(infos))
	for i, info := range infos {
		out[i] = DeviceInfo{Index: i, Name: info.Name(), IsDefault: info.IsDefault != 0}
	}
	return out, nil
}

func (c *Capture) devices() ([]malgo.DeviceInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// Start begins audio capture. Capture stops when ctx is cancelled.
func (c *Capture) Start(ctx context.Context) error {
	if c.config.FrameLength == 0 {
		return ErrInvalidFrame
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	if c.ctx == nil {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	c.mu.Unlock()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.SampleRate = c.config.SampleRate
	deviceConfig.PeriodSizeInFrames = c.config.FrameLength
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1

	if c.config.DeviceIndex >= 0 {
		devices, err := c.devices()
		if err != nil {
			return err
		}
		if c.config.DeviceIndex >= len(devices) {
			return fmt.Errorf("device index %d out of range (have %d devices)",
				c.config.DeviceIndex, len(devices))
		}
		deviceConfig.Capture.DeviceID = devices[c.config.DeviceIndex].ID.Pointer()
	}

	c.framer.Reset()
	onRecvFrames := func(_, inputSamples []byte, _ uint32) {
		if len(inputSamples) == 0 || c.closed.Load() {
			return
		}
		c.framer.Write(inputSamples, c.deliver)
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start device: %w", err)
	}

	c.mu.Lock()
	c.device = device
	c.running = true
	c.mu.Unlock()

	go func() {
		defer recovery.HandlePanicFunc(func() { _ = c.Close() })
		<-ctx.Done()
		_ = c.Stop()
	}()

	return nil
}

func (c *Capture) deliver(frame []int16) {
	if c.closed.Load() {
		return
	}
	if cb := c.callbackPtr.Load(); cb != nil {
		(*cb)(frame)
	}
	if !c.safeSend(frame) && !c.closed.Load() {
		c.dropped.Add(1)
	}
}

// safeSend performs a non-blocking send, reporting false when the frame was
// dropped or the capture is closed. Close cannot close Frames while a send
// holds sendMu.
func (c *Capture) safeSend(frame []int16) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed.Load() {
		return false
	}
	select {
	case c.Frames <- frame:
		return true
	default:
		return false
	}
}

// Dropped returns the number of frames discarded because Frames was full.
func (c *Capture) Dropped() uint64 {
	return c.dropped.Load()
}

// Stop stops audio capture
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return ErrNotRunning
	}
	c.stopDevice()
	return nil
}

func (c *Capture) stopDevice() {
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	c.running = false
}

// Close releases all audio resources. Further calls are no-ops.
func (c *Capture) Close() error {
	c.closed.Store(true)

	c.mu.Lock()
	c.stopDevice()
	var err error
	if c.ctx != nil {
		if uerr := c.ctx.Uninit(); uerr != nil {
			err = fmt.Errorf("uninit context: %w", uerr)
		}
		c.ctx.Free()
		c.ctx = nil
	}
	c.mu.Unlock()

	c.sendMu.Lock()
	c.closeOnce.Do(func() { close(c.Frames) })
	c.sendMu.Unlock()
	return err
}

// IsRunning returns true if capture is active
func (c *Capture) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}
