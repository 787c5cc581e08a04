// internal/vad/detector.go
// Package vad implements a frame based voice activity detector for 16-bit
// linear PCM at 8, 16, 32 and 48 kHz.
//
// Each frame is reduced to 8 kHz, split into six sub-bands whose log energies
// are scored against adaptive two-Gaussian noise and speech models. A frame is
// voice when any band or the weighted sum of all bands passes the threshold of
// the current Mode. The models adapt on every frame, so a decision depends on
// the whole history fed to the Detector.
//
// A Detector is owned by one goroutine at a time; it has no internal locking.
package vad

// Detector classifies audio frames as voice or non-voice.
type Detector struct {
	rate   SampleRate
	mode   Mode
	core   *core
	frames uint64
}

// New creates a detector for the given sample rate. An unsupported rate is a
// *ConfigError. A mode outside the four defined values falls back to
// ModeQuality.
func New(sampleRate int, mode Mode) (*Detector, error) {
	rate, err := ParseSampleRate(sampleRate)
	if err != nil {
		return nil, &ConfigError{Op: "create", SampleRate: sampleRate, Err: err}
	}
	mode = ModeFromCode(int(mode))
	return &Detector{
		rate: rate,
		mode: mode,
		core: newCore(mode),
	}, nil
}

func (d *Detector) ready(op string) error {
	if d == nil || d.core == nil {
		return &StateError{Op: op, Err: ErrClosed}
	}
	return nil
}

// SetMode changes the aggressiveness. The adaptive statistics are kept.
// A mode outside the defined values falls back to ModeQuality.
func (d *Detector) SetMode(mode Mode) error {
	if err := d.ready("set mode"); err != nil {
		return err
	}
	d.mode = ModeFromCode(int(mode))
	d.core.setMode(d.mode)
	return nil
}

// SetSampleRate switches to a new rate. The statistics gathered at the old rate
// do not carry over, so a change resets the detector; setting the current rate
// again does nothing.
func (d *Detector) SetSampleRate(sampleRate int) error {
	if err := d.ready("set sample rate"); err != nil {
		return err
	}
	rate, err := ParseSampleRate(sampleRate)
	if err != nil {
		return &ConfigError{Op: "set sample rate", SampleRate: sampleRate, Err: err}
	}
	if rate == d.rate {
		return nil
	}
	d.rate = rate
	d.core.reset(d.mode)
	d.frames = 0
	return nil
}

// Reset returns the detector to its freshly created state, keeping the sample
// rate and mode.
func (d *Detector) Reset() error {
	if err := d.ready("reset"); err != nil {
		return err
	}
	d.core.reset(d.mode)
	d.frames = 0
	return nil
}

// Classify reports whether frame carries voice. The frame must hold exactly 10,
// 20 or 30 ms of samples at the configured rate; any other length is a
// *FrameError and leaves the detector untouched.
func (d *Detector) Classify(frame []int16) (bool, error) {
	if err := d.ready("classify"); err != nil {
		return false, err
	}
	if !ValidFrameLength(d.rate, len(frame)) {
		return false, &FrameError{Op: "classify", Length: len(frame), SampleRate: d.rate, Err: ErrInvalidFrameLength}
	}
	v := d.core.process(d.rate, frame)
	if v < 0 {
		return false, &ClassificationError{Op: "classify", Err: ErrCorruptState}
	}
	d.frames++
	return v > 0, nil
}

// Close releases the detector state. Every later call, including a second
// Close, fails with a *StateError.
func (d *Detector) Close() error {
	if err := d.ready("close"); err != nil {
		return err
	}
	d.core = nil
	return nil
}

// Closed reports whether Close has been called.
func (d *Detector) Closed() bool {
	return d == nil || d.core == nil
}

// SampleRate returns the configured rate.
func (d *Detector) SampleRate() SampleRate {
	return d.rate
}

// Mode returns the configured aggressiveness.
func (d *Detector) Mode() Mode {
	return d.mode
}

// Frames returns the number of frames classified since creation or the last
// reset.
func (d *Detector) Frames() uint64 {
	return d.frames
}
