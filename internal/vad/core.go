// internal/vad/core.go
package vad

const initCheck = 42

// core is the complete per-detector state: the rate converters feeding the
// 8 kHz analysis, the filter bank memories and the adaptive model.
type core struct {
	// Stage one takes 32 kHz to 16 kHz, stage two 16 kHz to 8 kHz.
	stage1 halfBand
	stage2 halfBand
	dec48  *decimator3

	bank  filterBank
	gmm   model
	vad   int16
	check int

	wide   [480]int16 // 16 kHz scratch
	narrow [240]int16 // 8 kHz scratch
}

func newCore(mode Mode) *core {
	c := &core{dec48: newDecimator3(FrameLength(Rate48k, 30))}
	c.reset(mode)
	return c
}

// reset restores the initial model and filter memories and applies mode.
func (c *core) reset(mode Mode) {
	c.stage1.reset()
	c.stage2.reset()
	c.dec48.reset()
	c.bank.reset()
	c.gmm.reset()
	c.vad = 1
	c.setMode(mode)
	c.check = initCheck
}

func (c *core) setMode(mode Mode) {
	c.gmm.th = modeThresholds[ModeFromCode(int(mode))]
}

// process classifies a frame whose length has already been validated for rate.
// It returns a negative value if the state fails its integrity check.
func (c *core) process(rate SampleRate, frame []int16) int16 {
	if c.check != initCheck {
		return -1
	}
	var nb []int16
	switch rate {
	case Rate8k:
		nb = frame
	case Rate16k:
		nb = c.narrow[:len(frame)/2]
		c.stage2.process(frame, nb)
	case Rate32k:
		wb := c.wide[:len(frame)/2]
		c.stage1.process(frame, wb)
		nb = c.narrow[:len(wb)/2]
		c.stage2.process(wb, nb)
	case Rate48k:
		wb := c.wide[:len(frame)/decimateFactor]
		c.dec48.process(frame, wb)
		nb = c.narrow[:len(wb)/2]
		c.stage2.process(wb, nb)
	default:
		return -1
	}

	var features [numChannels]int16
	total := c.bank.features(nb, &features)
	c.vad = c.gmm.decide(&features, total, len(nb))
	return c.vad
}
