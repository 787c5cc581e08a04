// internal/vad/filterbank.go
package vad

const (
	numChannels  = 6
	numGaussians = 2
	tableSize    = numChannels * numGaussians

	// minEnergy is the total frame energy below which the models are left alone.
	minEnergy = 10

	logConst         = 24660 // 160*log10(2) in Q9
	logEnergyIntPart = 14336 // 14 in Q10
)

var (
	// High pass coefficients in Q14, 80 Hz cut-off at 500 Hz.
	hpZeroCoefs = [3]int32{6631, -13262, 6631}
	hpPoleCoefs = [3]int32{16384, -7756, 5620}

	// All-pass coefficients in Q15, upper 0.64 and lower 0.17.
	allPassCoefsQ15 = [2]int32{20972, 5571}

	// Per-band compensation for the halving done in each split.
	offsetVector = [numChannels]int16{368, 368, 272, 176, 176, 176}
)

// filterBank holds the split and high-pass filter memories of one detector.
type filterBank struct {
	upperState [5]int16
	lowerState [5]int16
	hpState    [4]int16

	hp120, lp120 [120]int16
	hp60, lp60   [60]int16
}

func (fb *filterBank) reset() {
	fb.upperState = [5]int16{}
	fb.lowerState = [5]int16{}
	fb.hpState = [4]int16{}
}

// highPass removes 0-80 Hz from the lowest band.
func highPass(in []int16, state *[4]int16, out []int16) {
	for i, x := range in {
		tmp := hpZeroCoefs[0] * int32(x)
		tmp += hpZeroCoefs[1] * int32(state[0])
		tmp += hpZeroCoefs[2] * int32(state[1])
		state[1] = state[0]
		state[0] = x

		tmp -= hpPoleCoefs[1] * int32(state[2])
		tmp -= hpPoleCoefs[2] * int32(state[3])
		state[3] = state[2]
		state[2] = int16(tmp >> 14)
		out[i] = state[2]
	}
}

// allPass filters every second sample of in, starting at in[0], into out.
func allPass(in []int16, n int, coef int32, state *int16, out []int16) {
	state32 := int32(*state) << 16 // Q15
	for i := 0; i < n; i++ {
		x := int32(in[2*i])
		tmp32 := state32 + coef*x
		tmp16 := int16(tmp32 >> 16) // Q(-1)
		out[i] = tmp16
		state32 = (x << 14) - coef*int32(tmp16) // Q14
		state32 *= 2
	}
	*state = int16(state32 >> 16)
}

// split decimates in by two into an upper and a lower half band.
func split(in []int16, upper, lower *int16, hpOut, lpOut []int16) {
	half := len(in) >> 1
	allPass(in, half, allPassCoefsQ15[0], upper, hpOut)
	allPass(in[1:], half, allPassCoefsQ15[1], lower, lpOut)
	for i := 0; i < half; i++ {
		tmp := hpOut[i]
		hpOut[i] -= lpOut[i]
		lpOut[i] += tmp
	}
}

// logEnergy returns the band energy in dB (Q4) plus offset and accumulates a
// coarse total energy until it passes minEnergy.
func logEnergy(in []int16, offset int16, total *int16) int16 {
	en, totRShifts := energy(in)
	if en == 0 {
		return offset
	}
	e := uint32(en)

	normRShifts := 17 - int(normU32(e))
	totRShifts += normRShifts
	if normRShifts < 0 {
		e <<= uint(-normRShifts)
	} else {
		e >>= uint(normRShifts)
	}

	log2Energy := int16(logEnergyIntPart) + int16((e&0x3FFF)>>4)
	out := int16(((logConst * int32(log2Energy)) >> 19) + ((int32(totRShifts) * logConst) >> 9))
	if out < 0 {
		out = 0
	}
	out += offset

	if *total <= minEnergy {
		if totRShifts >= 0 {
			*total += minEnergy + 1
		} else {
			*total += int16(e >> uint(-totRShifts))
		}
	}
	return out
}

// features splits an 8 kHz frame of 80, 160 or 240 samples into six bands and
// writes their log energies into out. It returns the coarse total energy.
func (fb *filterBank) features(in []int16, out *[numChannels]int16) int16 {
	var total int16
	half := len(in) >> 1

	// 0-4000 Hz into 2000-4000 (hp120) and 0-2000 (lp120).
	split(in, &fb.upperState[0], &fb.lowerState[0], fb.hp120[:half], fb.lp120[:half])

	// 2000-4000 into 3000-4000 (hp60) and 2000-3000 (lp60).
	split(fb.hp120[:half], &fb.upperState[1], &fb.lowerState[1], fb.hp60[:half/2], fb.lp60[:half/2])
	quarter := half >> 1
	out[5] = logEnergy(fb.hp60[:quarter], offsetVector[5], &total)
	out[4] = logEnergy(fb.lp60[:quarter], offsetVector[4], &total)

	// 0-2000 into 1000-2000 (hp60) and 0-1000 (lp60).
	split(fb.lp120[:half], &fb.upperState[2], &fb.lowerState[2], fb.hp60[:quarter], fb.lp60[:quarter])
	out[3] = logEnergy(fb.hp60[:quarter], offsetVector[3], &total)

	// 0-1000 into 500-1000 (hp120) and 0-500 (lp120).
	eighth := quarter >> 1
	split(fb.lp60[:quarter], &fb.upperState[3], &fb.lowerState[3], fb.hp120[:eighth], fb.lp120[:eighth])
	out[2] = logEnergy(fb.hp120[:eighth], offsetVector[2], &total)

	// 0-500 into 250-500 (hp60) and 0-250 (lp60).
	sixteenth := eighth >> 1
	split(fb.lp120[:eighth], &fb.upperState[4], &fb.lowerState[4], fb.hp60[:sixteenth], fb.lp60[:sixteenth])
	out[1] = logEnergy(fb.hp60[:sixteenth], offsetVector[1], &total)

	// 80-250 Hz.
	highPass(fb.lp60[:sixteenth], &fb.hpState, fb.hp120[:sixteenth])
	out[0] = logEnergy(fb.hp120[:sixteenth], offsetVector[0], &total)

	return total
}
