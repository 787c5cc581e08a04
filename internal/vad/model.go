// internal/vad/model.go
package vad

const (
	noiseUpdateConst  = 655  // Q15
	speechUpdateConst = 6554 // Q15
	backEta           = 154  // Q8

	// maxSpeechFrames caps the run of consecutive speech frames that extends
	// the overhang.
	maxSpeechFrames = 6
	minStd          = 384

	smoothingDown = 6553  // 0.2 in Q15
	smoothingUp   = 32439 // 0.99 in Q15

	// Capacity and maximum age of the per-band minimum history.
	minHistory = 16
	maxAge     = 100
)

var (
	spectrumWeight    = [numChannels]int16{6, 8, 10, 12, 14, 16}
	minimumDifference = [numChannels]int16{544, 544, 576, 576, 576, 576}
	maximumSpeech     = [numChannels]int16{11392, 11392, 11520, 11520, 11520, 11520}
	maximumNoise      = [numChannels]int16{9216, 9088, 8960, 8832, 8704, 8576}
	minimumMean       = [numGaussians]int16{640, 768}

	// Initial model parameters, laid out as [gaussian*numChannels + channel].
	noiseDataWeights  = [tableSize]int16{34, 62, 72, 66, 53, 25, 94, 66, 56, 62, 75, 103}
	speechDataWeights = [tableSize]int16{48, 82, 45, 87, 50, 47, 80, 46, 83, 41, 78, 81}
	noiseDataMeans    = [tableSize]int16{6738, 4892, 7065, 6715, 6771, 3369, 7646, 3863, 7820, 7266, 5020, 4362}
	speechDataMeans   = [tableSize]int16{8306, 10085, 10078, 11823, 11843, 6309, 9473, 9571, 10879, 7581, 8180, 7483}
	noiseDataStds     = [tableSize]int16{378, 1064, 493, 582, 688, 593, 474, 697, 475, 688, 421, 455}
	speechDataStds    = [tableSize]int16{555, 505, 567, 524, 585, 1231, 509, 828, 492, 1540, 1079, 850}
)

// thresholds are the decision constants of one mode, indexed by frame
// duration (10, 20, 30 ms).
type thresholds struct {
	overHangMax1 [3]int16
	overHangMax2 [3]int16
	individual   [3]int16
	total        [3]int16
}

var modeThresholds = [...]thresholds{
	ModeQuality: {
		overHangMax1: [3]int16{8, 4, 3},
		overHangMax2: [3]int16{14, 7, 5},
		individual:   [3]int16{24, 21, 24},
		total:        [3]int16{57, 48, 57},
	},
	ModeLowBitrate: {
		overHangMax1: [3]int16{8, 4, 3},
		overHangMax2: [3]int16{14, 7, 5},
		individual:   [3]int16{37, 32, 37},
		total:        [3]int16{100, 80, 100},
	},
	ModeAggressive: {
		overHangMax1: [3]int16{6, 3, 2},
		overHangMax2: [3]int16{9, 5, 3},
		individual:   [3]int16{82, 78, 82},
		total:        [3]int16{285, 260, 285},
	},
	ModeVeryAggressive: {
		overHangMax1: [3]int16{6, 3, 2},
		overHangMax2: [3]int16{9, 5, 3},
		individual:   [3]int16{94, 94, 94},
		total:        [3]int16{1100, 1050, 1100},
	},
}

// model is the adaptive two-hypothesis GMM over the six band energies.
type model struct {
	noiseMeans  [tableSize]int16 // Q7
	speechMeans [tableSize]int16 // Q7
	noiseStds   [tableSize]int16 // Q7
	speechStds  [tableSize]int16 // Q7

	// Sixteen smallest features per band over the last hundred updates and
	// their ages, plus the smoothed median used for long-term correction.
	lowValues [minHistory * numChannels]int16
	ages      [minHistory * numChannels]int16
	meanValue [numChannels]int16

	frameCounter int32
	overHang     int16
	numOfSpeech  int16

	th thresholds
}

func (m *model) reset() {
	m.noiseMeans = noiseDataMeans
	m.speechMeans = speechDataMeans
	m.noiseStds = noiseDataStds
	m.speechStds = speechDataStds
	for i := range m.lowValues {
		m.lowValues[i] = 10000
		m.ages[i] = 0
	}
	for i := range m.meanValue {
		m.meanValue[i] = 1600
	}
	m.frameCounter = 0
	m.overHang = 0
	m.numOfSpeech = 0
}

// weightedAverage shifts both Gaussians of one band by offset and returns their
// weighted sum (Q14 for Q7 means).
func weightedAverage(means *[tableSize]int16, weights *[tableSize]int16, channel int, offset int16) int32 {
	var avg int32
	for k := 0; k < numGaussians; k++ {
		g := channel + k*numChannels
		means[g] += offset
		avg += int32(means[g]) * int32(weights[g])
	}
	return avg
}

// findMinimum records feature in the band history and returns the smoothed
// median of the five smallest recent values (Q4).
func (m *model) findMinimum(feature int16, channel int) int16 {
	off := channel * minHistory
	age := m.ages[off : off+minHistory]
	vals := m.lowValues[off : off+minHistory]

	for i := 0; i < minHistory; i++ {
		if age[i] != maxAge {
			age[i]++
			continue
		}
		copy(vals[i:minHistory-1], vals[i+1:])
		copy(age[i:minHistory-1], age[i+1:])
		age[minHistory-1] = maxAge + 1
		vals[minHistory-1] = 10000
	}

	pos := -1
	for i := 0; i < minHistory; i++ {
		if feature < vals[i] {
			pos = i
			break
		}
	}
	if pos > -1 {
		copy(vals[pos+1:], vals[pos:minHistory-1])
		copy(age[pos+1:], age[pos:minHistory-1])
		vals[pos] = feature
		age[pos] = 1
	}

	median := int16(1600)
	if m.frameCounter > 2 {
		median = vals[2]
	} else if m.frameCounter > 0 {
		median = vals[0]
	}

	var alpha int32
	if m.frameCounter > 0 {
		if median < m.meanValue[channel] {
			alpha = smoothingDown
		} else {
			alpha = smoothingUp
		}
	}
	tmp := (alpha + 1) * int32(m.meanValue[channel])
	tmp += (32767 - alpha) * int32(median)
	tmp += 16384
	m.meanValue[channel] = int16(tmp >> 15)
	return m.meanValue[channel]
}

// durationIndex maps an 8 kHz frame length to the threshold column.
func durationIndex(n int) int {
	switch n {
	case 80:
		return 0
	case 160:
		return 1
	}
	return 2
}

// decide runs the likelihood-ratio tests on one feature vector, adapts the
// models and applies the overhang. A positive result means voice.
func (m *model) decide(features *[numChannels]int16, totalPower int16, frameLength int) int16 {
	col := durationIndex(frameLength)
	overhead1 := m.th.overHangMax1[col]
	overhead2 := m.th.overHangMax2[col]
	individualTest := m.th.individual[col]
	totalTest := int32(m.th.total[col])

	var vadflag int16

	if totalPower > minEnergy {
		var (
			deltaN, deltaS   [tableSize]int16
			ngprvec, sgprvec [tableSize]int16
			noiseProb        [numGaussians]int32
			speechProb       [numGaussians]int32
			sumLLR           int32
		)

		for ch := 0; ch < numChannels; ch++ {
			var h0Test, h1Test int32
			for k := 0; k < numGaussians; k++ {
				g := ch + k*numChannels
				p, d := gaussianProbability(features[ch], m.noiseMeans[g], m.noiseStds[g])
				deltaN[g] = d
				noiseProb[k] = int32(noiseDataWeights[g]) * p
				h0Test += noiseProb[k] // Q27

				p, d = gaussianProbability(features[ch], m.speechMeans[g], m.speechStds[g])
				deltaS[g] = d
				speechProb[k] = int32(speechDataWeights[g]) * p
				h1Test += speechProb[k]
			}

			// log2(h1/h0) approximated by the difference of normalization shifts.
			shiftsH0 := normW32(h0Test)
			shiftsH1 := normW32(h1Test)
			if h0Test == 0 {
				shiftsH0 = 31
			}
			if h1Test == 0 {
				shiftsH1 = 31
			}
			llr := shiftsH0 - shiftsH1

			sumLLR += int32(llr) * int32(spectrumWeight[ch])

			if llr*4 > individualTest {
				vadflag = 1
			}

			h0 := int16(h0Test >> 12) // Q15
			if h0 > 0 {
				tmp := int32((uint32(noiseProb[0]) & 0xFFFFF000) << 2) // Q29
				ngprvec[ch] = int16(divW32W16(tmp, h0))                 // Q14
				ngprvec[ch+numChannels] = 16384 - ngprvec[ch]
			} else {
				ngprvec[ch] = 16384
			}

			h1 := int16(h1Test >> 12)
			if h1 > 0 {
				tmp := int32((uint32(speechProb[0]) & 0xFFFFF000) << 2)
				sgprvec[ch] = int16(divW32W16(tmp, h1))
				sgprvec[ch+numChannels] = 16384 - sgprvec[ch]
			}
		}

		if sumLLR >= totalTest {
			vadflag |= 1
		}

		m.update(features, vadflag, &deltaN, &deltaS, &ngprvec, &sgprvec)
		m.frameCounter++
	}

	if vadflag == 0 {
		if m.overHang > 0 {
			vadflag = 2 + m.overHang
			m.overHang--
		}
		m.numOfSpeech = 0
	} else {
		m.numOfSpeech++
		if m.numOfSpeech > maxSpeechFrames {
			m.numOfSpeech = maxSpeechFrames
			m.overHang = overhead2
		} else {
			m.overHang = overhead1
		}
	}
	return vadflag
}

// update adapts the noise model on non-voice frames and the speech model on
// voice frames, then keeps the two models apart and within bounds.
func (m *model) update(features *[numChannels]int16, vadflag int16,
	deltaN, deltaS, ngprvec, sgprvec *[tableSize]int16) {

	maxspe := int16(12800)
	for ch := 0; ch < numChannels; ch++ {
		featureMin := m.findMinimum(features[ch], ch)

		noiseGlobal := weightedAverage(&m.noiseMeans, &noiseDataWeights, ch, 0)
		noiseGlobalQ8 := int16(noiseGlobal >> 6)

		for k := 0; k < numGaussians; k++ {
			g := ch + k*numChannels
			nmk := m.noiseMeans[g]
			smk := m.speechMeans[g]
			nsk := m.noiseStds[g]
			ssk := m.speechStds[g]

			nmk2 := nmk
			if vadflag == 0 {
				delt := int16((int32(ngprvec[g]) * int32(deltaN[g])) >> 11)
				nmk2 = nmk + int16((int32(delt)*noiseUpdateConst)>>22)
			}

			// Long-term correction towards the tracked minimum.
			ndelt := int16(int32(featureMin)<<4) - noiseGlobalQ8
			nmk3 := nmk2 + int16((int32(ndelt)*backEta)>>9)

			lo := int16((k + 5) << 7)
			if nmk3 < lo {
				nmk3 = lo
			}
			hi := int16((72 + k - ch) << 7)
			if nmk3 > hi {
				nmk3 = hi
			}
			m.noiseMeans[g] = nmk3

			if vadflag != 0 {
				delt := int16((int32(sgprvec[g]) * int32(deltaS[g])) >> 11)
				tmp16 := int16((int32(delt) * speechUpdateConst) >> 21)
				smk2 := smk + ((tmp16 + 1) >> 1)

				maxmu := maxspe + 640
				if smk2 < minimumMean[k] {
					smk2 = minimumMean[k]
				}
				if smk2 > maxmu {
					smk2 = maxmu
				}
				m.speechMeans[g] = smk2

				tmp16 = (smk + 4) >> 3
				tmp16 = features[ch] - tmp16
				tmp1 := (int32(deltaS[g]) * int32(tmp16)) >> 3
				tmp2 := tmp1 - 4096
				tmp16 = sgprvec[g] >> 2
				tmp1 = int32(tmp16) * tmp2
				tmp2 = tmp1 >> 4 // Q20

				if tmp2 > 0 {
					tmp16 = int16(divW32W16(tmp2, int16(int32(ssk)*10)))
				} else {
					tmp16 = int16(divW32W16(-tmp2, int16(int32(ssk)*10)))
					tmp16 = -tmp16
				}
				tmp16 += 128
				ssk += tmp16 >> 8
				if ssk < minStd {
					ssk = minStd
				}
				m.speechStds[g] = ssk
			} else {
				tmp16 := features[ch] - (nmk >> 3)
				tmp1 := (int32(deltaN[g]) * int32(tmp16)) >> 3
				tmp1 -= 4096

				tmp16 = (ngprvec[g] + 2) >> 2
				tmp2 := int32(tmp16) * tmp1
				tmp1 = tmp2 >> 14

				if tmp1 > 0 {
					tmp16 = int16(divW32W16(tmp1, nsk))
				} else {
					tmp16 = int16(divW32W16(-tmp1, nsk))
					tmp16 = -tmp16
				}
				tmp16 += 32
				nsk += tmp16 >> 6
				if nsk < minStd {
					nsk = minStd
				}
				m.noiseStds[g] = nsk
			}
		}

		// Push the models apart when their global means are too close.
		noiseGlobal = weightedAverage(&m.noiseMeans, &noiseDataWeights, ch, 0)
		speechGlobal := weightedAverage(&m.speechMeans, &speechDataWeights, ch, 0)

		diff := int16(speechGlobal>>9) - int16(noiseGlobal>>9)
		if diff < minimumDifference[ch] {
			tmp := minimumDifference[ch] - diff
			up := int16((13 * int32(tmp)) >> 2)
			down := int16((3 * int32(tmp)) >> 2)
			speechGlobal = weightedAverage(&m.speechMeans, &speechDataWeights, ch, up)
			noiseGlobal = weightedAverage(&m.noiseMeans, &noiseDataWeights, ch, -down)
		}

		maxspe = maximumSpeech[ch]
		if excess := int16(speechGlobal >> 7); excess > maxspe {
			excess -= maxspe
			for k := 0; k < numGaussians; k++ {
				m.speechMeans[ch+k*numChannels] -= excess
			}
		}
		if excess := int16(noiseGlobal >> 7); excess > maximumNoise[ch] {
			excess -= maximumNoise[ch]
			for k := 0; k < numGaussians; k++ {
				m.noiseMeans[ch+k*numChannels] -= excess
			}
		}
	}
}
