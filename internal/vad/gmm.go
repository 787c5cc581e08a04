// internal/vad/gmm.go
package vad

const (
	compVar = 22005
	log2Exp = 5909 // log2(e) in Q12
)

// gaussianProbability evaluates a one-dimensional Gaussian for a Q4 feature
// against a Q7 mean and standard deviation. It returns (1/s)*exp(-(x-m)^2/(2s^2))
// in Q20 together with delta = (x-m)/s^2 in Q11, which the model updates reuse.
func gaussianProbability(input, mean, std int16) (int32, int16) {
	// 1/s in Q10, rounded.
	tmp32 := int32(131072) + int32(std>>1)
	invStd := int16(divW32W16(tmp32, std))

	// 1/s^2 in Q14.
	tmp16 := invStd >> 2
	invStd2 := int16((int32(tmp16) * int32(tmp16)) >> 2)

	tmp16 = int16(int32(input) << 3) // Q4 -> Q7
	tmp16 -= mean

	delta := int16((int32(invStd2) * int32(tmp16)) >> 10)

	// Exponent (x-m)^2/(2s^2) in Q10.
	tmp32 = (int32(delta) * int32(tmp16)) >> 9

	var expValue int16
	if tmp32 < compVar {
		tmp16 = int16((log2Exp * tmp32) >> 12)
		tmp16 = -tmp16
		expValue = 0x0400 | (tmp16 & 0x03FF)
		tmp16 ^= -1
		tmp16 >>= 10
		tmp16++
		expValue >>= uint(tmp16)
	}

	return int32(invStd) * int32(expValue), delta
}
