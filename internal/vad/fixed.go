// internal/vad/fixed.go
package vad

import "math/bits"

// Fixed-point helpers shared by the filter bank and the Gaussian models.
// Values named *Qn carry n fractional bits.

// normW32 returns the left shifts needed to normalize a, 0 for a == 0.
func normW32(a int32) int16 {
	if a == 0 {
		return 0
	}
	if a < 0 {
		a = ^a
	}
	return int16(bits.LeadingZeros32(uint32(a)) - 1)
}

// normU32 returns the leading zero count of a, 0 for a == 0.
func normU32(a uint32) int16 {
	if a == 0 {
		return 0
	}
	return int16(bits.LeadingZeros32(a))
}

func sizeInBits(n uint32) int16 {
	return int16(32 - bits.LeadingZeros32(n))
}

// divW32W16 is a truncating division that saturates on a zero divisor.
func divW32W16(num int32, den int16) int32 {
	if den == 0 {
		return 0x7FFFFFFF
	}
	return num / int32(den)
}

// scalingSquare returns the right shift that keeps a sum of len(in) squares
// within 31 bits.
func scalingSquare(in []int16) int16 {
	nbits := sizeInBits(uint32(len(in)))
	var smax int32
	for _, s := range in {
		a := int32(s)
		if a < 0 {
			a = -a
		}
		if a > smax {
			smax = a
		}
	}
	if smax == 0 {
		return 0
	}
	t := normW32(smax * smax)
	if t > nbits {
		return 0
	}
	return nbits - t
}

// energy returns the scaled sum of squares of in together with the scale.
func energy(in []int16) (int32, int) {
	scaling := scalingSquare(in)
	var en int32
	for _, s := range in {
		en += (int32(s) * int32(s)) >> uint(scaling)
	}
	return en, int(scaling)
}

func saturate16(v int64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
