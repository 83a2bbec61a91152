package utils

import "math/bits"

// NextPowerOfTwo returns the smallest power of two that is >= x, and at least 1.
func NextPowerOfTwo(x int) int {
	if x < 0 {
		panic("x must be non-negative")
	}
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x-1))
}

func IsPowerOfTwo(x uint64) bool {
	return x != 0 && x&(x-1) == 0
}
