package fp

import "math/bits"

// LeadingZeros implements §4.2's leading-zero count: over an N-bit value
// (width bits wide), returns width if the value is zero, otherwise the
// position of the topmost set bit counted from the MSB.
func LeadingZeros(val uint32, width int) int {
	if val == 0 {
		return width
	}
	return bits.LeadingZeros32(val) - (32 - width)
}
