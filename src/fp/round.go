package fp

// RoundResult is the output of the §4.1 rounding primitive: the rounded
// significand, whether the result is inexact, whether rounding carried out
// of the top bit, and whether the round-up decision fired.
type RoundResult struct {
	Out      uint32
	Inexact  bool
	CarryOut bool
	RoundUp  bool
}

// Round implements §4.1's bit-level rounding primitive. in is a WIDTH-bit
// unsigned significand; roundBit and sticky are the guard/round-or-sticky
// inputs the caller has already extracted from the bits below the rounding
// point. The caller is responsible for combining guard and round into a
// single roundBit per its own width convention, mirroring the RTL rounding
// module this is grounded on (fp_types.h's do_rounding).
func Round(in uint32, width int, sign bool, roundBit bool, sticky bool, rm RoundingMode) RoundResult {
	mask := uint32(1)<<uint(width) - 1
	in &= mask

	var r RoundResult
	r.Inexact = roundBit || sticky

	switch rm {
	case RNE:
		r.RoundUp = roundBit && (sticky || (in&1) != 0)
	case RTZ:
		r.RoundUp = false
	case RDN:
		r.RoundUp = sign && r.Inexact
	case RUP:
		r.RoundUp = !sign && r.Inexact
	case RMM:
		r.RoundUp = roundBit
	default:
		r.RoundUp = false
	}

	sum := in
	if r.RoundUp {
		sum++
	}
	r.CarryOut = (sum>>uint(width))&1 != 0
	r.Out = sum & mask
	return r
}
