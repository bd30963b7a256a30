package fp

// farPathOut is the far-path intermediate (|exp diff| > 1, or an effective
// addition): B's significand is shifted right by the exponent difference
// and added to or subtracted from A's.
type farPathOut struct {
	resultSign bool
	resultExp  uint32
	resultSig  uint32
}

// farPathCompute ports far_path_compute from fp_arith.h.
func farPathCompute(aSign bool, aExp int, aSig uint32, bSig uint32, expdiff int, effsub bool, smallAdd bool, precw, outpc int) farPathOut {
	var out farPathOut

	var bShifted uint32
	var sticky bool
	if expdiff < precw+3 {
		mask := uint32(1)<<uint(expdiff) - 1
		sticky = bSig&mask != 0
		bShifted = bSig >> uint(expdiff)
	} else {
		sticky = bSig != 0
		bShifted = 0
	}

	sigResult := int(aSig)
	if effsub {
		sigResult = int(aSig) - int(bShifted)
	} else {
		sigResult = int(aSig) + int(bShifted)
		if (sigResult>>uint(precw))&1 != 0 {
			sticky = sticky || sigResult&1 != 0
			sigResult >>= 1
			aExp++
		}
	}

	if smallAdd {
		out.resultExp = 0
	} else {
		out.resultExp = uint32(aExp)
	}
	out.resultSign = aSign

	shift := precw - outpc - 2
	var topSig uint32
	var extraSticky bool
	if shift > 0 {
		extraSticky = sigResult&((1<<uint(shift))-1) != 0
		topSig = uint32(sigResult >> uint(shift))
	} else {
		extraSticky = false
		topSig = uint32(sigResult << uint(-shift))
	}
	var stickyBit uint32
	if sticky || extraSticky {
		stickyBit = 1
	}
	out.resultSig = ((topSig & (uint32(1)<<uint(outpc+2) - 1)) << 1) | stickyBit
	return out
}

// nearPathOut is the near-path intermediate (|exp diff| <= 1): an effective
// subtraction between two close-magnitude operands.
type nearPathOut struct {
	resultSign bool
	resultExp  uint32
	resultSig  uint32
	sigIsZero  bool
	aLtB       bool
}

// nearPathCompute ports near_path_compute from fp_arith.h.
func nearPathCompute(aSign bool, aExp int, aSig uint32, bSign bool, bSig uint32, needShiftB bool, precw, outpc int) nearPathOut {
	var out nearPathOut

	bSigAligned := bSig
	if needShiftB {
		bSigAligned = bSig >> 1
	}

	aLtB := aSig < bSigAligned
	var sigDiff int
	if aLtB {
		sigDiff = int(bSigAligned) - int(aSig)
		out.resultSign = bSign
	} else {
		sigDiff = int(aSig) - int(bSigAligned)
		out.resultSign = aSign
	}
	out.sigIsZero = sigDiff == 0
	out.aLtB = aLtB

	lzcVal := LeadingZeros(uint32(sigDiff), precw+1)
	sigNormalized := uint32(sigDiff) << uint(lzcVal)
	expNormalized := aExp - lzcVal
	// A zero difference also gets exponent 0, so phase 2 sees an exact zero.
	if expNormalized <= 0 || sigDiff == 0 {
		expNormalized = 0
	}
	out.resultExp = uint32(expNormalized)

	shift := precw - outpc - 2
	if shift > 0 {
		out.resultSig = sigNormalized >> uint(shift)
	} else {
		out.resultSig = sigNormalized << uint(-shift)
	}
	out.resultSig &= uint32(1)<<uint(outpc+3) - 1
	return out
}

// AddS1 is the phase-1 output of the §4.4 two-path add: path selection plus
// the parallel near-path and far-path computations, and the special-case
// classification, all latched for the elastic pipeline register between
// cycle N and N+1.
type AddS1 struct {
	RM RoundingMode

	FarSign bool
	FarExp  int
	FarSig  uint32

	NearSign      bool
	NearExp       int
	NearSig       uint32
	NearSigIsZero bool

	SpecialValid  bool
	SpecialInv    bool
	SpecialNaN    bool
	SpecialInfSgn bool

	SmallAdd  bool
	FarMulOF  bool
	SelFarPath bool
}

// AddPhase1 implements §4.4 Phase 1: classifies the two operands, computes
// both the far-path and near-path results in parallel, and selects which
// path phase 2 will use. precw is the internal padded precision (the FP9
// add tree uses precw = 2*outpc per the tc_add_pipe zero-padding
// convention; the FP22 accumulate uses precw = 24, see tcFP22Add); outpc
// is the final output precision.
func AddPhase1(aBits, bBits uint32, expw, precw, outpc int, rm RoundingMode) AddS1 {
	expMask := uint32(1)<<uint(expw) - 1
	mantMask := uint32(1)<<uint(precw-1) - 1

	aExpRaw := (aBits >> uint(precw-1)) & expMask
	bExpRaw := (bBits >> uint(precw-1)) & expMask
	aMant := aBits & mantMask
	bMant := bBits & mantMask
	aSign := (aBits>>uint(expw+precw-1))&1 != 0
	bSign := (bBits>>uint(expw+precw-1))&1 != 0

	aExpIsZero := aExpRaw == 0
	bExpIsZero := bExpRaw == 0
	aExpIsOnes := aExpRaw == expMask
	bExpIsOnes := bExpRaw == expMask
	aSigIsZero := aMant == 0
	bSigIsZero := bMant == 0

	aIsInf := aExpIsOnes && aSigIsZero
	bIsInf := bExpIsOnes && bSigIsZero
	aIsNaN := aExpIsOnes && !aSigIsZero
	bIsNaN := bExpIsOnes && !bSigIsZero
	aIsSNaN := aIsNaN && (aMant>>uint(precw-2))&1 == 0
	bIsSNaN := bIsNaN && (bMant>>uint(precw-2))&1 == 0

	rawAExp := int(aExpRaw)
	if aExpIsZero {
		rawAExp = 1
	}
	rawBExp := int(bExpRaw)
	if bExpIsZero {
		rawBExp = 1
	}
	rawASig := aMant
	if !aExpIsZero {
		rawASig |= 1 << uint(precw-1)
	}
	rawBSig := bMant
	if !bExpIsZero {
		rawBSig |= 1 << uint(precw-1)
	}

	effSub := aSign != bSign
	smallAdd := aExpIsZero && bExpIsZero

	specialHasNaN := aIsNaN || bIsNaN
	specialHasSNaN := aIsSNaN || bIsSNaN
	specialHasInf := aIsInf || bIsInf
	infIV := aIsInf && bIsInf && effSub

	var s1 AddS1
	s1.RM = rm
	s1.SpecialValid = specialHasNaN || specialHasInf
	s1.SpecialInv = specialHasSNaN || infIV
	s1.SpecialNaN = specialHasNaN || infIV
	if aIsInf {
		s1.SpecialInfSgn = aSign
	} else {
		s1.SpecialInfSgn = bSign
	}
	s1.SmallAdd = smallAdd
	s1.FarMulOF = bExpIsOnes && !effSub

	expDiffAB := rawAExp - rawBExp
	expDiffBA := rawBExp - rawAExp
	needSwap := expDiffAB < 0
	eaMinusEb := expDiffAB
	if needSwap {
		eaMinusEb = expDiffBA
	}
	s1.SelFarPath = !effSub || eaMinusEb > 1

	farASign, farAExp, farASig, farBSig := aSign, rawAExp, rawASig, rawBSig
	if needSwap {
		farASign, farAExp, farASig, farBSig = bSign, rawBExp, rawBSig, rawASig
	}
	fpo := farPathCompute(farASign, farAExp, farASig, farBSig, eaMinusEb, effSub, smallAdd, precw, outpc)
	s1.FarSign = fpo.resultSign
	s1.FarExp = int(fpo.resultExp)
	s1.FarSig = fpo.resultSig

	nearExpNeq := rawAExp != rawBExp
	np0 := nearPathCompute(aSign, rawAExp, rawASig, bSign, rawBSig, nearExpNeq, precw, outpc)
	np1 := nearPathCompute(bSign, rawBExp, rawBSig, aSign, rawASig, nearExpNeq, precw, outpc)

	nearSel := needSwap || (!nearExpNeq && np0.aLtB)
	if nearSel {
		s1.NearSign = np1.resultSign
		s1.NearExp = int(np1.resultExp)
		s1.NearSig = np1.resultSig
		s1.NearSigIsZero = np1.sigIsZero
	} else {
		s1.NearSign = np0.resultSign
		s1.NearExp = int(np0.resultExp)
		s1.NearSig = np0.resultSig
		s1.NearSigIsZero = np0.sigIsZero
	}

	return s1
}

// AddPhase2 implements §4.4 Phase 2: rounds both paths' candidate results,
// applies overflow saturation, and selects the final packed output per
// SelFarPath. outpc is the final output precision (the pack width is
// expw+outpc bits); it matches the OUTPC argument fadd_s2 is invoked with
// in the grounding source (not the padded precw phase 1 ran with).
func AddPhase2(s1 AddS1, expw, outpc int) uint32 {
	nearInv := (1 << expw) - 2
	inv := (1 << expw) - 1
	rm := s1.RM
	packWidth := expw + outpc

	pack := func(sign bool, exp int, sig uint32) uint32 {
		var s uint32
		if sign {
			s = 1
		}
		return (s << uint(packWidth-1)) | (uint32(exp&((1<<expw)-1)) << uint(outpc-1)) | (sig & (uint32(1)<<uint(outpc-1) - 1))
	}

	if s1.SpecialValid {
		if s1.SpecialNaN {
			return pack(false, inv, 1<<uint(outpc-2))
		}
		return pack(s1.SpecialInfSgn, inv, 0)
	}

	// Far path rounding.
	farR1In := s1.FarSig & (uint32(1)<<uint(outpc+2) - 1)
	farR1Data := (farR1In >> 3) & (uint32(1)<<uint(outpc-1) - 1)
	farR1Round := (farR1In>>2)&1 != 0
	farR1Sticky := farR1In&3 != 0
	farRR := Round(farR1Data, outpc-1, s1.FarSign, farR1Round, farR1Sticky, rm)

	var farCout int
	if farRR.CarryOut {
		farCout = 1
	}
	farExpRounded := farCout + s1.FarExp
	farOFBefore := s1.FarExp == inv
	farOFAfter := farRR.CarryOut && s1.FarExp == nearInv
	farOF := farOFBefore || farOFAfter || s1.FarMulOF

	// Near path rounding.
	nearIsZero := s1.NearExp == 0 && s1.NearSigIsZero

	nearR1In := s1.NearSig & (uint32(1)<<uint(outpc+2) - 1)
	nearR1Data := (nearR1In >> 3) & (uint32(1)<<uint(outpc-1) - 1)
	nearR1Round := (nearR1In>>2)&1 != 0
	nearR1Sticky := nearR1In&3 != 0
	nearRR := Round(nearR1Data, outpc-1, s1.NearSign, nearR1Round, nearR1Sticky, rm)

	var nearCout int
	if nearRR.CarryOut {
		nearCout = 1
	}
	nearExpRounded := nearCout + s1.NearExp
	nearZeroSign := rm == RDN
	nearSignOut := (s1.NearSign && !nearIsZero) || (nearZeroSign && nearIsZero)
	nearOF := nearExpRounded == (1<<expw)-1

	commonOF := farOF
	if !s1.SelFarPath {
		commonOF = nearOF
	}
	if commonOF {
		ofSign := s1.FarSign
		if !s1.SelFarPath {
			ofSign = s1.NearSign
		}
		rmin := rm == RTZ || (rm == RDN && !ofSign) || (rm == RUP && ofSign)
		ofExp := inv
		ofSig := uint32(0)
		if rmin {
			ofExp = nearInv
			ofSig = uint32(1)<<uint(outpc-1) - 1
		}
		return pack(ofSign, ofExp, ofSig)
	}

	if s1.SelFarPath {
		return pack(s1.FarSign, farExpRounded, farRR.Out)
	}
	return pack(nearSignOut, nearExpRounded, nearRR.Out)
}

// Add runs both phases of §4.4 and returns the packed result at expw/outpc
// width. a and b must already be padded to expw/precw width via
// PadForAdd — precw is the internal padded precision (the FP9 add tree
// uses precw = 2*outpc, per tc_add_pipe's zero-padding convention, and the
// FP22 accumulate uses precw = 24; in both the operand's stored mantissa
// bits are kept in the high-order position and low-order zero bits are
// appended). Operands are packed in a uint32, so expw+precw is at most 32.
func Add(aBits, bBits uint32, expw, precw, outpc int, rm RoundingMode) uint32 {
	s1 := AddPhase1(aBits, bBits, expw, precw, outpc, rm)
	return AddPhase2(s1, expw, outpc)
}

// PadForAdd re-packs bits, given in format f, into a wider precw-bit
// precision with the same sign and exponent, appending the extra mantissa
// bits as zeros. This mirrors tc_add_pipe's registered-input zero padding
// ({a_reg, {PRECISION{1'b0}}} in the RTL) and is how callers must prepare
// operands before calling Add or AddPhase1.
func PadForAdd(bits uint32, f Format, precw int) uint32 {
	sign, exp, mant := f.Unpack(bits)
	padded := Format{ExpWidth: f.ExpWidth, Precision: precw}
	mant <<= uint(precw - f.Precision)
	return padded.Pack(sign, exp, mant)
}
