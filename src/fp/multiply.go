package fp

// MulS1 is the phase-1 (unpack & classify) output of §4.3's three-phase
// multiply. It is the payload an elastic multiply pipeline stage (§4.6)
// latches between cycle N and N+1 — as an explicit typed value, never
// smuggled through an unrelated field (see the Design Notes anti-pattern
// this repository avoids).
type MulS1 struct {
	ABits, BBits uint32
	RM           RoundingMode

	ProdSign       bool
	ShiftAmt       int
	ExpShifted     int
	MayBeSubnormal bool
	EarlyOverflow  bool

	SpecialValid   bool
	SpecialNaN     bool
	SpecialInf     bool
	SpecialInv     bool
	SpecialHasZero bool
}

// MulPhase1 implements §4.3 Phase 1: extracts sign/exponent/mantissa,
// classifies specials, and computes the shift amount and shifted exponent
// that phase 3 will need once the significand product is available.
func MulPhase1(aBits, bBits uint32, f Format, rm RoundingMode) MulS1 {
	expw, precw := f.ExpWidth, f.Precision
	paddingBits := precw + 2
	bias := f.Bias()
	maxNormExp := (1 << expw) - 2

	aSign, aExp, aMant := f.Unpack(aBits)
	bSign, bExp, bMant := f.Unpack(bBits)

	aExpIsZero := aExp == 0
	bExpIsZero := bExp == 0
	aExpIsOnes := int(aExp) == f.MaxExp()
	bExpIsOnes := int(bExp) == f.MaxExp()
	aSigIsZero := aMant == 0
	bSigIsZero := bMant == 0

	aIsInf := aExpIsOnes && aSigIsZero && !f.NoInf
	bIsInf := bExpIsOnes && bSigIsZero && !f.NoInf
	aIsZero := aExpIsZero && aSigIsZero
	bIsZero := bExpIsZero && bSigIsZero
	var aIsNaN, bIsNaN bool
	if f.NoInf {
		aIsNaN = aExpIsOnes
		bIsNaN = bExpIsOnes
	} else {
		aIsNaN = aExpIsOnes && !aSigIsZero
		bIsNaN = bExpIsOnes && !bSigIsZero
	}
	aIsSNaN := aIsNaN && (aMant>>(precw-2))&1 == 0
	bIsSNaN := bIsNaN && (bMant>>(precw-2))&1 == 0

	rawAExp := int(aExp)
	if aExpIsZero {
		rawAExp = 1
	}
	rawBExp := int(bExp)
	if bExpIsZero {
		rawBExp = 1
	}
	rawASig := aMant
	if !aExpIsZero {
		rawASig |= 1 << (precw - 1)
	}
	rawBSig := bMant
	if !bExpIsZero {
		rawBSig |= 1 << (precw - 1)
	}

	var s1 MulS1
	s1.ABits, s1.BBits, s1.RM = aBits, bBits, rm
	s1.ProdSign = aSign != bSign

	expSum := rawAExp + rawBExp
	prodExp := expSum - (bias - (paddingBits + 1))
	shiftLimSub := expSum - (bias - paddingBits)
	prodExpUF := shiftLimSub < 0
	shiftLim := shiftLimSub
	if prodExpUF {
		shiftLim = 0
	}
	prodExpOV := expSum > maxNormExp+bias

	subnormalSig := rawBSig
	if aExpIsZero {
		subnormalSig = rawASig
	}
	lzcWidth := precw*2 + 2
	lzcVal := LeadingZeros(subnormalSig, lzcWidth)

	exceedLim := shiftLim <= lzcVal
	shiftAmt := lzcVal
	if exceedLim {
		shiftAmt = shiftLim
	}
	if prodExpUF {
		shiftAmt = 0
	}

	s1.EarlyOverflow = prodExpOV
	s1.ShiftAmt = shiftAmt
	s1.ExpShifted = prodExp - shiftAmt
	s1.MayBeSubnormal = exceedLim || prodExpUF

	hasZero := aIsZero || bIsZero
	hasNaN := aIsNaN || bIsNaN
	hasSNaN := aIsSNaN || bIsSNaN
	hasInf := aIsInf || bIsInf
	zeroMulInf := hasZero && hasInf

	s1.SpecialValid = hasZero || hasNaN || hasInf
	s1.SpecialNaN = hasNaN || zeroMulInf
	s1.SpecialInf = hasInf
	s1.SpecialInv = hasSNaN || zeroMulInf
	s1.SpecialHasZero = hasZero

	return s1
}

// MulS2 is the phase-2 output: the significand product alongside the
// phase-1 classification it was computed from.
type MulS2 struct {
	S1   MulS1
	Prod uint64
}

// MulPhase2 implements §4.3 Phase 2: multiplies the two hidden-bit-extended
// significands. Width is 2*Precision bits.
func MulPhase2(f Format, s1 MulS1) MulS2 {
	precw := f.Precision
	_, aExp, aMant := f.Unpack(s1.ABits)
	_, bExp, bMant := f.Unpack(s1.BBits)

	rawASig := uint64(aMant)
	if aExp != 0 {
		rawASig |= 1 << uint(precw-1)
	}
	rawBSig := uint64(bMant)
	if bExp != 0 {
		rawBSig |= 1 << uint(precw-1)
	}

	return MulS2{S1: s1, Prod: rawASig * rawBSig}
}

// MulPhase3 implements §4.3 Phase 3: normalizes the shifted product,
// rounds via §4.1, and assembles the final packed result, applying the
// overflow-saturation policy and special-case overrides.
func MulPhase3(f Format, s2 MulS2) uint32 {
	expw, precw := f.ExpWidth, f.Precision
	nearInv := (1 << expw) - 2
	inv := (1 << expw) - 1
	rm := s2.S1.RM

	totalWidth := precw*3 + 2
	sigShiftedLong := s2.Prod << uint(s2.S1.ShiftAmt)
	sigShiftedRaw := sigShiftedLong & (uint64(1)<<uint(totalWidth) - 1)

	topBitSet := (sigShiftedRaw>>uint(totalWidth-1))&1 != 0
	expIsSubnormal := s2.S1.MayBeSubnormal && !topBitSet
	noExtraShift := topBitSet || expIsSubnormal

	var expPreRound int
	switch {
	case expIsSubnormal:
		expPreRound = 0
	case noExtraShift:
		expPreRound = s2.S1.ExpShifted
	default:
		expPreRound = s2.S1.ExpShifted - 1
	}

	var sigShifted uint64
	if noExtraShift {
		sigShifted = sigShiftedRaw
	} else {
		sigShifted = (sigShiftedRaw & (uint64(1)<<uint(totalWidth-1) - 1)) << 1
	}

	rawInSign := s2.S1.ProdSign
	rawInExp := expPreRound & ((1 << expw) - 1)

	topBits := uint32(sigShifted>>uint(precw*2)) & (uint32(1)<<uint(precw+2) - 1)
	stickyLow := sigShifted&(uint64(1)<<uint(precw+2)-1) != 0
	var stickyBit uint32
	if stickyLow {
		stickyBit = 1
	}
	rawInSig := (topBits << 1) | stickyBit

	rounder1In := rawInSig & (uint32(1)<<uint(precw+2) - 1)
	r1Data := (rounder1In >> 3) & (uint32(1)<<uint(precw-1) - 1)
	r1RoundIn := (rounder1In>>2)&1 != 0
	r1StickyIn := rounder1In&0x3 != 0
	rr1 := Round(r1Data, precw-1, rawInSign, r1RoundIn, r1StickyIn, rm)

	var coutInt int
	if rr1.CarryOut {
		coutInt = 1
	}
	expRounded := coutInt + rawInExp
	var commonOF bool
	if rr1.CarryOut {
		commonOF = rawInExp == nearInv
	} else {
		commonOF = rawInExp == inv
	}
	commonOF = commonOF || s2.S1.EarlyOverflow

	rmin := rm == RTZ || (rm == RDN && !rawInSign) || (rm == RUP && rawInSign)
	ofExp := inv
	if rmin {
		ofExp = nearInv
	}
	mantMask := uint32(1)<<uint(precw-1) - 1
	comExp := expRounded
	comSig := rr1.Out
	if commonOF {
		comExp = ofExp
		if rmin {
			comSig = mantMask
		} else {
			comSig = 0
		}
	}

	commonResult := f.Pack(rawInSign, uint32(comExp), comSig&mantMask)

	if s2.S1.SpecialValid {
		spExp := 0
		if s2.S1.SpecialInf {
			spExp = inv
		}
		spSig := uint32(0)
		if s2.S1.SpecialNaN {
			spExp = inv
			spSig = 1 << uint(precw-2)
		}
		return f.Pack(rawInSign, uint32(spExp), spSig&mantMask)
	}

	return commonResult
}

// Multiply runs all three phases of §4.3 and returns the packed result in
// f's format. a and b must already be packed in f.
func Multiply(aBits, bBits uint32, f Format, rm RoundingMode) uint32 {
	s1 := MulPhase1(aBits, bBits, f, rm)
	s2 := MulPhase2(f, s1)
	return MulPhase3(f, s2)
}
