// Package tensorcore implements §4.6-4.9: the multiply/add pipeline
// stages composed into a K-wide dot-product unit, and the M×N array of
// independently-ticked units with the reset/load/tick/run-to-completion
// control surface.
package tensorcore

import (
	"opentensorcore/src/fp"
	"opentensorcore/src/pipeline"
)

// tcFP9Add pads two FP9 operands to FP13 E5M7, the internal wide add-tree
// format tc_add_pipe's (precw=8, outpc=4) widths name, and runs the
// two-path add there before narrowing back to FP9.
func tcFP9Add(aBits, bBits uint32, rm fp.RoundingMode) uint32 {
	wide := fp.FormatFP13E5M7
	pa := fp.PadForAdd(aBits, fp.FormatFP9E5M3, wide.Precision)
	pb := fp.PadForAdd(bBits, fp.FormatFP9E5M3, wide.Precision)
	return fp.Add(pa, pb, wide.ExpWidth, wide.Precision, fp.FormatFP9E5M3.Precision, rm)
}

// tcFP22Add pads two FP22 operands to the internal precision the
// accumulator's final add uses (precw=24, outpc=14). 24 is the widest
// padding whose packed operand (8 exponent bits + 24 precision bits) fits
// the uint32 fp.Add works on.
func tcFP22Add(aBits, bBits uint32, rm fp.RoundingMode) uint32 {
	pa := fp.PadForAdd(aBits, fp.FormatFP22E8M13, 24)
	pb := fp.PadForAdd(bBits, fp.FormatFP22E8M13, 24)
	return fp.Add(pa, pb, 8, 24, 14, rm)
}

// mulToken is the payload carried by a multiply pipeline stage: the raw
// operands, the phase-1 classification latched in slot 1, and the final
// product latched in slot 2. Unlike the grounding source, the product is
// never smuggled into an unrelated phase-1 field — it has its own field.
type mulToken struct {
	ABits, BBits uint32
	S1           fp.MulS1
	Result       uint32
}

// DotProductUnit computes one output cell of the tensor-core array:
// D[i][j] = sum(A[i][k]*B[k][j] for k=0..K-1) + C[i][j], pipelined per
// §4.8. K must be a power of two.
type DotProductUnit struct {
	k int

	mulPipes        []pipeline.Stage2[mulToken]
	mulResults      []uint32
	mulResultsValid []bool

	// addLevels[L] holds K>>(L+1) add stages; addLevels[0] reduces pairs
	// of multiply outputs, each subsequent level reduces pairs of the
	// level below, until the last level produces a single FP9 sum.
	addLevels          [][]pipeline.Stage2[uint32]
	addLevelInputValid [][]bool
	addLevelA          [][]uint32
	addLevelB          [][]uint32

	finalAdd           pipeline.Stage2[uint32]
	finalAddA          uint32
	finalAddB          uint32
	finalAddInputValid bool

	convValid bool
	convFP22  uint32

	aRow  []uint32 // FP9, length K
	bCol  []uint32 // FP9, length K
	cBias uint32   // FP22

	result uint32
	done   bool
}

// NewDotProductUnit allocates a unit for a K-wide reduction. K must be a
// power of two (K=1 is legal: no add tree, the single product widens
// straight into the final add).
func NewDotProductUnit(k int) *DotProductUnit {
	u := &DotProductUnit{k: k}
	u.mulPipes = make([]pipeline.Stage2[mulToken], k)
	u.mulResults = make([]uint32, k)
	u.mulResultsValid = make([]bool, k)

	size := k / 2
	for size >= 1 {
		u.addLevels = append(u.addLevels, make([]pipeline.Stage2[uint32], size))
		u.addLevelInputValid = append(u.addLevelInputValid, make([]bool, size))
		u.addLevelA = append(u.addLevelA, make([]uint32, size))
		u.addLevelB = append(u.addLevelB, make([]uint32, size))
		if size == 1 {
			break
		}
		size /= 2
	}
	return u
}

// Reset clears all pipeline state and the completion latch.
func (u *DotProductUnit) Reset() {
	for k := range u.mulPipes {
		u.mulPipes[k].Reset()
		u.mulResultsValid[k] = false
	}
	for L := range u.addLevels {
		for a := range u.addLevels[L] {
			u.addLevels[L][a].Reset()
			u.addLevelInputValid[L][a] = false
		}
	}
	u.finalAdd.Reset()
	u.finalAddInputValid = false
	u.convValid = false
	u.done = false
	u.result = 0
}

// SetInputs latches this unit's row of A, column of B (both FP9), and C
// bias (FP22) for the job about to start.
func (u *DotProductUnit) SetInputs(aRow, bCol []uint32, cBias uint32) {
	u.aRow = aRow
	u.bCol = bCol
	u.cBias = cBias
}

// Done reports whether this unit's output cell holds its final value.
func (u *DotProductUnit) Done() bool { return u.done }

// Result returns the packed FP22 output. Only meaningful once Done.
func (u *DotProductUnit) Result() uint32 { return u.result }

// Tick advances this unit by one clock cycle, in the reverse stage order
// required by §4.8 so that backpressure propagates correctly within a
// single tick: output conversion, final add, add-tree levels from the
// top down, then the multiplier stages.
func (u *DotProductUnit) Tick(inputsLoaded bool, rm fp.RoundingMode) {
	// Stage: output conversion — publish and clear the one-shot latch.
	if u.convValid {
		u.result = u.convFP22
		u.done = true
		u.convValid = false
	}
	const convOutReady = true

	// Output-format converter latch (1 cycle, §4.8 step 2): move the final
	// add's output into the one-shot conversion register. This reads
	// finalAdd's pre-tick state, before finalAdd.Tick below mutates it —
	// the same "read one stage down before it ticks forward" order every
	// other stage-to-stage handoff in this function follows.
	if u.finalAdd.OutValid() && !u.convValid {
		u.convFP22 = u.finalAdd.OutData()
		u.convValid = true
	}

	// Final FP22 add: tree result widened to FP22, combined with C bias.
	finalOutReady := !u.convValid || convOutReady
	numLevels := len(u.addLevels)

	var treeOutValid bool
	var treeOutVal uint32
	if numLevels == 0 {
		treeOutValid = u.mulResultsValid[0]
		treeOutVal = u.mulResults[0]
	} else {
		top := &u.addLevels[numLevels-1][0]
		treeOutValid = top.OutValid()
		treeOutVal = top.OutData()
	}
	if treeOutValid && !u.finalAddInputValid {
		u.finalAddA = fp.FP9ToFP22(treeOutVal)
		u.finalAddB = u.cBias
		u.finalAddInputValid = true
	}
	finalB := u.finalAddB
	u.finalAdd.Tick(u.finalAddInputValid, u.finalAddA, finalOutReady,
		nil,
		func(in uint32) uint32 { return tcFP22Add(in, finalB, rm) })
	finalInReady := u.finalAdd.InReady(finalOutReady)
	if finalInReady && u.finalAddInputValid {
		u.finalAddInputValid = false
		if numLevels == 0 {
			u.mulResultsValid[0] = false
		}
	}

	// Add-tree levels, top (closest to the final add) down to 0.
	outReadyAbove := []bool{finalInReady}
	for L := numLevels - 1; L >= 0; L-- {
		stages := u.addLevels[L]
		size := len(stages)
		var belowReady []bool
		if L > 0 {
			belowReady = make([]bool, size*2)
		}
		for a := 0; a < size; a++ {
			var v0, v1 bool
			var d0, d1 uint32
			var src0, src1 int
			if L == 0 {
				src0, src1 = a, a+size
				v0, d0 = u.mulResultsValid[src0], u.mulResults[src0]
				v1, d1 = u.mulResultsValid[src1], u.mulResults[src1]
			} else {
				lower := u.addLevels[L-1]
				src0, src1 = 2*a, 2*a+1
				v0, d0 = lower[src0].OutValid(), lower[src0].OutData()
				v1, d1 = lower[src1].OutValid(), lower[src1].OutData()
			}

			outReady := outReadyAbove[a]
			if v0 && v1 && !u.addLevelInputValid[L][a] {
				u.addLevelA[L][a] = d0
				u.addLevelB[L][a] = d1
				u.addLevelInputValid[L][a] = true
			}

			b := u.addLevelB[L][a]
			stages[a].Tick(u.addLevelInputValid[L][a], u.addLevelA[L][a], outReady,
				nil,
				func(in uint32) uint32 { return tcFP9Add(in, b, rm) })

			stageInReady := stages[a].InReady(outReady)
			if stageInReady && u.addLevelInputValid[L][a] {
				u.addLevelInputValid[L][a] = false
				if L == 0 {
					u.mulResultsValid[src0] = false
					u.mulResultsValid[src1] = false
				}
			}
			if L > 0 {
				belowReady[2*a] = stageInReady
				belowReady[2*a+1] = stageInReady
			}
		}
		if L > 0 {
			outReadyAbove = belowReady
		}
	}

	// Multiplier stages: K parallel FP9 multiplies feeding mulResults.
	for k := 0; k < u.k; k++ {
		mulOutReady := !u.mulResultsValid[k]
		mulInValid := inputsLoaded && !u.mulResultsValid[k]
		in := mulToken{ABits: u.aRow[k], BBits: u.bCol[k]}
		u.mulPipes[k].Tick(mulInValid, in, mulOutReady,
			func(in mulToken) mulToken {
				return mulToken{
					ABits: in.ABits, BBits: in.BBits,
					S1: fp.MulPhase1(in.ABits, in.BBits, fp.FormatFP9E5M3, rm),
				}
			},
			func(in mulToken) mulToken {
				s2 := fp.MulPhase2(fp.FormatFP9E5M3, in.S1)
				result := fp.MulPhase3(fp.FormatFP9E5M3, s2)
				in.Result = result
				return in
			})

		if u.mulPipes[k].OutValid() && !u.mulResultsValid[k] {
			u.mulResults[k] = u.mulPipes[k].OutData().Result & 0x1FF
			u.mulResultsValid[k] = true
		}
	}
}
