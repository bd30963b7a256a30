package tensorcore

import "opentensorcore/src/fp"

// ConvertInputToFP9 widens a raw packed input word from the job's input
// precision to FP9 E5M3, the datapath's internal multiply/add format.
// This is the pre-conversion front end named in SPEC_FULL.md §C, grounded
// on pre_conv.h's role ahead of the multiply array.
func ConvertInputToFP9(bits uint32, inputPrec fp.Format) uint32 {
	return fp.ConvertToFP9(bits, inputPrec)
}

// ConvertBiasToFP22 widens a raw packed C-bias word to FP22 E8M13, the
// accumulator format, for every input precision. FP8 E5M2 is routed
// through FP9 rather than converted directly — the Open Question
// decision recorded in SPEC_FULL.md §D.
func ConvertBiasToFP22(bits uint32, inputPrec fp.Format) uint32 {
	return fp.ConvertBiasToFP22(bits, inputPrec)
}

// ConvertInputMatrix widens an entire matrix of raw packed input words to
// FP9.
func ConvertInputMatrix(raw [][]uint32, inputPrec fp.Format) [][]uint32 {
	out := make([][]uint32, len(raw))
	for i, row := range raw {
		out[i] = make([]uint32, len(row))
		for j, v := range row {
			out[i][j] = ConvertInputToFP9(v, inputPrec)
		}
	}
	return out
}

// ConvertBiasMatrix widens an entire matrix of raw packed C-bias words to
// FP22.
func ConvertBiasMatrix(raw [][]uint32, inputPrec fp.Format) [][]uint32 {
	out := make([][]uint32, len(raw))
	for i, row := range raw {
		out[i] = make([]uint32, len(row))
		for j, v := range row {
			out[i][j] = ConvertBiasToFP22(v, inputPrec)
		}
	}
	return out
}

// ConvertOutputMatrix narrows an entire matrix of packed FP22 results
// down to the job's output precision.
func ConvertOutputMatrix(fp22 [][]uint32, outputPrec fp.Format, rm fp.RoundingMode) [][]uint32 {
	out := make([][]uint32, len(fp22))
	for i, row := range fp22 {
		out[i] = make([]uint32, len(row))
		for j, v := range row {
			out[i][j] = fp.ConvertFromFP22(v, outputPrec, rm)
		}
	}
	return out
}
