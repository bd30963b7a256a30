package misc

// JobConfig holds the parameters of one tensor-core job: tile dimensions,
// input/output precision, rounding mode, and the cycle budget
// run_to_completion is allowed before it is treated as a stuck pipeline
// (§7). It replaces the teacher's UPMEM/chiplet/RRAM globals with the
// tensor-core's own job parameters, keeping the same
// defaults-struct-plus-accessor shape.
type JobConfig struct {
	m, k, n            int
	inputPrecision     PrecisionTag
	outputPrecision    PrecisionTag
	roundingMode       RoundingModeTag
	maxCycles          int
}

// DefaultJobConfig returns the canonical 8×8×8 FP8 E4M3 job used
// throughout the Testable Properties scenarios.
func DefaultJobConfig() JobConfig {
	return JobConfig{
		m: 8, k: 8, n: 8,
		inputPrecision:  PrecisionFP8E4M3,
		outputPrecision: PrecisionFP8E4M3,
		roundingMode:    DefaultRoundingModeTag(),
		maxCycles:       64,
	}
}

func (this *JobConfig) M() int { return this.m }
func (this *JobConfig) K() int { return this.k }
func (this *JobConfig) N() int { return this.n }

func (this *JobConfig) SetDims(m, k, n int) {
	this.m, this.k, this.n = m, k, n
}

func (this *JobConfig) InputPrecision() PrecisionTag  { return this.inputPrecision }
func (this *JobConfig) OutputPrecision() PrecisionTag { return this.outputPrecision }
func (this *JobConfig) RoundingMode() RoundingModeTag { return this.roundingMode }
func (this *JobConfig) MaxCycles() int                { return this.maxCycles }

func (this *JobConfig) SetInputPrecision(p PrecisionTag)  { this.inputPrecision = p }
func (this *JobConfig) SetOutputPrecision(p PrecisionTag) { this.outputPrecision = p }
func (this *JobConfig) SetRoundingMode(rm RoundingModeTag) { this.roundingMode = rm }
func (this *JobConfig) SetMaxCycles(c int)                 { this.maxCycles = c }
