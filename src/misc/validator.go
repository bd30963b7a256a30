package misc

import (
	"errors"
	"fmt"
)

// JobConfigValidator applies §7's "invalid configuration" checks to a
// JobConfig before it is handed to tensorcore.NewArray. It keeps the
// teacher's panic-on-bad-flag idiom (CommandLineValidator.Validate): it
// panics on the first invalid field, and main calls it without recovering,
// so an invalid flag ends the run before any core package sees the config.
type JobConfigValidator struct {
	config *JobConfig
}

func (this *JobConfigValidator) Init(config *JobConfig) {
	this.config = config
}

func (this *JobConfigValidator) Validate() {
	if this.config.M() <= 0 {
		panic(errors.New("m <= 0"))
	}

	if this.config.N() <= 0 {
		panic(errors.New("n <= 0"))
	}

	k := this.config.K()
	if k <= 0 {
		panic(errors.New("k <= 0"))
	}

	if k&(k-1) != 0 {
		panic(fmt.Errorf("k %d is not a power of two", k))
	}

	if !IsValidInputPrecision(this.config.InputPrecision()) {
		panic(fmt.Errorf("input precision %q is not supported", this.config.InputPrecision()))
	}

	if !IsValidOutputPrecision(this.config.OutputPrecision()) {
		panic(fmt.Errorf("output precision %q is not supported", this.config.OutputPrecision()))
	}

	if _, ok := RoundingModeTagFromString(string(this.config.RoundingMode())); !ok {
		panic(fmt.Errorf("rounding mode %q is not supported", this.config.RoundingMode()))
	}

	if this.config.MaxCycles() <= 0 {
		panic(errors.New("max_cycles <= 0"))
	}
}
