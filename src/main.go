package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"k8s.io/klog/v2"

	"opentensorcore/src/fp"
	"opentensorcore/src/misc"
	"opentensorcore/src/tensorcore"
)

// This is the external CLI collaborator named in §6: argument parsing,
// random/pattern input generation, host-double golden computation, and
// result printing. None of it is part of the core contract — it only
// drives the core through reset/load/tick/run_to_completion and the
// arithmetic library's pure functions.

func main() {
	klog.InitFlags(nil)

	m := flag.Int("m", 8, "tile row count M")
	k := flag.Int("k", 8, "tile reduction depth K (must be a power of two)")
	n := flag.Int("n", 8, "tile column count N")
	inputPrecision := flag.String("input_precision", "fp8_e4m3",
		"input precision (fp4_e2m1|fp8_e4m3|fp8_e5m2|fp16)")
	outputPrecision := flag.String("output_precision", "fp8_e4m3",
		"output precision (fp8_e4m3|fp8_e5m2|fp16|fp32)")
	roundingMode := flag.String("rounding_mode", "rne", "rounding mode (rne|rtz|rdn|rup|rmm)")
	maxCycles := flag.Int("max_cycles", 256, "cycle budget for run_to_completion")
	pattern := flag.String("pattern", "identity",
		"input pattern (identity|all_ones|random)")
	scale := flag.Float64("scale", 4.0, "magnitude bound for the random pattern")
	seed := flag.Int64("seed", 1, "PRNG seed for the random pattern")
	compareGolden := flag.Bool("golden", true,
		"cross-check the pipelined result against the host-double golden reference")

	flag.Parse()

	config := misc.DefaultJobConfig()
	config.SetDims(*m, *k, *n)

	inPrecTag, ok := misc.PrecisionTagFromString(*inputPrecision)
	if !ok {
		klog.Fatalf("unknown input_precision %q", *inputPrecision)
	}
	outPrecTag, ok := misc.PrecisionTagFromString(*outputPrecision)
	if !ok {
		klog.Fatalf("unknown output_precision %q", *outputPrecision)
	}
	rmTag, ok := misc.RoundingModeTagFromString(*roundingMode)
	if !ok {
		klog.Fatalf("unknown rounding_mode %q", *roundingMode)
	}
	config.SetInputPrecision(inPrecTag)
	config.SetOutputPrecision(outPrecTag)
	config.SetRoundingMode(rmTag)
	config.SetMaxCycles(*maxCycles)
	misc.SetRuntimeDefaultRoundingMode(rmTag)

	validator := new(misc.JobConfigValidator)
	validator.Init(&config)
	validator.Validate()

	inputFormat := inPrecTag.ToFormat()
	outputFormat := outPrecTag.ToFormat()
	rm := rmTag.ToFP()

	var aRaw, bRaw, cRaw [][]uint32
	switch *pattern {
	case "identity":
		aRaw = misc.IdentityMatrix(config.M(), inputFormat)
		bRaw = misc.IdentityMatrix(config.K(), inputFormat)
		cRaw = misc.ConstantMatrix(config.M(), config.N(), inputFormat, 0)
	case "all_ones":
		aRaw = misc.ConstantMatrix(config.M(), config.K(), inputFormat, 1)
		bRaw = misc.ConstantMatrix(config.K(), config.N(), inputFormat, 1)
		cRaw = misc.ConstantMatrix(config.M(), config.N(), inputFormat, 0)
	case "random":
		rng := rand.New(rand.NewSource(*seed))
		aRaw = misc.RandomMatrix(config.M(), config.K(), inputFormat, rng, *scale)
		bRaw = misc.RandomMatrix(config.K(), config.N(), inputFormat, rng, *scale)
		cRaw = misc.RandomMatrix(config.M(), config.N(), inputFormat, rng, *scale)
	default:
		klog.Fatalf("unknown pattern %q", *pattern)
	}

	aFP9 := tensorcore.ConvertInputMatrix(aRaw, inputFormat)
	bFP9 := tensorcore.ConvertInputMatrix(bRaw, inputFormat)
	cFP22 := tensorcore.ConvertBiasMatrix(cRaw, inputFormat)

	array, err := tensorcore.NewArray(config.M(), config.N(), config.K())
	if err != nil {
		klog.Fatalf("tensorcore.NewArray: %v", err)
	}
	driver := tensorcore.NewDriver(array)

	array.Reset()
	if err := array.Load(aFP9, bFP9, cFP22, rm); err != nil {
		klog.Fatalf("array.Load: %v", err)
	}

	cycles, err := driver.RunToCompletion(config.MaxCycles())
	if err == tensorcore.ErrCycleBudgetExceeded {
		klog.Errorf("run_to_completion exceeded cycle budget of %d (stuck pipeline); "+
			"%d/%d cells completed", config.MaxCycles(), array.CompletedCount(),
			config.M()*config.N())
		os.Exit(1)
	} else if err != nil {
		klog.Fatalf("run_to_completion: %v", err)
	}
	klog.V(1).Infof("pipeline converged in %d cycles", cycles)

	dFP22Pipelined := make([][]uint32, config.M())
	for i := 0; i < config.M(); i++ {
		dFP22Pipelined[i] = make([]uint32, config.N())
		for j := 0; j < config.N(); j++ {
			dFP22Pipelined[i][j] = array.ResultFP22(i, j)
		}
	}

	dFP22Reference := tensorcore.ReferenceMatmul(aFP9, bFP9, cFP22, rm)

	mismatches := 0
	for i := 0; i < config.M(); i++ {
		for j := 0; j < config.N(); j++ {
			if dFP22Pipelined[i][j] != dFP22Reference[i][j] {
				mismatches++
				klog.Warningf("D[%d][%d] pipelined=0x%06x reference=0x%06x diverge",
					i, j, dFP22Pipelined[i][j], dFP22Reference[i][j])
			}
		}
	}
	if mismatches > 0 {
		klog.Errorf("%d/%d cells diverge between the pipelined and reference models",
			mismatches, config.M()*config.N())
		os.Exit(1)
	}

	dOutput := tensorcore.ConvertOutputMatrix(dFP22Pipelined, outputFormat, rm)

	fmt.Printf("converged in %d cycles, 0 divergences, output precision %s\n",
		cycles, outputFormat.Name)
	printMatrix(dOutput, outputFormat)

	if *compareGolden {
		golden := misc.GoldenMatmul(aRaw, bRaw, cRaw, inputFormat, outputFormat)
		observed := misc.DecodeMatrix(dOutput, outputFormat)
		goldenDecoded := misc.DecodeMatrix(golden, outputFormat)
		maxErr := misc.MaxAbsError(goldenDecoded, observed)
		fmt.Printf("max |golden - pipelined| = %g\n", maxErr)
	}
}

func printMatrix(raw [][]uint32, f fp.Format) {
	for _, row := range raw {
		for j, v := range row {
			if j > 0 {
				fmt.Print(" ")
			}
			fmt.Printf("%g", misc.BitsToDouble(v, f))
		}
		fmt.Println()
	}
}
