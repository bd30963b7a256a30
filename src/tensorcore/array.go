package tensorcore

import (
	"github.com/pkg/errors"

	"opentensorcore/src/fp"
)

// ErrInvalidConfig is returned, wrapped with context, by NewArray when M,
// N, or K is non-positive or K is not a power of two, and by Load when the
// matrices' dimensions do not match M, K, N. Neither checks a format tag:
// Array receives already-converted FP9/FP22 words and no precision.
var ErrInvalidConfig = errors.New("tensorcore: invalid job configuration")

// ErrCycleBudgetExceeded is returned by RunToCompletion when the caller's
// cycle budget is exhausted before every output cell is valid. Per §7
// this indicates a stuck pipeline, not a handled arithmetic condition;
// the array's state is indeterminate afterward and must be Reset before
// reuse.
var ErrCycleBudgetExceeded = errors.New("tensorcore: cycle budget exceeded")

// Array is the M×N tensor-core array: an independent DotProductUnit per
// output cell, sharing a loaded-input flag, a monotonic cycle counter,
// and per-job configuration (§4.9).
type Array struct {
	M, N, K int

	units [][]*DotProductUnit

	inputLoaded bool
	cycleCount  int

	rm fp.RoundingMode

	dFP22 [][]uint32
}

// NewArray allocates an M×N array of K-wide dot-product units. Returns
// ErrInvalidConfig if M, N, or K is non-positive, or K is not a power of
// two.
func NewArray(m, n, k int) (*Array, error) {
	if m <= 0 || n <= 0 || k <= 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "M, N, and K must be positive")
	}
	if k&(k-1) != 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "K=%d is not a power of two", k)
	}

	a := &Array{M: m, N: n, K: k}
	a.units = make([][]*DotProductUnit, m)
	a.dFP22 = make([][]uint32, m)
	for i := 0; i < m; i++ {
		a.units[i] = make([]*DotProductUnit, n)
		a.dFP22[i] = make([]uint32, n)
		for j := 0; j < n; j++ {
			a.units[i][j] = NewDotProductUnit(k)
		}
	}
	return a, nil
}

// Reset clears every unit and the completion state. Per §4.9, Reset must
// precede Load.
func (a *Array) Reset() {
	for i := 0; i < a.M; i++ {
		for j := 0; j < a.N; j++ {
			a.units[i][j].Reset()
		}
	}
	a.inputLoaded = false
	a.cycleCount = 0
}

// Load prepares one job: aFP9[i][k], bFP9[k][j] (already converted to
// FP9), cFP22[i][j] (already converted to FP22), and the rounding mode.
// Must be called after Reset and before any Tick. Returns
// ErrInvalidConfig (no state mutated) if the matrix dimensions don't
// match M, K, N.
func (a *Array) Load(aFP9 [][]uint32, bFP9 [][]uint32, cFP22 [][]uint32, rm fp.RoundingMode) error {
	if len(aFP9) != a.M || len(cFP22) != a.M {
		return errors.Wrap(ErrInvalidConfig, "A/C row count does not match M")
	}
	if len(bFP9) != a.K {
		return errors.Wrap(ErrInvalidConfig, "B row count does not match K")
	}
	for i := 0; i < a.M; i++ {
		if len(aFP9[i]) != a.K {
			return errors.Wrap(ErrInvalidConfig, "A column count does not match K")
		}
		if len(cFP22[i]) != a.N {
			return errors.Wrap(ErrInvalidConfig, "C column count does not match N")
		}
	}
	for k := 0; k < a.K; k++ {
		if len(bFP9[k]) != a.N {
			return errors.Wrap(ErrInvalidConfig, "B column count does not match N")
		}
	}

	a.rm = rm
	for i := 0; i < a.M; i++ {
		for j := 0; j < a.N; j++ {
			bCol := make([]uint32, a.K)
			for k := 0; k < a.K; k++ {
				bCol[k] = bFP9[k][j]
			}
			a.units[i][j].SetInputs(aFP9[i], bCol, cFP22[i][j])
		}
	}
	a.inputLoaded = true
	return nil
}

// Tick advances one simulated cycle: every unit ticks, in any order,
// since units share no mutable state (§5).
func (a *Array) Tick() {
	a.cycleCount++
	for i := 0; i < a.M; i++ {
		for j := 0; j < a.N; j++ {
			u := a.units[i][j]
			u.Tick(a.inputLoaded, a.rm)
			if u.Done() {
				a.dFP22[i][j] = u.Result()
			}
		}
	}
}

// AllDone reports whether every output cell holds its final value.
func (a *Array) AllDone() bool {
	for i := 0; i < a.M; i++ {
		for j := 0; j < a.N; j++ {
			if !a.units[i][j].Done() {
				return false
			}
		}
	}
	return true
}

// RunToCompletion ticks until every output is valid or maxCycles is
// exhausted. Returns the number of cycles taken. On ErrCycleBudgetExceeded
// the array's state is indeterminate and must be Reset before reuse.
func (a *Array) RunToCompletion(maxCycles int) (int, error) {
	if !a.inputLoaded {
		return 0, nil
	}
	cycles := 0
	for !a.AllDone() {
		if cycles >= maxCycles {
			return cycles, ErrCycleBudgetExceeded
		}
		a.Tick()
		cycles++
	}
	return cycles, nil
}

// ResultFP22 reads output cell (i,j) as packed FP22. Defined only after
// that cell's unit has completed.
func (a *Array) ResultFP22(i, j int) uint32 { return a.dFP22[i][j] }

// CompletedCount returns how many of the M*N output cells currently hold
// a final value — useful for progress reporting without exposing the
// per-unit state directly.
func (a *Array) CompletedCount() int {
	n := 0
	for i := 0; i < a.M; i++ {
		for j := 0; j < a.N; j++ {
			if a.units[i][j].Done() {
				n++
			}
		}
	}
	return n
}

// CyclesTaken returns the cycle counter since the last Reset.
func (a *Array) CyclesTaken() int { return a.cycleCount }
