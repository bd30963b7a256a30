package tensorcore

// Driver is a thin wrapper exposing an Array as a single-step pipeline,
// grounded on pipeline.{h,cpp}'s Pipeline::step/sim. It adds no behavior
// over Array.Tick; it exists because callers that want "step the
// hardware one cycle" without touching job-loading details find this a
// smaller surface than Array itself.
type Driver struct {
	array *Array
}

// NewDriver wraps an already-constructed Array.
func NewDriver(a *Array) *Driver { return &Driver{array: a} }

// Step advances one simulated cycle. valid is accepted for symmetry with
// the grounding source's handshaked step signature but carries no
// meaning here: Array.Tick is unconditional once a job is loaded, same as
// Pipeline::step ignoring its valid argument.
func (d *Driver) Step(valid bool) error {
	_ = valid
	d.array.Tick()
	return nil
}

// Array returns the wrapped array.
func (d *Driver) Array() *Array { return d.array }

// RunToCompletion steps the wrapped array one cycle at a time, via Step,
// until every output cell is valid or maxCycles is exhausted. It mirrors
// Array.RunToCompletion's loop but goes through the single-step surface a
// host harness that wants to inspect state between cycles would use,
// rather than handing the whole run to Array directly.
func (d *Driver) RunToCompletion(maxCycles int) (int, error) {
	if !d.array.inputLoaded {
		return 0, nil
	}
	cycles := 0
	for !d.array.AllDone() {
		if cycles >= maxCycles {
			return cycles, ErrCycleBudgetExceeded
		}
		if err := d.Step(true); err != nil {
			return cycles, err
		}
		cycles++
	}
	return cycles, nil
}
