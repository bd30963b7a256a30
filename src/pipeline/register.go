// Package pipeline provides the elastic two-slot pipeline register that
// every multiply and add stage in the tensor-core datapath is built from,
// matching the valid/ready handshake of the tc_mul_pipe/tc_add_pipe RTL
// modules (PipeStage2<T> in the reference model).
package pipeline

// Stage2 is a two-deep elastic pipeline register carrying a value of type
// T. It holds up to two in-flight tokens (data1 closest to the input,
// data2 closest to the output) and stalls its own input when both slots
// are full and the consumer downstream isn't ready.
type Stage2[T any] struct {
	Data1, Data2   T
	Valid1, Valid2 bool
}

// InReady reports whether this stage can accept a new input this cycle,
// given that the consumer downstream reports outReady.
func (p *Stage2[T]) InReady(outReady bool) bool {
	return !(!outReady && p.Valid1 && p.Valid2)
}

// OutValid reports whether data2 holds a value ready for the consumer.
func (p *Stage2[T]) OutValid() bool { return p.Valid2 }

// OutData returns the value in the output slot. Only meaningful when
// OutValid is true.
func (p *Stage2[T]) OutData() T { return p.Data2 }

// Reset clears both slots.
func (p *Stage2[T]) Reset() {
	var zero T
	p.Valid1, p.Valid2 = false, false
	p.Data1, p.Data2 = zero, zero
}

// Tick advances the register by one clock cycle. compute1 transforms
// inData into what gets latched into the first slot (identity if nil);
// compute2 transforms the first slot's current contents into what gets
// latched into the second slot (identity if nil) — this is where the
// second half of a two-cycle arithmetic stage (e.g. normalize-and-round)
// runs. Tick returns whether inData was actually accepted this cycle.
func (p *Stage2[T]) Tick(inValid bool, inData T, outReady bool, compute1, compute2 func(T) T) bool {
	regEn1 := inValid && !(p.Valid1 && p.Valid2 && !outReady)
	regEn2 := p.Valid1 && !(p.Valid2 && !outReady)

	newValid1, newValid2 := p.Valid1, p.Valid2
	if !(!outReady && p.Valid1 && p.Valid2) {
		newValid1 = inValid
	}
	if !(!outReady && p.Valid2) {
		newValid2 = p.Valid1
	}

	newData1, newData2 := p.Data1, p.Data2
	if regEn1 {
		if compute1 != nil {
			newData1 = compute1(inData)
		} else {
			newData1 = inData
		}
	}
	if regEn2 {
		if compute2 != nil {
			newData2 = compute2(p.Data1)
		} else {
			newData2 = p.Data1
		}
	}

	p.Valid1, p.Valid2 = newValid1, newValid2
	p.Data1, p.Data2 = newData1, newData2

	return regEn1
}
