package misc

import (
	"math"
	"math/rand"

	"github.com/x448/float16"
	"gonum.org/v1/gonum/mat"

	"opentensorcore/src/fp"
)

// isFP16 reports whether f is the IEEE half-precision format, in which
// case the golden layer delegates to github.com/x448/float16 rather than
// the generic bit-trick path below, so the ambient layer exercises a
// real third-party narrow-float library for the one format that has one.
func isFP16(f fp.Format) bool { return f.ExpWidth == 5 && f.Precision == 11 }

// This file is the host-double golden-reference collaborator named in §6:
// "host-double golden computation... external collaborator" and is not
// part of the bit-exact §4.3/§4.4/§4.5 core. DoubleToBits/BitsToDouble
// round ordinary float64 values into and out of any fp.Format using plain
// IEEE round-to-nearest-even host arithmetic; GoldenMatmul composes them
// with a gonum dense matrix multiply to produce the cross-check the CLI
// reports alongside the pipelined and bit-exact reference results.

// BitsToDouble decodes a packed value in format f into a float64,
// following the ordinary IEEE unpack rule (§3's hidden-bit convention).
func BitsToDouble(bits uint32, f fp.Format) float64 {
	if isFP16(f) {
		return float64(float16.Frombits(uint16(bits)).Float32())
	}

	sign, exp, mant := f.Unpack(bits)
	if f.IsNaN(bits) {
		return math.NaN()
	}
	if f.IsInf(bits) {
		if sign {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	if f.IsZero(bits) {
		if sign {
			return math.Copysign(0, -1)
		}
		return 0
	}

	mantW := f.MantWidth()
	var frac float64
	var e int
	if exp == 0 {
		frac = float64(mant) / float64(uint32(1)<<uint(mantW))
		e = 1 - f.Bias()
	} else {
		frac = 1 + float64(mant)/float64(uint32(1)<<uint(mantW))
		e = int(exp) - f.Bias()
	}

	v := frac * math.Pow(2, float64(e))
	if sign {
		v = -v
	}
	return v
}

// DoubleToBits encodes a float64 into format f, round-to-nearest-even,
// saturating on overflow the same way §4.3's overflow policy does for
// RNE (Inf, or max-finite for a NoInf format like FP8 E4M3).
func DoubleToBits(v float64, f fp.Format) uint32 {
	if isFP16(f) {
		return uint32(float16.Fromfloat32(float32(v)).Bits())
	}

	sign := math.Signbit(v)

	if math.IsNaN(v) {
		return f.QuietNaN(sign)
	}
	if math.IsInf(v, 0) {
		if f.NoInf {
			return f.MaxFinite(sign)
		}
		return f.Inf(sign)
	}

	av := math.Abs(v)
	if av == 0 {
		return f.Zero(sign)
	}

	frac, exp2 := math.Frexp(av) // av = frac * 2^exp2, frac in [0.5, 1)
	frac *= 2
	exp2--

	mantW := f.MantWidth()
	biasedExp := exp2 + f.Bias()

	overflow := func() uint32 {
		if f.NoInf {
			return f.MaxFinite(sign)
		}
		return f.Inf(sign)
	}

	if biasedExp >= f.MaxExp() {
		return overflow()
	}

	if biasedExp <= 0 {
		shift := 1 - biasedExp
		scale := math.Pow(2, float64(mantW-shift))
		m := uint32(math.RoundToEven(frac * scale))
		maxM := uint32(1) << uint(mantW)
		if m >= maxM {
			return f.Pack(sign, 1, 0)
		}
		return f.Pack(sign, 0, m)
	}

	m := uint32(math.RoundToEven((frac - 1) * math.Pow(2, float64(mantW))))
	exp := biasedExp
	if m >= uint32(1)<<uint(mantW) {
		m = 0
		exp++
		if exp >= f.MaxExp() {
			return overflow()
		}
	}
	return f.Pack(sign, uint32(exp), m)
}

// IdentityMatrix returns the n×n identity, packed in format f.
func IdentityMatrix(n int, f fp.Format) [][]uint32 {
	one := DoubleToBits(1, f)
	zero := f.Zero(false)
	out := make([][]uint32, n)
	for i := range out {
		out[i] = make([]uint32, n)
		for j := range out[i] {
			if i == j {
				out[i][j] = one
			} else {
				out[i][j] = zero
			}
		}
	}
	return out
}

// ConstantMatrix returns a rows×cols matrix with every element equal to
// v, packed in format f.
func ConstantMatrix(rows, cols int, f fp.Format, v float64) [][]uint32 {
	bits := DoubleToBits(v, f)
	out := make([][]uint32, rows)
	for i := range out {
		out[i] = make([]uint32, cols)
		for j := range out[i] {
			out[i][j] = bits
		}
	}
	return out
}

// RowRampMatrix returns a rows×cols matrix that is zero everywhere except
// row rampRow, which holds 0, 1, 2, ... cols-1 — the pattern Testable
// Properties scenario 3 uses for B.
func RowRampMatrix(rows, cols int, f fp.Format, rampRow int) [][]uint32 {
	zero := f.Zero(false)
	out := make([][]uint32, rows)
	for i := range out {
		out[i] = make([]uint32, cols)
		for j := range out[i] {
			if i == rampRow {
				out[i][j] = DoubleToBits(float64(j), f)
			} else {
				out[i][j] = zero
			}
		}
	}
	return out
}

// RandomMatrix returns a rows×cols matrix of independent uniform values
// in [-scale, scale], packed in format f.
func RandomMatrix(rows, cols int, f fp.Format, rng *rand.Rand, scale float64) [][]uint32 {
	out := make([][]uint32, rows)
	for i := range out {
		out[i] = make([]uint32, cols)
		for j := range out[i] {
			out[i][j] = DoubleToBits((rng.Float64()*2-1)*scale, f)
		}
	}
	return out
}

// GoldenMatmul computes D = A×B + C entirely in host float64 via a gonum
// dense matrix multiply, then rounds the result into outputPrec. aRaw,
// bRaw, and cRaw are packed in inputPrec. This is the "golden reference
// computation in host floating point" named in §6 as an external
// collaborator — it is deliberately independent of tensorcore.ReferenceMatmul,
// which is the bit-exact model the pipelined engine must match.
func GoldenMatmul(aRaw, bRaw, cRaw [][]uint32, inputPrec, outputPrec fp.Format) [][]uint32 {
	m := len(aRaw)
	k := len(bRaw)
	n := len(cRaw[0])

	ad := mat.NewDense(m, k, nil)
	for i := 0; i < m; i++ {
		for kk := 0; kk < k; kk++ {
			ad.Set(i, kk, BitsToDouble(aRaw[i][kk], inputPrec))
		}
	}
	bd := mat.NewDense(k, n, nil)
	for kk := 0; kk < k; kk++ {
		for j := 0; j < n; j++ {
			bd.Set(kk, j, BitsToDouble(bRaw[kk][j], inputPrec))
		}
	}

	var prod mat.Dense
	prod.Mul(ad, bd)

	out := make([][]uint32, m)
	for i := 0; i < m; i++ {
		out[i] = make([]uint32, n)
		for j := 0; j < n; j++ {
			d := prod.At(i, j) + BitsToDouble(cRaw[i][j], inputPrec)
			out[i][j] = DoubleToBits(d, outputPrec)
		}
	}
	return out
}

// MaxAbsError reports the largest |golden - observed| over two matrices
// already decoded to host doubles, for statistics reporting.
func MaxAbsError(golden, observed [][]float64) float64 {
	max := 0.0
	for i := range golden {
		for j := range golden[i] {
			d := math.Abs(golden[i][j] - observed[i][j])
			if d > max {
				max = d
			}
		}
	}
	return max
}

// DecodeMatrix decodes every element of a packed matrix to host float64
// for printing or error-statistics comparisons.
func DecodeMatrix(raw [][]uint32, f fp.Format) [][]float64 {
	out := make([][]float64, len(raw))
	for i, row := range raw {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = BitsToDouble(v, f)
		}
	}
	return out
}
