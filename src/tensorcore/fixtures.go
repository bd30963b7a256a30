package tensorcore

import "opentensorcore/src/fp"

// IdentityFP9Matrix returns the n×n identity matrix, already packed in
// FP9 E5M3. Grounded on otc_driver.cpp's run_identity_case, which builds
// this exact fixture ahead of every identity-matrix smoke run rather than
// constructing it inline at each call site.
func IdentityFP9Matrix(n int) [][]uint32 {
	f := fp.FormatFP9E5M3
	one := f.Pack(false, uint32(f.Bias()), 0)
	zero := f.Zero(false)
	m := make([][]uint32, n)
	for i := range m {
		m[i] = make([]uint32, n)
		for j := range m[i] {
			if i == j {
				m[i][j] = one
			} else {
				m[i][j] = zero
			}
		}
	}
	return m
}

// RampFP9Matrix returns a rows×cols matrix, packed in FP9 E5M3, that is
// zero everywhere except row rampRow, which holds the integers 0..cols-1.
// Companion fixture to IdentityFP9Matrix for Testable Properties scenario 3.
func RampFP9Matrix(rows, cols, rampRow int) [][]uint32 {
	f := fp.FormatFP9E5M3
	zero := f.Zero(false)
	m := make([][]uint32, rows)
	for i := range m {
		m[i] = make([]uint32, cols)
		for j := range m[i] {
			if i != rampRow {
				m[i][j] = zero
				continue
			}
			m[i][j] = fp9FromSmallInt(j)
		}
	}
	return m
}

// ZeroFP22Matrix returns a rows×cols matrix of packed FP22 positive zero,
// the canonical zero-bias fixture for C.
func ZeroFP22Matrix(rows, cols int) [][]uint32 {
	zero := fp.FormatFP22E8M13.Zero(false)
	m := make([][]uint32, rows)
	for i := range m {
		m[i] = make([]uint32, cols)
		for j := range m[i] {
			m[i][j] = zero
		}
	}
	return m
}

// fp9FromSmallInt packs a non-negative integer v (0 <= v < 16) exactly
// into FP9 E5M3; every such value has at most 4 significant bits, so it
// fits the hidden bit plus the format's 3 stored mantissa bits with no
// rounding.
func fp9FromSmallInt(v int) uint32 {
	f := fp.FormatFP9E5M3
	if v == 0 {
		return f.Zero(false)
	}
	shift := 0
	for (v >> uint(shift+1)) > 0 {
		shift++
	}
	mant := uint32(v) &^ (1 << uint(shift))
	mant <<= uint(f.MantWidth() - shift)
	return f.Pack(false, uint32(f.Bias()+shift), mant)
}
