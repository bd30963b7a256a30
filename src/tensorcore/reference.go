package tensorcore

import "opentensorcore/src/fp"

// ReferenceMatmul is the non-pipelined reference model (§6): it composes
// §4.3/§4.4/§4.5's bit-exact primitives directly, with no pipeline
// registers, no elastic handshaking, and no host-double shortcuts (the
// anti-pattern named in the Design Notes). Per §8's universal invariant,
// this must agree bit-for-bit with Array's pipelined output for every
// input.
//
// aFP9 is M×K, bFP9 is K×N, cFP22 is M×N; the result is M×N, packed FP22.
func ReferenceMatmul(aFP9, bFP9, cFP22 [][]uint32, rm fp.RoundingMode) [][]uint32 {
	m := len(aFP9)
	k := len(bFP9)
	n := len(cFP22[0])

	d := make([][]uint32, m)
	for i := range d {
		d[i] = make([]uint32, n)
	}

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			products := make([]uint32, k)
			for kk := 0; kk < k; kk++ {
				products[kk] = fp.Multiply(aFP9[i][kk], bFP9[kk][j], fp.FormatFP9E5M3, rm)
			}

			// Level 0 pairs (k, k+K/2) — the canonical butterfly decided
			// in SPEC_FULL.md §D; every subsequent level pairs (2i, 2i+1).
			level := products
			if half := len(level) / 2; half > 0 {
				first := make([]uint32, half)
				for a := 0; a < half; a++ {
					first[a] = tcFP9Add(level[a], level[a+half], rm)
				}
				level = first
			}
			for len(level) > 1 {
				next := make([]uint32, len(level)/2)
				for a := range next {
					next[a] = tcFP9Add(level[2*a], level[2*a+1], rm)
				}
				level = next
			}

			sumFP22 := fp.FP9ToFP22(level[0])
			d[i][j] = tcFP22Add(sumFP22, cFP22[i][j], rm)
		}
	}

	return d
}
