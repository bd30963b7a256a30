package fp

import "testing"

func TestPackUnpackRoundTrip(t *testing.T) {
	formats := []Format{FormatFP4E2M1, FormatFP8E4M3, FormatFP8E5M2, FormatFP9E5M3,
		FormatFP13E5M7, FormatFP16, FormatFP22E8M13, FormatFP32}

	for _, f := range formats {
		bits := f.Pack(true, 3, 1)
		sign, exp, mant := f.Unpack(bits)
		if !sign || exp != 3 || mant != 1 {
			t.Fatalf("%s: Unpack(Pack(true,3,1)) = (%v,%d,%d)", f.Name, sign, exp, mant)
		}
	}
}

func TestZeroIsSignedAndHasNoMagnitude(t *testing.T) {
	f := FormatFP8E5M2
	pz := f.Zero(false)
	nz := f.Zero(true)
	if !f.IsZero(pz) || !f.IsZero(nz) {
		t.Fatalf("expected both signed zeros to be recognized as zero")
	}
	if pz == nz {
		t.Fatalf("expected +0 and -0 to have distinct bit patterns")
	}
}

func TestFP8E5M2InfAndNaN(t *testing.T) {
	f := FormatFP8E5M2
	inf := f.Inf(false)
	if !f.IsInf(inf) || f.IsNaN(inf) {
		t.Fatalf("expected FP8 E5M2 Inf() to be infinity, not NaN")
	}
	nan := f.QuietNaN(false)
	if !f.IsNaN(nan) || f.IsInf(nan) {
		t.Fatalf("expected FP8 E5M2 QuietNaN() to be NaN, not infinity")
	}
	if f.IsSNaN(nan) {
		t.Fatalf("QuietNaN must not be signaling")
	}
}

func TestFP8E4M3HasNoInfinityAndSaturates(t *testing.T) {
	f := FormatFP8E4M3
	if f.IsInf(f.Pack(false, 15, 7)) {
		t.Fatalf("FP8 E4M3 has no infinity encoding")
	}
	// (e=15,m=7) is the canonical NaN; with no infinity encoding, every
	// other exponent-all-ones codepoint is NaN too, so (e=14,m=7) is the
	// largest finite value.
	if !f.IsNaN(f.Pack(false, 15, 7)) {
		t.Fatalf("expected (e=15,m=7) to be NaN for FP8 E4M3")
	}
	if !f.IsNaN(f.Pack(false, 15, 6)) {
		t.Fatalf("expected (e=15,m=6) to be NaN for FP8 E4M3, which has no finite exponent-all-ones value")
	}
	maxFinite := f.MaxFinite(false)
	if _, exp, mant := f.Unpack(maxFinite); exp != 14 || mant != 7 {
		t.Fatalf("expected MaxFinite = (e=14,m=7), got (e=%d,m=%d)", exp, mant)
	}
}

func TestSignalingNaNDetection(t *testing.T) {
	f := FormatFP16
	quiet := f.QuietNaN(false)
	if f.IsSNaN(quiet) {
		t.Fatalf("quiet bit set must not be classified as signaling")
	}
	signaling := f.Pack(false, uint32(f.MaxExp()), 1) // quiet bit clear, payload bit set
	if !f.IsSNaN(signaling) {
		t.Fatalf("mantissa MSB clear with a nonzero payload must be signaling")
	}
}

func TestWidthsMatchSpecTable(t *testing.T) {
	cases := []struct {
		f    Format
		want int
	}{
		{FormatFP4E2M1, 4},
		{FormatFP8E4M3, 8},
		{FormatFP8E5M2, 8},
		{FormatFP9E5M3, 9},
		{FormatFP16, 16},
		{FormatFP22E8M13, 22},
		{FormatFP32, 32},
	}
	for _, c := range cases {
		if got := c.f.Width(); got != c.want {
			t.Fatalf("%s: Width() = %d, want %d", c.f.Name, got, c.want)
		}
	}
}

func TestBiasMatchesSpecTable(t *testing.T) {
	cases := []struct {
		f    Format
		want int
	}{
		{FormatFP4E2M1, 1},
		{FormatFP8E4M3, 7},
		{FormatFP8E5M2, 15},
		{FormatFP9E5M3, 15},
		{FormatFP16, 15},
		{FormatFP22E8M13, 127},
		{FormatFP32, 127},
	}
	for _, c := range cases {
		if got := c.f.Bias(); got != c.want {
			t.Fatalf("%s: Bias() = %d, want %d", c.f.Name, got, c.want)
		}
	}
}
