package misc

import "opentensorcore/src/fp"

// PrecisionTag is the CLI/config-facing name for one of §3's precision
// tags. Like RoundingModeTag, it exists so the core fp/tensorcore
// packages never need to parse a string.
type PrecisionTag string

const (
	PrecisionFP4E2M1 PrecisionTag = "fp4_e2m1"
	PrecisionFP8E4M3 PrecisionTag = "fp8_e4m3"
	PrecisionFP8E5M2 PrecisionTag = "fp8_e5m2"
	PrecisionFP16    PrecisionTag = "fp16"
	PrecisionFP22    PrecisionTag = "fp22"
	PrecisionFP32    PrecisionTag = "fp32"
)

// DefaultPrecisionTag returns the precision used when no explicit
// selection is made.
func DefaultPrecisionTag() PrecisionTag {
	return PrecisionFP8E4M3
}

// PrecisionTagFromString converts an arbitrary string into a
// PrecisionTag. When the provided value is unknown the bool return will
// be false.
func PrecisionTagFromString(value string) (PrecisionTag, bool) {
	switch value {
	case string(PrecisionFP4E2M1):
		return PrecisionFP4E2M1, true
	case string(PrecisionFP8E4M3):
		return PrecisionFP8E4M3, true
	case string(PrecisionFP8E5M2):
		return PrecisionFP8E5M2, true
	case string(PrecisionFP16):
		return PrecisionFP16, true
	case string(PrecisionFP22):
		return PrecisionFP22, true
	case string(PrecisionFP32):
		return PrecisionFP32, true
	default:
		return "", false
	}
}

// ToFormat translates the tag into the fp package's Format.
func (t PrecisionTag) ToFormat() fp.Format {
	switch t {
	case PrecisionFP4E2M1:
		return fp.FormatFP4E2M1
	case PrecisionFP8E4M3:
		return fp.FormatFP8E4M3
	case PrecisionFP8E5M2:
		return fp.FormatFP8E5M2
	case PrecisionFP16:
		return fp.FormatFP16
	case PrecisionFP22:
		return fp.FormatFP22E8M13
	case PrecisionFP32:
		return fp.FormatFP32
	default:
		return fp.FormatFP8E4M3
	}
}

// IsValidInputPrecision reports whether t is one of the formats the
// tensor-core entry front end accepts (§4.9's "unsupported format tag"
// check): FP4, FP8 E4M3, FP8 E5M2, or FP16.
func IsValidInputPrecision(t PrecisionTag) bool {
	switch t {
	case PrecisionFP4E2M1, PrecisionFP8E4M3, PrecisionFP8E5M2, PrecisionFP16:
		return true
	default:
		return false
	}
}

// IsValidOutputPrecision reports whether t is one of the formats the
// output back end accepts: FP8 E4M3, FP8 E5M2, FP16, or FP32.
func IsValidOutputPrecision(t PrecisionTag) bool {
	switch t {
	case PrecisionFP8E4M3, PrecisionFP8E5M2, PrecisionFP16, PrecisionFP32:
		return true
	default:
		return false
	}
}
