package misc

import "opentensorcore/src/fp"

// RoundingModeTag is the CLI/config-facing name for one of §3's five
// rounding modes. It is the ambient-layer counterpart of fp.RoundingMode:
// the core package never parses strings or holds a default, so that
// translation lives here instead.
type RoundingModeTag string

const (
	RoundingModeRNE RoundingModeTag = "rne"
	RoundingModeRTZ RoundingModeTag = "rtz"
	RoundingModeRDN RoundingModeTag = "rdn"
	RoundingModeRUP RoundingModeTag = "rup"
	RoundingModeRMM RoundingModeTag = "rmm"
)

// DefaultRoundingModeTag returns the mode used when no explicit selection
// is made.
func DefaultRoundingModeTag() RoundingModeTag {
	return RoundingModeRNE
}

// RoundingModeTagFromString converts an arbitrary string into a
// RoundingModeTag. When the provided value is unknown the bool return
// will be false.
func RoundingModeTagFromString(value string) (RoundingModeTag, bool) {
	switch value {
	case string(RoundingModeRNE):
		return RoundingModeRNE, true
	case string(RoundingModeRTZ):
		return RoundingModeRTZ, true
	case string(RoundingModeRDN):
		return RoundingModeRDN, true
	case string(RoundingModeRUP):
		return RoundingModeRUP, true
	case string(RoundingModeRMM):
		return RoundingModeRMM, true
	default:
		return "", false
	}
}

// ToFP translates the tag into the fp package's RoundingMode.
func (t RoundingModeTag) ToFP() fp.RoundingMode {
	switch t {
	case RoundingModeRTZ:
		return fp.RTZ
	case RoundingModeRDN:
		return fp.RDN
	case RoundingModeRUP:
		return fp.RUP
	case RoundingModeRMM:
		return fp.RMM
	default:
		return fp.RNE
	}
}
