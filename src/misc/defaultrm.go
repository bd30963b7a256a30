package misc

import "sync"

var (
	runtimeDefaultRoundingMode     = DefaultRoundingModeTag()
	runtimeDefaultRoundingModeLock sync.RWMutex
)

// SetRuntimeDefaultRoundingMode records the rounding mode the user passed
// on argv. This is deliberately narrow: it is CLI-layer convenience for
// main(), never read by fp/pipeline/tensorcore, which hold no
// process-wide state (Design Notes, "mutable global state").
func SetRuntimeDefaultRoundingMode(mode RoundingModeTag) {
	runtimeDefaultRoundingModeLock.Lock()
	defer runtimeDefaultRoundingModeLock.Unlock()

	runtimeDefaultRoundingMode = mode
}

// RuntimeDefaultRoundingMode returns the currently configured default.
func RuntimeDefaultRoundingMode() RoundingModeTag {
	runtimeDefaultRoundingModeLock.RLock()
	defer runtimeDefaultRoundingModeLock.RUnlock()

	return runtimeDefaultRoundingMode
}
