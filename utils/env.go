package utils

import (
	"os"
	"strconv"
	"strings"

	"go.viam.com/planctx/logging"
)

// NumThreadsEnvVar overrides the default number of planners run concurrently in one batch.
const NumThreadsEnvVar = "MP_NUM_THREADS"

// GetenvInt returns the integer value of the environment variable `name`, or `def` when the
// variable is unset or cannot be parsed.
func GetenvInt(name string, def int) int {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logging.Global().Warnw("ignoring malformed integer environment variable", "name", name, "value", raw)
		return def
	}
	return val
}

// GetenvFloat is GetenvInt for floating point values.
func GetenvFloat(name string, def float64) float64 {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		logging.Global().Warnw("ignoring malformed float environment variable", "name", name, "value", raw)
		return def
	}
	return val
}
