package rfi

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned by Run when the progress listener requested
// cancellation. The mask produced so far is still returned.
var ErrCancelled = errors.New("flagging cancelled")

// ConfigError reports an invalid configuration: an unsupported image
// count, an unknown action type in a strategy file, or an unsupported
// strategy file version.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Reason
}

// IOError reports a failure to read or write external resources such
// as strategy files or flag outputs.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NumericError reports a NaN escaping the detector; it should not
// arise and is treated as fatal.
type NumericError struct {
	Action string
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("numeric error in %s: NaN in detector output", e.Action)
}
