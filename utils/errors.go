package utils

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks parameter combinations rejected before any work is done.
var ErrConfiguration = errors.New("configuration error")

func ConfigErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
