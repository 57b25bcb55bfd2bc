package animation

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks setup mistakes that should abort a scene load.
	ErrConfiguration = errors.New("animation: configuration error")
	ErrNotFound      = errors.New("animation: not found")
	ErrDuplicateName = fmt.Errorf("%w: duplicate animation name", ErrConfiguration)
)

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
