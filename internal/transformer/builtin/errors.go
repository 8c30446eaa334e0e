package builtin

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is returned when a transformer names a column the table
// does not have.
var ErrUnknownColumn = errors.New("builtin: unknown column")

func errUnknownColumn(op, name string) error {
	return fmt.Errorf("%s: %w %q", op, ErrUnknownColumn, name)
}
