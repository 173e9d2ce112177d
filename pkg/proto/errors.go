package proto

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrReset            = errors.New("reset line failed")
	ErrBusWrite         = errors.New("bus write failed")
	ErrBusRead          = errors.New("bus read failed")
	ErrSelectLine       = errors.New("select line failed")
	ErrUnsupportedFrame = errors.New("unsupported payload shape")
	ErrOutOfBounds      = errors.New("pixel out of bounds")
)

// Error carries one of the sentinel kinds above together with the
// underlying cause. errors.Is matches the kind, errors.Unwrap yields the cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func NewError(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}
