package session

import (
	"errors"
	"fmt"

	"github.com/leofalp/mathchat/internal/errorsx"
)

var (
	// ErrToolRoundsExceeded aborts a turn whose model keeps requesting tools
	// beyond the configured number of rounds.
	ErrToolRoundsExceeded = errors.New("tool rounds exceeded")

	// ErrClosed is returned by Turn once the session reached StateClosed.
	ErrClosed = errors.New("session closed")
)

func toolRoundsExceeded(limit int) error {
	return errorsx.Wrap(
		fmt.Errorf("%w: model still requested tools after %d rounds", ErrToolRoundsExceeded, limit),
		errorsx.ReasonSessionToolRounds,
	)
}

// isFatal reports whether err should stop Run instead of moving on to the
// next line of input.
func isFatal(err error) bool {
	var invalid *InvalidTransitionError
	return errors.As(err, &invalid) || errors.Is(err, ErrClosed)
}
