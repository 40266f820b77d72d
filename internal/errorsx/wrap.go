package errorsx

import "errors"

// ReasonedError wraps an error with a reason code.
type ReasonedError struct {
	Err    error
	Reason ReasonCode
}

func (e ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e ReasonedError) Unwrap() error {
	return e.Err
}

// Reasoner is implemented by typed errors that carry their own reason code.
type Reasoner interface {
	ReasonCode() ReasonCode
}

// Wrap attaches a reason code to an error (no-op if err is nil or already reasoned).
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	if Reason(err) != ReasonUnknown {
		return err
	}
	return ReasonedError{Err: err, Reason: reason}
}

// Reason extracts the outermost reason code from an error, if present.
func Reason(err error) ReasonCode {
	for err != nil {
		switch e := err.(type) {
		case ReasonedError:
			return e.Reason
		case Reasoner:
			return e.ReasonCode()
		}
		next := errors.Unwrap(err)
		if next == nil {
			if joined, ok := err.(interface{ Unwrap() []error }); ok {
				for _, inner := range joined.Unwrap() {
					if reason := Reason(inner); reason != ReasonUnknown {
						return reason
					}
				}
			}
			return ReasonUnknown
		}
		err = next
	}
	return ReasonUnknown
}

// HasReason returns true if err contains the given reason code.
func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}
