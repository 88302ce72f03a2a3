package router

import (
	"errors"
	"fmt"
)

// errSkip marks control frames that carry no market data.
var errSkip = errors.New("control message")

type unknownTypeError struct {
	Type string
}

func (e unknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Type)
}

type invalidEventError struct {
	err error
}

func (e invalidEventError) Error() string {
	return "invalid event: " + e.err.Error()
}

func (e invalidEventError) Unwrap() error {
	return e.err
}

func isUnknown(err error) bool {
	var target unknownTypeError
	return errors.As(err, &target)
}

func isInvalid(err error) bool {
	var target invalidEventError
	return errors.As(err, &target)
}
