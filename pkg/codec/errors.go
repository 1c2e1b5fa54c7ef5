package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferTooShort is returned when a buffer is smaller than the fixed layout it should hold.
	ErrBufferTooShort = errors.New("codec: buffer too short")
	// ErrUnknownMessageType is matched by decode failures on an unrecognised message discriminant.
	ErrUnknownMessageType = errors.New("codec: unknown message type")
	// ErrUnknownLogType is matched by decode failures on an unrecognised log record discriminant.
	ErrUnknownLogType = errors.New("codec: unknown log type")
)

// UnknownTypeError carries the discriminant byte that could not be dispatched.
type UnknownTypeError struct {
	Kind  error // ErrUnknownMessageType or ErrUnknownLogType
	Value uint8
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%v: %d", e.Kind, e.Value)
}

// Is lets errors.Is match the sentinel for the kind of discriminant.
func (e *UnknownTypeError) Is(target error) bool {
	return target == e.Kind
}

func shortBuffer(what string, got, want int) error {
	return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrBufferTooShort, what, want, got)
}
