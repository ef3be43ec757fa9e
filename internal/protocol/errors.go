package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownType      = errors.New("protocol: unknown message type")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	ErrTruncatedPayload = errors.New("protocol: truncated payload")
	ErrBufferTooSmall   = errors.New("protocol: buffer too small")
	ErrTypeMismatch     = errors.New("protocol: message type mismatch")
	ErrOversizedFrame   = errors.New("protocol: frame exceeds maximum size")
	ErrUnsupportedStep  = errors.New("protocol: unsupported slice step")
	ErrInvalidSync      = errors.New("protocol: invalid sync marker")
	ErrListTooLong      = errors.New("protocol: message list too long")
	ErrNilMessage       = errors.New("protocol: nil message")
	ErrSizeMismatch     = errors.New("protocol: serialized size mismatch")
	ErrDuplicateType    = errors.New("protocol: duplicate message type")
	ErrRegistrySealed   = errors.New("protocol: registry sealed")
)

// ValidationError describes the first field constraint a message violates.
type ValidationError struct {
	Message string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("protocol: message=%s: %s", e.Message, e.Reason)
	}
	return fmt.Sprintf("protocol: message=%s field=%s: %s", e.Message, e.Field, e.Reason)
}
