package params

import "errors"

var (
	ErrUnknownBinding   = errors.New("unknown parameter")
	ErrDuplicateBinding = errors.New("parameter already bound")
	ErrInvalidBinding   = errors.New("invalid parameter binding")
	ErrKindMismatch     = errors.New("parameter value has the wrong kind")
	ErrInvalidViewport  = errors.New("invalid viewport")
)
