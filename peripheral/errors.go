package peripheral

import "errors"

// Sentinel errors, classified via errors.Is.
var (
	ErrNotInitialized = errors.New("peripheral: not initialized")
	ErrBind           = errors.New("peripheral: bind")
	ErrConnect        = errors.New("peripheral: connect")
	ErrUnavailable    = errors.New("peripheral: peer unavailable")
	ErrInvalidArg     = errors.New("peripheral: invalid argument")
)
