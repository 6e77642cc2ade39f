package tickclient

import "errors"

// Sentinel errors, classified via errors.Is.
var (
	ErrNotConnected = errors.New("tickclient: not connected")
	ErrHandshake    = errors.New("tickclient: handshake rejected")
	ErrDuplicateID  = errors.New("tickclient: duplicate client id")
	ErrClosed       = errors.New("tickclient: closed")
)
