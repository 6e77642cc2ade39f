package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Reply tokens for the request/reply channel.
const (
	ReplyACK    = "ACK"
	ReplyERR    = "ERR"
	ReplyDupID  = "DUP_ID"
	readyPrefix = "READY "
)

// MaxIDLen is the maximum printable length of a client identifier, not
// counting the terminator.
const MaxIDLen = 63

// ErrIDTooLong is returned by BuildReady when id exceeds MaxIDLen.
var ErrIDTooLong = errors.New("wire: client id too long")

// BuildReady constructs the literal "READY <id>" registration request.
func BuildReady(id string) (string, error) {
	if id == "" {
		return "", errors.New("wire: empty client id")
	}
	if len(id) > MaxIDLen {
		return "", fmt.Errorf("%w: %d > %d", ErrIDTooLong, len(id), MaxIDLen)
	}
	return readyPrefix + id, nil
}

// ParseReady parses a handshake request payload. ok is false for anything
// that isn't a well-formed "READY <id>" message (missing space, wrong
// prefix, or empty id).
func ParseReady(payload string) (id string, ok bool) {
	if !strings.HasPrefix(payload, readyPrefix) {
		return "", false
	}
	id = payload[len(readyPrefix):]
	if id == "" {
		return "", false
	}
	return id, true
}
