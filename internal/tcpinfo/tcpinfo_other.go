//go:build !linux

package tcpinfo

import (
	"errors"
	"net"
	"time"
)

// Info mirrors the Linux variant's shape so callers compile unconditionally.
type Info struct {
	RTT         time.Duration
	RTTVar      time.Duration
	Retransmits uint32
	SndCwnd     uint32
}

var errUnsupported = errors.New("tcpinfo: unsupported on this platform")

// Get always fails outside Linux.
func Get(conn net.Conn) (Info, error) {
	return Info{}, errUnsupported
}

// Available reports whether TCP_INFO can be read on this platform.
const Available = false
