//go:build linux

// Package tcpinfo reads TCP_INFO socket statistics for diagnostic
// gauges (RTT, retransmits, congestion window). Linux-only; other
// platforms get the no-op stub in tcpinfo_other.go.
package tcpinfo

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// Info is the subset of TCP_INFO this module's metrics expose. Trimmed
// from runZeroInc-sockstats's hand-rolled RawTCPInfo struct down to the
// fields peripheral actually reports, reading them via the standard
// golang.org/x/sys/unix binding instead of a hand-written syscall struct.
type Info struct {
	RTT         time.Duration
	RTTVar      time.Duration
	Retransmits uint32
	SndCwnd     uint32
}

// Get reads TCP_INFO for conn, which must wrap a *net.TCPConn.
func Get(conn net.Conn) (Info, error) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return Info{}, fmt.Errorf("tcpinfo: not a TCP connection")
	}
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return Info{}, fmt.Errorf("tcpinfo: syscall conn: %w", err)
	}

	var ti *unix.TCPInfo
	var getErr error
	if err := rawConn.Control(func(fd uintptr) {
		ti, getErr = unix.GetsockoptTCPInfo(int(fd), unix.IPPROTO_TCP, unix.TCP_INFO)
	}); err != nil {
		return Info{}, fmt.Errorf("tcpinfo: control: %w", err)
	}
	if getErr != nil {
		return Info{}, fmt.Errorf("tcpinfo: getsockopt: %w", getErr)
	}

	return Info{
		RTT:         time.Duration(ti.Rtt) * time.Microsecond,
		RTTVar:      time.Duration(ti.Rttvar) * time.Microsecond,
		Retransmits: ti.Retransmits,
		SndCwnd:     ti.Snd_cwnd,
	}, nil
}

// Available reports whether TCP_INFO can be read on this platform.
const Available = true
