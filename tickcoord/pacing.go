package tickcoord

import (
	"runtime"
	"time"
)

// Speed bounds, matching original_source's clamp in the '+'/'-' CLI
// handlers: doubling/halving saturates at [2^-6, 2^10].
const (
	minSpeed = 1.0 / 64.0
	maxSpeed = 1024.0
)

// cliCheckInterval returns how many barrier-wait iterations elapse between
// operator-input polls, scaled down as speed increases so high-speed runs
// don't spend cycles servicing stdin. Matches the five-tier table in
// original_source/src/simulith_server.c exactly.
func cliCheckInterval(speed float64) int {
	switch {
	case speed >= 256:
		return 50000
	case speed >= 128:
		return 20000
	case speed >= 64:
		return 10000
	case speed >= 16:
		return 1000
	default:
		return 100
	}
}

// pace is invoked once per barrier-wait iteration when no ack was
// available. At extreme speeds it busy-spins with no yield at all; at
// moderate speeds it yields the processor; at low speeds it takes a short
// sleep since the wait will be comparatively long anyway.
func pace(speed float64) {
	switch {
	case speed >= 128:
		return
	case speed >= 16:
		runtime.Gosched()
	default:
		time.Sleep(time.Microsecond)
	}
}

// sleepRemaining waits out the difference between the target tick duration
// and however long the tick actually took, using a strategy tiered by
// speed: skip entirely at extreme speed, busy-spin for precision at high
// speed, or a normal sleep otherwise.
func sleepRemaining(remaining time.Duration, speed float64) {
	if remaining <= 0 {
		return
	}
	switch {
	case speed >= 256:
		return
	case speed >= 64:
		deadline := time.Now().Add(remaining)
		for time.Now().Before(deadline) {
		}
	default:
		time.Sleep(remaining)
	}
}
