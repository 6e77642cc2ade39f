package tickcoord

import (
	"log/slog"
	"strings"
)

// applyCommand interprets one operator line against the current
// speed/pause state, returning the updated state and whether the
// coordinator should shut down. Matches original_source's CLI handlers for
// 'p', '+', '-', and 'quit' exactly, including the speed clamp.
func applyCommand(logger *slog.Logger, line string, speed float64, paused bool) (newSpeed float64, newPaused bool, quit bool) {
	cmd := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(cmd, "p"):
		paused = !paused
		if paused {
			logger.Info("simulation_paused")
		} else {
			logger.Info("simulation_resumed")
		}
	case strings.HasPrefix(cmd, "+"):
		speed *= 2.0
		if speed > maxSpeed {
			speed = maxSpeed
		}
		logger.Info("speed_change", "speed", speed)
	case strings.HasPrefix(cmd, "-"):
		speed /= 2.0
		if speed < minSpeed {
			speed = minSpeed
		}
		logger.Info("speed_change", "speed", speed)
	case cmd == "quit":
		logger.Info("operator_quit")
		return speed, paused, true
	default:
		logger.Info("operator_unknown_command", "command", cmd)
	}
	return speed, paused, false
}
