package tickcoord

import (
	"encoding/json"

	"github.com/google/renameio/v2"
)

// statusSnapshot is written atomically to c.statusPath (when configured) so
// an external operator tool can read a consistent view without racing a
// partial write.
type statusSnapshot struct {
	SimTimeNs        uint64   `json:"sim_time_ns"`
	Speed            float64  `json:"speed"`
	Paused           bool     `json:"paused"`
	ClientsExpected  int      `json:"clients_expected"`
	ClientsConnected int      `json:"clients_connected"`
	ClientIDs        []string `json:"client_ids"`
	Subscribers      int      `json:"subscribers"`
}

// writeStatus renders the current coordinator state and rewrites
// c.statusPath atomically (rename-into-place), tolerating a write failure
// by logging and continuing rather than ever blocking the tick loop on it.
func (c *Coordinator) writeStatus(speed float64, paused bool) {
	snap := statusSnapshot{
		SimTimeNs:        c.currentTimeNs.Load(),
		Speed:            speed,
		Paused:           paused,
		ClientsExpected:  c.clientCount,
		ClientsConnected: c.registry.count(),
		ClientIDs:        c.registry.ids(),
		Subscribers:      c.subs.count(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		c.logger.Warn("status_marshal_error", "error", err)
		return
	}
	if err := renameio.WriteFile(c.statusPath, data, 0o644); err != nil {
		c.logger.Warn("status_write_error", "error", err, "path", c.statusPath)
	}
}
