package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/TrySpaceOrg/simulith-go/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"ticks", snap.Ticks,
					"clients_registered", snap.ClientsRegistered,
					"clients_rejected", snap.ClientsRejected,
					"clients_duplicate", snap.ClientsDuplicate,
					"clients_active", snap.ClientsActive,
					"peripheral_sent_bytes", snap.SentBytes,
					"peripheral_received_bytes", snap.ReceivedBytes,
					"peripheral_dropped", snap.MessagesDropped,
					"peripheral_send_overflow", snap.SendOverflow,
					"errors", snap.Errors,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
