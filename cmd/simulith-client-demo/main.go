// Command simulith-client-demo is a minimal simulator: it registers with a
// Tick Coordinator, and on every tick it exchanges one byte over a serial
// peripheral bus with its counterpart. It exists as a runnable smoke test
// for end-to-end scenarios outside of go test.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TrySpaceOrg/simulith-go/internal/logging"
	"github.com/TrySpaceOrg/simulith-go/peripheral"
	"github.com/TrySpaceOrg/simulith-go/peripheral/bus"
	"github.com/TrySpaceOrg/simulith-go/tickclient"
)

func main() {
	id := flag.String("id", "", "Unique simulator id presented during the READY handshake")
	pubAddr := flag.String("publish-addr", "127.0.0.1:50000", "Tick coordinator publish address")
	repAddr := flag.String("reply-addr", "127.0.0.1:50001", "Tick coordinator reply address")
	serialAddr := flag.String("serial-addr", "127.0.0.1:51000", "Peripheral serial bus address")
	serialRole := flag.String("serial-role", "server", "Peripheral bus role: server|client")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	flag.Parse()

	if *id == "" {
		fmt.Fprintln(os.Stderr, "simulith-client-demo: -id is required")
		os.Exit(2)
	}

	var lvl slog.Level
	switch *logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	l := logging.New("text", lvl, os.Stderr).With("app", "simulith-client-demo", "id", *id)

	var role peripheral.Role
	switch *serialRole {
	case "server":
		role = peripheral.RoleServer
	case "client":
		role = peripheral.RoleClient
	default:
		l.Error("invalid_serial_role", "role", *serialRole)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	uart := bus.NewSerial(*id+"-uart", *serialAddr, role)
	if err := uart.Init(); err != nil {
		l.Error("serial_init_error", "error", err)
		os.Exit(1)
	}
	defer uart.Close()

	cl := tickclient.New(*pubAddr, *repAddr, *id)
	if err := cl.Connect(ctx); err != nil {
		l.Error("connect_error", "error", err)
		os.Exit(1)
	}
	defer cl.Shutdown()

	if err := cl.Handshake(ctx); err != nil {
		l.Error("handshake_error", "error", err)
		os.Exit(1)
	}
	l.Info("registered")

	var counter byte
	err := cl.RunLoop(ctx, func(simTimeNs uint64) error {
		if _, err := uart.Send([]byte{counter}); err != nil {
			l.Warn("serial_send_error", "error", err)
		}
		counter++

		rxBuf := make([]byte, 32)
		if n, err := uart.Receive(rxBuf); err != nil {
			l.Warn("serial_receive_error", "error", err)
		} else if n > 0 {
			l.Debug("serial_received", "bytes", rxBuf[:n], "sim_time_ns", simTimeNs)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		l.Error("run_loop_error", "error", err)
		os.Exit(1)
	}
	l.Info("shutdown")
	time.Sleep(10 * time.Millisecond)
}
