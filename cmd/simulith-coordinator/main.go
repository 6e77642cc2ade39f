package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	_ "github.com/KimMachineGun/automemlimit/memlimit"
	_ "go.uber.org/automaxprocs"

	"github.com/TrySpaceOrg/simulith-go/internal/metrics"
	"github.com/TrySpaceOrg/simulith-go/tickcoord"
)

// Helper implementations moved to dedicated files: version.go, config.go, logger.go, metrics_logger.go, mdns.go.

func main() {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("simulith-coordinator %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if cfg == nil {
		os.Exit(1)
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	coord := tickcoord.New(
		tickcoord.WithPublishAddr(cfg.publishAddr),
		tickcoord.WithReplyAddr(cfg.replyAddr),
		tickcoord.WithClientCount(cfg.clientCount),
		tickcoord.WithInterval(cfg.interval),
		tickcoord.WithPublishBuffer(cfg.publishBuffer),
		tickcoord.WithStatusPath(cfg.statusPath),
		tickcoord.WithLogger(l),
	)

	if err := coord.Initialize(ctx); err != nil {
		l.Error("tickcoord_init_error", "error", err)
		return
	}
	go func() {
		if err := coord.Run(ctx); err != nil && ctx.Err() == nil {
			l.Error("tickcoord_run_error", "error", err)
			cancel()
		}
	}()

	// Start mDNS advertisement once the reply listener is ready.
	go func() {
		if !cfg.mdnsEnable {
			return
		}
		select {
		case <-coord.Ready():
		case <-ctx.Done():
			return
		}
		addr := coord.ReplyAddr()
		var portNum int
		if _, p, err := net.SplitHostPort(addr); err == nil {
			if pn, perr := strconv.Atoi(p); perr == nil {
				portNum = pn
			}
		}
		if portNum == 0 {
			lastColon := strings.LastIndex(addr, ":")
			if lastColon >= 0 {
				if pn, perr := strconv.Atoi(addr[lastColon+1:]); perr == nil {
					portNum = pn
				}
			}
		}
		cleanupMDNS, err := startMDNS(ctx, cfg, portNum)
		if err != nil {
			l.Warn("mdns_start_failed", "error", err)
			return
		}
		l.Info("mdns_started", "service", mdnsServiceType, "name", cfg.mdnsName, "port", portNum)
		go func() { <-ctx.Done(); cleanupMDNS() }()
	}()

	metrics.SetReadinessFunc(func() bool {
		select {
		case <-coord.Ready():
		default:
			return false
		}
		return ctx.Err() == nil
	})
	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())
	cancel()
	if err := coord.Shutdown(context.Background()); err != nil {
		l.Error("tickcoord_shutdown_error", "error", err)
	}
	wg.Wait()
}
