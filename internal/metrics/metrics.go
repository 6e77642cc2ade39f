package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/TrySpaceOrg/simulith-go/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	TicksBroadcast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticks_broadcast_total",
		Help: "Total ticks broadcast by the coordinator.",
	})
	ClientsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clients_registered_total",
		Help: "Total clients successfully registered via READY.",
	})
	ClientsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clients_rejected_total",
		Help: "Total client registration attempts rejected (malformed request, registry full).",
	})
	ClientsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clients_duplicate_total",
		Help: "Total registration attempts for an already-registered client id.",
	})
	ClientsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clients_active",
		Help: "Current number of registered tick clients.",
	})
	BarrierWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "barrier_wait_seconds",
		Help:    "Time the coordinator spent waiting for all clients to ack the current tick.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
	PeripheralSentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peripheral_sent_bytes_total",
		Help: "Total bytes sent across all peripheral endpoints.",
	})
	PeripheralReceivedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peripheral_received_bytes_total",
		Help: "Total bytes received across all peripheral endpoints.",
	})
	PeripheralMessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peripheral_messages_dropped_total",
		Help: "Total peripheral messages dropped because the receive buffer had no room.",
	})
	PeripheralSendOverflow = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peripheral_send_overflow_total",
		Help: "Total peripheral sends dropped because the async transmit queue was full.",
	})
	PeripheralRTTSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "peripheral_tcp_rtt_seconds",
		Help: "Most recently observed TCP_INFO smoothed RTT per peripheral endpoint (Linux only).",
	}, []string{"endpoint"})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrHandshake       = "handshake"
	ErrTickSend        = "tick_send"
	ErrTickAck         = "tick_ack"
	ErrPeripheralRead  = "peripheral_read"
	ErrPeripheralWrite = "peripheral_write"
	ErrConfig          = "config"
)

// StartHTTP serves Prometheus metrics at /metrics on the given addr.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process)
var (
	localTicks           uint64
	localRegistered      uint64
	localRejected        uint64
	localDuplicate       uint64
	localActiveClients   uint64
	localSentBytes       uint64
	localReceivedBytes   uint64
	localDroppedMessages uint64
	localSendOverflow    uint64
	localErrors          uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	Ticks             uint64
	ClientsRegistered uint64
	ClientsRejected   uint64
	ClientsDuplicate  uint64
	ClientsActive     uint64
	SentBytes         uint64
	ReceivedBytes     uint64
	MessagesDropped   uint64
	SendOverflow      uint64
	Errors            uint64
}

func Snap() Snapshot {
	return Snapshot{
		Ticks:             atomic.LoadUint64(&localTicks),
		ClientsRegistered: atomic.LoadUint64(&localRegistered),
		ClientsRejected:   atomic.LoadUint64(&localRejected),
		ClientsDuplicate:  atomic.LoadUint64(&localDuplicate),
		ClientsActive:     atomic.LoadUint64(&localActiveClients),
		SentBytes:         atomic.LoadUint64(&localSentBytes),
		ReceivedBytes:     atomic.LoadUint64(&localReceivedBytes),
		MessagesDropped:   atomic.LoadUint64(&localDroppedMessages),
		SendOverflow:      atomic.LoadUint64(&localSendOverflow),
		Errors:            atomic.LoadUint64(&localErrors),
	}
}

// IncTick records one broadcast tick.
func IncTick() {
	TicksBroadcast.Inc()
	atomic.AddUint64(&localTicks, 1)
}

func IncClientRegistered() {
	ClientsRegistered.Inc()
	atomic.AddUint64(&localRegistered, 1)
}

func IncClientRejected() {
	ClientsRejected.Inc()
	atomic.AddUint64(&localRejected, 1)
}

func IncClientDuplicate() {
	ClientsDuplicate.Inc()
	atomic.AddUint64(&localDuplicate, 1)
}

func SetActiveClients(n int) {
	ClientsActive.Set(float64(n))
	atomic.StoreUint64(&localActiveClients, uint64(n))
}

// ObserveBarrierWait records how long the coordinator waited on the current tick's barrier.
func ObserveBarrierWait(seconds float64) {
	BarrierWaitSeconds.Observe(seconds)
}

func AddPeripheralSent(n int) {
	PeripheralSentBytes.Add(float64(n))
	atomic.AddUint64(&localSentBytes, uint64(n))
}

func AddPeripheralReceived(n int) {
	PeripheralReceivedBytes.Add(float64(n))
	atomic.AddUint64(&localReceivedBytes, uint64(n))
}

func IncPeripheralDropped() {
	PeripheralMessagesDropped.Inc()
	atomic.AddUint64(&localDroppedMessages, 1)
}

func IncPeripheralSendOverflow() {
	PeripheralSendOverflow.Inc()
	atomic.AddUint64(&localSendOverflow, 1)
}

// ObserveRTT records the latest TCP_INFO smoothed RTT for a named endpoint.
func ObserveRTT(endpoint string, seconds float64) {
	PeripheralRTTSeconds.WithLabelValues(endpoint).Set(seconds)
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{
		ErrHandshake, ErrTickSend, ErrTickAck, ErrPeripheralRead, ErrPeripheralWrite, ErrConfig,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }
