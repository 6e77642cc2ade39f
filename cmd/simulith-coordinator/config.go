package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type appConfig struct {
	publishAddr     string
	replyAddr       string
	clientCount     int
	interval        time.Duration
	publishBuffer   int
	statusPath      string
	logFormat       string
	logLevel        string
	metricsAddr     string
	logMetricsEvery time.Duration
	mdnsEnable      bool
	mdnsName        string
}

// fileConfig mirrors the subset of appConfig an operator may want to pin in
// a checked-in TOML file rather than pass as flags every run.
type fileConfig struct {
	PublishAddr   string `toml:"publish_addr"`
	ReplyAddr     string `toml:"reply_addr"`
	ClientCount   int    `toml:"client_count"`
	IntervalMs    int    `toml:"interval_ms"`
	PublishBuffer int    `toml:"publish_buffer"`
	StatusPath    string `toml:"status_path"`
	LogFormat     string `toml:"log_format"`
	LogLevel      string `toml:"log_level"`
	MetricsAddr   string `toml:"metrics_addr"`
	MDNSEnable    bool   `toml:"mdns_enable"`
	MDNSName      string `toml:"mdns_name"`
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	configPath := flag.String("config", "", "Optional TOML config file; flags/env still take precedence over its values")
	publishAddr := flag.String("publish-addr", ":50000", "Tick broadcast listen address")
	replyAddr := flag.String("reply-addr", ":50001", "Handshake/ack listen address")
	clientCount := flag.Int("client-count", 1, "Number of simulator clients to wait for before the first tick")
	interval := flag.Duration("interval", 10*time.Millisecond, "Simulated tick period at speed 1.0")
	publishBuffer := flag.Int("publish-buffer", 64, "Per-subscriber outbound tick queue depth")
	statusPath := flag.String("status-path", "", "Optional path for periodic atomic status-snapshot JSON writes")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters (for non-Prometheus setups)")
	mdnsEnable := flag.Bool("mdns-enable", false, "Enable mDNS/Avahi advertisement")
	mdnsName := flag.String("mdns-name", "", "mDNS instance name (default simulith-coordinator-<hostname>)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.publishAddr = *publishAddr
	cfg.replyAddr = *replyAddr
	cfg.clientCount = *clientCount
	cfg.interval = *interval
	cfg.publishBuffer = *publishBuffer
	cfg.statusPath = *statusPath
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.logMetricsEvery = *logMetricsEvery
	cfg.mdnsEnable = *mdnsEnable
	cfg.mdnsName = *mdnsName

	if *configPath != "" {
		if err := applyFileConfig(cfg, *configPath, setFlags); err != nil {
			fmt.Printf("config file error: %v\n", err)
			return nil, *showVersion
		}
	}

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

// applyFileConfig loads a TOML file and fills any field not explicitly set
// via flag. Flags always win over file values.
func applyFileConfig(c *appConfig, path string, set map[string]struct{}) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if _, ok := set["publish-addr"]; !ok && fc.PublishAddr != "" {
		c.publishAddr = fc.PublishAddr
	}
	if _, ok := set["reply-addr"]; !ok && fc.ReplyAddr != "" {
		c.replyAddr = fc.ReplyAddr
	}
	if _, ok := set["client-count"]; !ok && fc.ClientCount > 0 {
		c.clientCount = fc.ClientCount
	}
	if _, ok := set["interval"]; !ok && fc.IntervalMs > 0 {
		c.interval = time.Duration(fc.IntervalMs) * time.Millisecond
	}
	if _, ok := set["publish-buffer"]; !ok && fc.PublishBuffer > 0 {
		c.publishBuffer = fc.PublishBuffer
	}
	if _, ok := set["status-path"]; !ok && fc.StatusPath != "" {
		c.statusPath = fc.StatusPath
	}
	if _, ok := set["log-format"]; !ok && fc.LogFormat != "" {
		c.logFormat = fc.LogFormat
	}
	if _, ok := set["log-level"]; !ok && fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if _, ok := set["metrics-addr"]; !ok && fc.MetricsAddr != "" {
		c.metricsAddr = fc.MetricsAddr
	}
	if _, ok := set["mdns-enable"]; !ok && fc.MDNSEnable {
		c.mdnsEnable = fc.MDNSEnable
	}
	if _, ok := set["mdns-name"]; !ok && fc.MDNSName != "" {
		c.mdnsName = fc.MDNSName
	}
	return nil
}

// validate performs basic semantic validation of the parsed configuration.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.clientCount <= 0 {
		return fmt.Errorf("client-count must be > 0 (got %d)", c.clientCount)
	}
	if c.interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if c.publishBuffer <= 0 {
		return fmt.Errorf("publish-buffer must be > 0 (got %d)", c.publishBuffer)
	}
	return nil
}

// applyEnvOverrides maps SIMULITH_* environment variables to config fields
// unless a corresponding flag was explicitly set. Boolean & numeric parsing
// is lax: empty values ignored. SIMULITH_INTERVAL_NS is a plain integer
// nanosecond count, not a Go duration string.
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }
	if _, ok := set["publish-addr"]; !ok {
		if v, ok := get("SIMULITH_PUB_ADDR"); ok && v != "" {
			c.publishAddr = v
		}
	}
	if _, ok := set["reply-addr"]; !ok {
		if v, ok := get("SIMULITH_REP_ADDR"); ok && v != "" {
			c.replyAddr = v
		}
	}
	if _, ok := set["client-count"]; !ok {
		if v, ok := get("SIMULITH_CLIENTS"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.clientCount = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid SIMULITH_CLIENTS: %w", err)
			}
		}
	}
	if _, ok := set["interval"]; !ok {
		if v, ok := get("SIMULITH_INTERVAL_NS"); ok && v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				c.interval = time.Duration(n)
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid SIMULITH_INTERVAL_NS: %w", err)
			}
		}
	}
	if _, ok := set["publish-buffer"]; !ok {
		if v, ok := get("SIMULITH_PUBLISH_BUFFER"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.publishBuffer = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid SIMULITH_PUBLISH_BUFFER: %w", err)
			}
		}
	}
	if _, ok := set["status-path"]; !ok {
		if v, ok := get("SIMULITH_STATUS_PATH"); ok {
			c.statusPath = v
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("SIMULITH_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("SIMULITH_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("SIMULITH_METRICS_ADDR"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("SIMULITH_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid SIMULITH_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	if _, ok := set["mdns-enable"]; !ok {
		if v, ok := get("SIMULITH_MDNS_ENABLE"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.mdnsEnable = true
			case "0", "false", "no", "off":
				c.mdnsEnable = false
			}
		}
	}
	if _, ok := set["mdns-name"]; !ok {
		if v, ok := get("SIMULITH_MDNS_NAME"); ok && v != "" {
			c.mdnsName = v
		}
	}
	return firstErr
}
