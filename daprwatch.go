package daprwatch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/daprwatch/internal/config"
	"github.com/loykin/daprwatch/internal/instance"
	"github.com/loykin/daprwatch/internal/lister"
	"github.com/loykin/daprwatch/internal/metrics"
	iapi "github.com/loykin/daprwatch/internal/server"
	"github.com/loykin/daprwatch/internal/watcher"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Instance = instance.Instance

type Filter = lister.Filter

type Lister = lister.Lister

type Process = lister.Process

type Config = cfg.FileConfig

// Defaults applied when the corresponding option is not set.
const (
	DefaultProcessName = watcher.DefaultProcessName
	DefaultHTTPPort    = instance.DefaultHTTPPort
	DefaultGRPCPort    = instance.DefaultGRPCPort
	DefaultInterval    = watcher.DefaultInterval
)

// Options configures an embedded Watcher.
type Options struct {
	// ProcessName is the executable base name to look for (default "daprd").
	ProcessName string
	// ProcessPath, when set, matches the executable path instead of the name.
	ProcessPath string
	// Settings, when set, is consulted on every scan and overrides
	// ProcessName/ProcessPath. Use it when the filter can change at runtime.
	Settings func() Filter
	// Interval between background scans (default 2s).
	Interval time.Duration
	Logger   *slog.Logger
	// Lister overrides the process-table source, mainly for tests.
	Lister Lister
}

// Watcher is a thin facade over internal/watcher.Watcher.
// It provides a stable public API for embedding.
type Watcher struct{ inner *watcher.Watcher }

// New creates a Watcher. Call Start to begin background polling;
// Instances works on demand either way.
func New(opts Options) *Watcher {
	settings := opts.Settings
	if settings == nil {
		name := opts.ProcessName
		if name == "" {
			name = DefaultProcessName
		}
		path := opts.ProcessPath
		settings = func() Filter { return Filter{Name: name, Path: path} }
	}
	return &Watcher{inner: watcher.New(watcher.Options{
		Lister:   opts.Lister,
		Settings: watcher.SettingsFunc(settings),
		Interval: opts.Interval,
		Logger:   opts.Logger,
	})}
}

// Start launches the background poll loop.
func (w *Watcher) Start() error { return w.inner.Start() }

// Close stops the poll loop and releases all subscriptions.
func (w *Watcher) Close() { w.inner.Close() }

// Instances returns the current snapshot, scanning first when none exists
// yet or when force is set. It never returns an error: a failed scan
// yields the last good snapshot, or an empty list if none ever existed.
func (w *Watcher) Instances(ctx context.Context, force bool) []Instance {
	return w.inner.Snapshot(ctx, force)
}

// Refresh runs one scan, coalescing with any scan already in flight.
func (w *Watcher) Refresh(ctx context.Context) ([]Instance, error) {
	return w.inner.Refresh(ctx)
}

// Subscribe registers a change listener that receives one element per
// completed scan. cancel unregisters it.
func (w *Watcher) Subscribe() (ch <-chan struct{}, cancel func()) {
	return w.inner.Subscribe()
}

// ParseCommandLine extracts an Instance from a raw daprd command line.
func ParseCommandLine(cmd string, pid int, ppid *int) (Instance, bool) {
	return instance.ParseCommandLine(cmd, pid, ppid)
}

func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// NewHTTPServer starts an HTTP server exposing the snapshot API backed by
// the given watcher.
func NewHTTPServer(addr, basePath string, w *Watcher) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, w.inner)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the
// default registry. It blocks in the caller goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
