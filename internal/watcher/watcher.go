package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/loykin/daprwatch/internal/instance"
	"github.com/loykin/daprwatch/internal/lister"
	"github.com/loykin/daprwatch/internal/metrics"
)

// DefaultInterval is the poll period between background scans.
const DefaultInterval = 2 * time.Second

// DefaultProcessName is the executable the watcher looks for when no
// filter is configured.
const DefaultProcessName = "daprd"

// Settings supplies the executable filter for a scan. It is consulted
// fresh on every scan, so a configuration change takes effect on the
// next tick without restarting the watcher.
type Settings interface {
	ProcessFilter() lister.Filter
}

// SettingsFunc adapts a plain function to Settings.
type SettingsFunc func() lister.Filter

func (f SettingsFunc) ProcessFilter() lister.Filter { return f() }

// Options configures a Watcher. Zero fields get defaults: SystemLister,
// the daprd name filter, DefaultInterval, slog.Default().
type Options struct {
	Lister   lister.Lister
	Settings Settings
	Interval time.Duration
	Logger   *slog.Logger
}

// Watcher polls the local process table for Dapr sidecars and publishes
// the last-known-good snapshot.
//
// At most one scan runs at any instant: concurrent Refresh calls collapse
// into the scan already in flight and share its outcome. The snapshot is
// replaced wholesale by each completed scan and read without locking, so
// observers always see a complete prior or current state, never a torn
// one. A failed scan leaves the previous snapshot in place and fires no
// notification.
type Watcher struct {
	ls       lister.Lister
	settings Settings
	interval time.Duration
	logger   *slog.Logger

	group    singleflight.Group
	snapshot atomic.Pointer[[]instance.Instance]

	mu   sync.Mutex
	subs map[chan struct{}]struct{}

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func New(opts Options) *Watcher {
	if opts.Lister == nil {
		opts.Lister = lister.SystemLister{}
	}
	if opts.Settings == nil {
		opts.Settings = SettingsFunc(func() lister.Filter {
			return lister.Filter{Name: DefaultProcessName}
		})
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{
		ls:       opts.Lister,
		settings: opts.Settings,
		interval: opts.Interval,
		logger:   opts.Logger,
		subs:     make(map[chan struct{}]struct{}),
	}
}

// Start launches the background poll loop. Call Close to stop it.
func (w *Watcher) Start() error {
	if w.quit != nil {
		return errors.New("watcher already started")
	}
	w.quit = make(chan struct{})
	w.done = make(chan struct{})
	go w.run()
	return nil
}

func (w *Watcher) run() {
	defer close(w.done)
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-w.quit:
			return
		case <-t.C:
			// A failed tick must not stop the loop; the next tick retries.
			if _, err := w.Refresh(context.Background()); err != nil {
				w.logger.Debug("periodic scan failed", "error", err)
			}
		}
	}
}

// Close stops the poll loop and closes all subscriber channels. A scan
// already in flight is allowed to finish.
func (w *Watcher) Close() {
	if w.quit != nil {
		w.stopOnce.Do(func() { close(w.quit) })
		<-w.done
	}
	w.mu.Lock()
	for ch := range w.subs {
		delete(w.subs, ch)
		close(ch)
	}
	w.mu.Unlock()
}

// Refresh performs one scan, coalescing with any scan already in flight:
// simultaneous callers all observe the outcome of a single execution.
// On success the snapshot has been replaced and subscribers notified; on
// failure the previous snapshot stands and nothing fires.
func (w *Watcher) Refresh(ctx context.Context) ([]instance.Instance, error) {
	v, err, _ := w.group.Do("scan", func() (interface{}, error) {
		return w.scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]instance.Instance), nil
}

func (w *Watcher) scan(ctx context.Context) ([]instance.Instance, error) {
	start := time.Now()
	f := w.settings.ProcessFilter()
	procs, err := w.ls.List(ctx, f)
	if err != nil {
		metrics.IncScanFailure()
		return nil, fmt.Errorf("scan for %q: %w", f.Name, err)
	}
	insts := make([]instance.Instance, 0, len(procs))
	for _, p := range procs {
		if inst, ok := instance.ParseCommandLine(p.Cmd, p.PID, p.PPID); ok {
			insts = append(insts, inst)
		}
	}
	w.snapshot.Store(&insts)
	metrics.ObserveScan(time.Since(start).Seconds(), len(insts))
	w.logger.Debug("scan completed", "filter", f.Name, "processes", len(procs), "instances", len(insts))
	// Notify strictly after the swap so handlers reading the snapshot
	// see the data the event describes.
	w.notify()
	return insts, nil
}

// Snapshot returns the current snapshot, scanning first when none exists
// yet or when force is set. Scan failures never surface here: callers get
// the last good snapshot, or an empty list when no scan has ever
// succeeded. The returned slice is the caller's to keep.
func (w *Watcher) Snapshot(ctx context.Context, force bool) []instance.Instance {
	if cur := w.snapshot.Load(); cur != nil && !force {
		return append([]instance.Instance(nil), *cur...)
	}
	insts, err := w.Refresh(ctx)
	if err != nil {
		w.logger.Warn("on-demand scan failed", "error", err)
		if cur := w.snapshot.Load(); cur != nil {
			return append([]instance.Instance(nil), *cur...)
		}
		return []instance.Instance{}
	}
	return append([]instance.Instance(nil), insts...)
}

// Subscribe registers a change listener. The channel receives one element
// per completed scan, whether or not the contents changed. The send is
// non-blocking over a one-slot buffer, so a listener that lags coalesces
// notifications instead of stalling the scanner. cancel unregisters the
// listener and closes the channel; it is safe to call more than once.
func (w *Watcher) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	w.subs[ch] = struct{}{}
	w.mu.Unlock()
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			w.mu.Lock()
			if _, ok := w.subs[ch]; ok {
				delete(w.subs, ch)
				close(ch)
			}
			w.mu.Unlock()
		})
	}
	return ch, cancel
}

func (w *Watcher) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
