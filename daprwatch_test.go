package daprwatch

import (
	"context"
	"sync"
	"testing"
	"time"
)

type memLister struct {
	mu    sync.Mutex
	procs []Process
}

func (m *memLister) List(context.Context, Filter) ([]Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Process(nil), m.procs...), nil
}

func (m *memLister) set(procs []Process) {
	m.mu.Lock()
	m.procs = procs
	m.mu.Unlock()
}

func TestWatcherFacade(t *testing.T) {
	ml := &memLister{procs: []Process{
		{PID: 10, Cmd: "daprd --app-id cart --dapr-http-port 3501 --app-port 8080"},
	}}
	w := New(Options{Lister: ml, Interval: 10 * time.Millisecond})
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Close()

	insts := w.Instances(context.Background(), false)
	if len(insts) != 1 || insts[0].AppID != "cart" || insts[0].HTTPPort != 3501 {
		t.Fatalf("unexpected snapshot: %+v", insts)
	}
	if insts[0].GRPCPort != DefaultGRPCPort {
		t.Fatalf("grpc port should default to %d, got %d", DefaultGRPCPort, insts[0].GRPCPort)
	}

	// The poll loop picks up changes and notifies subscribers.
	ch, cancel := w.Subscribe()
	defer cancel()
	ml.set([]Process{{PID: 20, Cmd: "daprd --app-id orders"}})
	deadline := time.After(time.Second)
	for {
		select {
		case <-ch:
		case <-deadline:
			t.Fatalf("poll loop never published the new snapshot")
		}
		insts = w.Instances(context.Background(), false)
		if len(insts) == 1 && insts[0].AppID == "orders" {
			return
		}
	}
}

func TestFacadeParseCommandLine(t *testing.T) {
	inst, ok := ParseCommandLine("daprd --app-id cart", 5, nil)
	if !ok || inst.AppID != "cart" || inst.HTTPPort != DefaultHTTPPort {
		t.Fatalf("parse via facade failed: %+v ok=%v", inst, ok)
	}
	if _, ok := ParseCommandLine("nginx -g daemon", 5, nil); ok {
		t.Fatalf("non-sidecar accepted")
	}
}

func TestFacadeSettingsOverride(t *testing.T) {
	ml := &memLister{}
	w := New(Options{
		Lister:   ml,
		Settings: func() Filter { return Filter{Name: "daprd-custom"} },
	})
	defer w.Close()
	if got := w.Instances(context.Background(), true); len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", got)
	}
}
