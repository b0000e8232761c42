package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterAndHelpers(t *testing.T) {
	// Helpers must be safe before registration.
	ObserveScan(0.01, 3)
	IncScanFailure()

	r := prometheus.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Second call is a no-op.
	if err := Register(r); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	ObserveScan(0.02, 2)
	IncScanFailure()

	mfs, err := r.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	want := map[string]bool{
		"daprwatch_scan_total":            false,
		"daprwatch_scan_failures_total":   false,
		"daprwatch_scan_duration_seconds": false,
		"daprwatch_discovered_instances":  false,
	}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("metric %s not gathered", name)
		}
	}
}
