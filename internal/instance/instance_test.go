package instance

import "testing"

func TestInstanceEqual(t *testing.T) {
	a := Instance{AppID: "cart", HTTPPort: 3501, GRPCPort: 50001, AppPort: intp(8080), PID: 10, PPID: intp(1)}
	b := Instance{AppID: "cart", HTTPPort: 3501, GRPCPort: 50001, AppPort: intp(8080), PID: 10, PPID: intp(1)}
	if !a.Equal(b) {
		t.Fatalf("identical values compared unequal")
	}
	c := b
	c.AppPort = nil
	if a.Equal(c) {
		t.Fatalf("absent app port compared equal to present one")
	}
	d := b
	d.AppPort = intp(9090)
	if a.Equal(d) {
		t.Fatalf("different app ports compared equal")
	}
}

func TestEqualSnapshots(t *testing.T) {
	one := []Instance{{AppID: "a", HTTPPort: 3500, GRPCPort: 50001, PID: 1}}
	same := []Instance{{AppID: "a", HTTPPort: 3500, GRPCPort: 50001, PID: 1}}
	if !EqualSnapshots(one, same) {
		t.Fatalf("equal snapshots compared unequal")
	}
	if EqualSnapshots(one, nil) {
		t.Fatalf("different lengths compared equal")
	}
	if !EqualSnapshots(nil, []Instance{}) {
		t.Fatalf("empty snapshots should compare equal regardless of nilness")
	}
}

// Re-parsing identical command lines must yield value-equal records.
func TestParseIdempotent(t *testing.T) {
	cmd := "daprd --app-id cart --dapr-http-port 3501 --app-port 8080"
	ppid := 1
	a, _ := ParseCommandLine(cmd, 10, &ppid)
	b, _ := ParseCommandLine(cmd, 10, &ppid)
	if !a.Equal(b) {
		t.Fatalf("idempotence violated: %+v vs %+v", a, b)
	}
}
