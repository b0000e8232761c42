package instance

// Instance describes one Dapr sidecar discovered in the local process
// table at the moment of the last completed scan. AppPort and PPID are
// nil when the sidecar did not advertise them; that absence is itself
// information and must not be replaced with a sentinel value.
type Instance struct {
	AppID    string `json:"app_id"`
	HTTPPort int    `json:"http_port"`
	GRPCPort int    `json:"grpc_port"`
	AppPort  *int   `json:"app_port,omitempty"`
	PID      int    `json:"pid"`
	PPID     *int   `json:"ppid,omitempty"`
}

// Equal compares two instances by value, including the optional fields.
func (a Instance) Equal(b Instance) bool {
	return a.AppID == b.AppID &&
		a.HTTPPort == b.HTTPPort &&
		a.GRPCPort == b.GRPCPort &&
		a.PID == b.PID &&
		intPtrEqual(a.AppPort, b.AppPort) &&
		intPtrEqual(a.PPID, b.PPID)
}

// EqualSnapshots compares two snapshots element-wise by value.
func EqualSnapshots(a, b []Instance) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
