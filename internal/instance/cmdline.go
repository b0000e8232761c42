package instance

import (
	"regexp"
	"strconv"
)

// Ports daprd listens on when the corresponding flag is absent from its
// command line.
const (
	DefaultHTTPPort = 3500
	DefaultGRPCPort = 50001
)

// Each flag is matched independently against the full command string, so
// flag order does not matter and unknown flags are tolerated. Values may
// be wrapped in double quotes or bare.
var (
	appIDRe    = regexp.MustCompile(`--app-id\s+"?([a-zA-Z0-9_-]+)"?`)
	httpPortRe = regexp.MustCompile(`--dapr-http-port\s+"?([0-9]+)"?`)
	grpcPortRe = regexp.MustCompile(`--dapr-grpc-port\s+"?([0-9]+)"?`)
	appPortRe  = regexp.MustCompile(`--app-port\s+"?([0-9]+)"?`)
)

// ParseCommandLine extracts a sidecar Instance from a raw process command
// line. The second return value is false when the command carries no
// --app-id: a process without an app identity is not a sidecar, whatever
// other flags it has. Missing or malformed port flags fall back to the
// daprd defaults; --app-port stays absent instead of defaulting.
func ParseCommandLine(cmd string, pid int, ppid *int) (Instance, bool) {
	m := appIDRe.FindStringSubmatch(cmd)
	if m == nil {
		return Instance{}, false
	}
	inst := Instance{
		AppID:    m[1],
		HTTPPort: portOr(httpPortRe, cmd, DefaultHTTPPort),
		GRPCPort: portOr(grpcPortRe, cmd, DefaultGRPCPort),
		PID:      pid,
		PPID:     ppid,
	}
	if am := appPortRe.FindStringSubmatch(cmd); am != nil {
		if p, err := strconv.Atoi(am[1]); err == nil {
			inst.AppPort = &p
		}
	}
	return inst, true
}

func portOr(re *regexp.Regexp, cmd string, def int) int {
	m := re.FindStringSubmatch(cmd)
	if m == nil {
		return def
	}
	p, err := strconv.Atoi(m[1])
	if err != nil {
		return def
	}
	return p
}
