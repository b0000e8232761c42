package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath  string
	ProcessName string
	ProcessPath string
	LogLevel    string
}

// ListFlags holds flags for the list command.
type ListFlags struct {
	Output string
}

// WatchFlags holds flags for the watch command.
type WatchFlags struct {
	Output   string
	Interval time.Duration
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Listen        string
	BasePath      string
	Interval      time.Duration
	MetricsListen string
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	listFlags := &ListFlags{}
	watchFlags := &WatchFlags{}
	serveFlags := &ServeFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createListCommand(globalFlags, listFlags),
		createWatchCommand(globalFlags, watchFlags),
		createServeCommand(globalFlags, serveFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "daprwatch",
		Short: "Discover Dapr sidecars running on this machine",
		Long: `Daprwatch scans the local process table for daprd sidecars and reports
each instance's app id and control ports, parsed from its command line.

Examples:
  daprwatch list                          # one scan, table output
  daprwatch list --output=json
  daprwatch watch --interval=2s           # reprint on every change
  daprwatch serve --listen=:8080          # daemon with REST API`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&flags.ProcessName, "process-name", "", "sidecar executable name (default daprd)")
	root.PersistentFlags().StringVar(&flags.ProcessPath, "process-path", "", "explicit sidecar executable path (overrides name matching)")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	return root
}

func createListCommand(globalFlags *GlobalFlags, listFlags *ListFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Run one scan and print discovered sidecars",
		Long: `Run a single process-table scan and print every discovered sidecar.

Examples:
  daprwatch list
  daprwatch list --output=json
  daprwatch list --process-path=/opt/dapr/daprd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(globalFlags, listFlags)
		},
	}
	cmd.Flags().StringVar(&listFlags.Output, "output", "table", "output format: table or json")
	return cmd
}

func createWatchCommand(globalFlags *GlobalFlags, watchFlags *WatchFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll continuously and reprint on every scan",
		Long: `Poll the process table on an interval and reprint the snapshot after
every completed scan until interrupted.

Examples:
  daprwatch watch
  daprwatch watch --interval=5s --output=json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(globalFlags, watchFlags)
		},
	}
	cmd.Flags().StringVar(&watchFlags.Output, "output", "table", "output format: table or json")
	cmd.Flags().DurationVar(&watchFlags.Interval, "interval", 0, "poll interval (default 2s, or config value)")
	return cmd
}

func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a daemon exposing the snapshot over HTTP",
		Long: `Run the poll loop in the foreground and expose the current snapshot
through a REST API.

Endpoints (relative to --base-path):
  GET  /instances    current snapshot (app_id=..., force=1)
  POST /refresh      run one scan now
  GET  /healthz

Examples:
  daprwatch serve
  daprwatch serve --listen=:8080 --metrics-listen=:9090
  daprwatch serve --config=daprwatch.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(globalFlags, serveFlags)
		},
	}
	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "API listen address (default :8080, or config value)")
	cmd.Flags().StringVar(&serveFlags.BasePath, "base-path", "", "API base path (default /api, or config value)")
	cmd.Flags().DurationVar(&serveFlags.Interval, "interval", 0, "poll interval (default 2s, or config value)")
	cmd.Flags().StringVar(&serveFlags.MetricsListen, "metrics-listen", "", "Prometheus listen address (default off, or config value)")
	return cmd
}
