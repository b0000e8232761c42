package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/loykin/daprwatch"
	"github.com/loykin/daprwatch/internal/config"
	"github.com/loykin/daprwatch/internal/logger"
)

// loadConfig merges the optional config file with command-line overrides.
// Flags win over file values.
func loadConfig(flags *GlobalFlags) (*config.FileConfig, error) {
	fc := config.Default()
	if flags.ConfigPath != "" {
		loaded, err := config.Load(flags.ConfigPath)
		if err != nil {
			return nil, err
		}
		fc = loaded
	}
	if flags.ProcessName != "" {
		fc.ProcessName = flags.ProcessName
	}
	if flags.ProcessPath != "" {
		fc.ProcessPath = flags.ProcessPath
	}
	if flags.LogLevel != "" {
		if fc.Log == nil {
			fc.Log = &logger.Config{}
		}
		fc.Log.Level = flags.LogLevel
	}
	return fc, nil
}

func newLogger(fc *config.FileConfig) *slog.Logger {
	if fc.Log != nil {
		return logger.New(*fc.Log)
	}
	return logger.New(logger.Config{})
}

func newWatcher(fc *config.FileConfig, lg *slog.Logger) *daprwatch.Watcher {
	return daprwatch.New(daprwatch.Options{
		Settings: fc.Filter,
		Interval: fc.Interval,
		Logger:   lg,
	})
}

func runList(globalFlags *GlobalFlags, listFlags *ListFlags) error {
	fc, err := loadConfig(globalFlags)
	if err != nil {
		return err
	}
	w := newWatcher(fc, newLogger(fc))
	defer w.Close()

	insts := w.Instances(context.Background(), true)
	return printInstances(os.Stdout, insts, listFlags.Output)
}

func runWatch(globalFlags *GlobalFlags, watchFlags *WatchFlags) error {
	fc, err := loadConfig(globalFlags)
	if err != nil {
		return err
	}
	if watchFlags.Interval > 0 {
		fc.Interval = watchFlags.Interval
	}
	lg := newLogger(fc)
	w := newWatcher(fc, lg)
	defer w.Close()

	ch, cancel := w.Subscribe()
	defer cancel()
	if err := w.Start(); err != nil {
		return err
	}

	// Print the initial state, then once per completed scan.
	insts := w.Instances(context.Background(), true)
	if err := printInstances(os.Stdout, insts, watchFlags.Output); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-sigCh:
			return nil
		case <-ch:
			insts := w.Instances(context.Background(), false)
			if err := printInstances(os.Stdout, insts, watchFlags.Output); err != nil {
				return err
			}
		}
	}
}

func runServe(globalFlags *GlobalFlags, serveFlags *ServeFlags) error {
	fc, err := loadConfig(globalFlags)
	if err != nil {
		return err
	}
	if serveFlags.Interval > 0 {
		fc.Interval = serveFlags.Interval
	}
	listen := ":8080"
	basePath := "/api"
	if fc.Server != nil {
		if fc.Server.Listen != "" {
			listen = fc.Server.Listen
		}
		if fc.Server.BasePath != "" {
			basePath = fc.Server.BasePath
		}
	}
	if serveFlags.Listen != "" {
		listen = serveFlags.Listen
	}
	if serveFlags.BasePath != "" {
		basePath = serveFlags.BasePath
	}
	metricsListen := serveFlags.MetricsListen
	if metricsListen == "" && fc.Metrics != nil && fc.Metrics.Enabled {
		metricsListen = fc.Metrics.Listen
	}

	lg := newLogger(fc)
	w := newWatcher(fc, lg)
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Close()

	if metricsListen != "" {
		if err := daprwatch.RegisterMetricsDefault(); err != nil {
			lg.Warn("failed to register metrics", "error", err)
		} else {
			go func() {
				if err := daprwatch.ServeMetrics(metricsListen); err != nil {
					lg.Error("metrics server stopped", "error", err)
				}
			}()
			lg.Info("serving metrics", "listen", metricsListen)
		}
	}

	server, err := daprwatch.NewHTTPServer(listen, basePath, w)
	if err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	lg.Info("serving snapshot API", "listen", listen, "base_path", basePath,
		"process", fc.ProcessName, "interval", fc.Interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	lg.Info("shutting down")
	return server.Close()
}

func printInstances(out io.Writer, insts []daprwatch.Instance, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(insts)
	case "table", "":
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "APP ID\tHTTP PORT\tGRPC PORT\tAPP PORT\tPID\tPPID")
		for _, inst := range insts {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\t%s\n",
				inst.AppID, inst.HTTPPort, inst.GRPCPort,
				optInt(inst.AppPort), inst.PID, optInt(inst.PPID))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", format)
	}
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
