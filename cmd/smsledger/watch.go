package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/certs"
	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/config"
	"github.com/Veraticus/smsledger/internal/coordinator"
	"github.com/Veraticus/smsledger/internal/gateway"
	"github.com/Veraticus/smsledger/internal/monitor"
	"github.com/Veraticus/smsledger/internal/source"
	"github.com/Veraticus/smsledger/internal/telemetry"
	"github.com/Veraticus/smsledger/internal/tui"
	"github.com/Veraticus/smsledger/internal/tui/themes"
)

type watchOptions struct {
	input       string
	metricsAddr string
	metricsTLS  bool
	theme       string
	noTUI       bool
	autoConfirm bool
	record      bool
	exitWhenEnd bool
}

func watchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor incoming notifications and suggest transactions",
		Long: `Watch consumes newline-delimited JSON messages, shows a popup for every
transaction it recognizes and sends confirmed ones to the backend.

Monitoring must be enabled first with 'smsledger settings enable'.`,
		Example: `  tail -f inbox.jsonl | smsledger watch
  smsledger watch --input inbox.jsonl --no-tui --auto-confirm --exit-when-done`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "message stream (JSONL file, or - for stdin)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics.addr)")
	cmd.Flags().BoolVar(&opts.metricsTLS, "metrics-tls", false, "serve metrics over HTTPS with a self-signed certificate")
	cmd.Flags().StringVar(&opts.theme, "theme", "default", "popup theme (default, catppuccin)")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "use the line-oriented console instead of the popup UI")
	cmd.Flags().BoolVar(&opts.autoConfirm, "auto-confirm", false, "confirm every suggestion unchanged (console only)")
	cmd.Flags().BoolVar(&opts.record, "record", false, "record TUI frames for debugging")
	cmd.Flags().BoolVar(&opts.exitWhenEnd, "exit-when-done", false, "exit once the input ends and no suggestion is pending")

	return cmd
}

// ui is the interactive front end: the popup app or the console prompter.
type ui interface {
	presenter() coordinator.Presenter
	run(ctx context.Context, coord *coordinator.Coordinator) error
}

type popupUI struct{ app *tui.App }

func (u popupUI) presenter() coordinator.Presenter { return u.app.Presenter() }

func (u popupUI) run(ctx context.Context, coord *coordinator.Coordinator) error {
	u.app.Bind(coord)
	go func() {
		<-ctx.Done()
		u.app.Quit()
	}()
	return u.app.Run()
}

type consoleUI struct {
	prompter  *cli.Prompter
	interrupt *cli.InterruptHandler
}

func (u consoleUI) presenter() coordinator.Presenter { return u.prompter }

func (u consoleUI) run(ctx context.Context, coord *coordinator.Coordinator) error {
	ctx = u.interrupt.HandleInterrupts(ctx, "Queued suggestions were not persisted")
	return u.prompter.Run(ctx, coord)
}

func runWatch(ctx context.Context, out io.Writer, opts watchOptions) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	addr := opts.metricsAddr
	if addr == "" {
		addr = a.cfg.MetricsAddr
	}
	if addr != "" {
		var tlsCfg *tls.Config
		if opts.metricsTLS || a.cfg.MetricsTLS {
			tlsCfg, err = certs.NewStore(filepath.Join(config.DataDir(), "certs")).TLSConfig()
			if err != nil {
				return fmt.Errorf("failed to prepare metrics certificate: %w", err)
			}
		}
		stop := serveMetrics(addr, reg, tlsCfg)
		defer stop()
	}

	front := newUI(ctx, out, opts)

	coordCfg := coordinator.Config{
		Presenter:    front.presenter(),
		Capabilities: a.terminal,
		Settings:     a.settings,
		Metrics:      metrics,
	}
	gw, err := newGateway(ctx, a, metrics)
	if err != nil {
		return err
	}
	if gw != nil {
		coordCfg.Persister = gw
		coordCfg.Reporter = gw
	} else {
		slog.Warn("No backend configured, confirmed suggestions will not be saved", "key", "backend.url")
	}

	coord, err := coordinator.New(coordCfg)
	if err != nil {
		return err
	}

	mon, err := monitor.New(monitor.Config{
		Source:      source.NewJSONLFile(opts.input),
		Parser:      a.pipeline,
		Coordinator: coord,
		Settings:    a.settings,
		Ledger:      a.store,
		Metrics:     metrics,
		Identity:    a.cfg.Identity(),
	})
	if err != nil {
		return err
	}
	a.settings.SetReconciler(mon)

	s, err := a.settings.GetSettings(ctx)
	if err != nil {
		return err
	}
	if !s.Enabled {
		fmt.Fprintln(out, cli.FormatWarning("Monitoring is disabled. Run 'smsledger settings enable' to start."))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Replayed messages reach the presenter during start, so start once
	// the front end is running.
	startErr := make(chan error, 1)
	starter := make(chan struct{})
	go func() {
		defer close(starter)
		if _, err := a.settings.Resume(runCtx); err != nil {
			startErr <- err
			cancel()
			return
		}
		if opts.exitWhenEnd && waitUntilDrained(runCtx, mon, coord) {
			cancel()
		}
	}()

	runErr := front.run(runCtx, coord)
	cancel()
	<-starter

	stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer stopCancel()
	if err := mon.StopMonitoring(stopCtx); err != nil {
		common.LogError(err, "Failed to stop monitoring", nil)
	}
	coord.Wait()

	select {
	case err := <-startErr:
		return common.NewUserError("Could not start monitoring", err)
	default:
	}
	return runErr
}

func newUI(ctx context.Context, out io.Writer, opts watchOptions) ui {
	if opts.noTUI || !isatty.IsTerminal(os.Stdout.Fd()) {
		var in io.Reader
		if opts.input != "-" {
			in = os.Stdin
		} else if tty, err := os.Open("/dev/tty"); err == nil {
			in = tty
		}
		return consoleUI{
			prompter:  cli.NewPrompter(in, out, opts.autoConfirm),
			interrupt: cli.NewInterruptHandler(out),
		}
	}

	app := tui.New(ctx,
		tui.WithTheme(themes.ByName(opts.theme)),
		tui.WithRecording(opts.record),
		tui.WithInputTTY(opts.input == "-"),
	)
	return popupUI{app: app}
}

// newGateway returns nil when no backend URL is configured.
func newGateway(ctx context.Context, a *app, metrics *telemetry.Metrics) (*gateway.Gateway, error) {
	if a.cfg.Backend.URL == "" {
		return nil, nil
	}

	backend, err := gateway.NewHTTPBackend(ctx, a.cfg.Backend.URL, a.cfg.Backend.Token, a.cfg.Backend.Timeout)
	if err != nil {
		return nil, err
	}

	identity := a.cfg.Identity()
	if !identity.Complete() {
		slog.Warn("Backend identity incomplete, messages will be parked until it is configured",
			"user_id_set", identity.UserID != "", "account_id_set", identity.AccountID != "")
	}

	return gateway.New(gateway.Config{
		Backend:  backend,
		Ledger:   a.store,
		Feedback: a.store,
		Settings: a.settings,
		Metrics:  metrics,
		Identity: identity,
		Retry:    a.cfg.RetryOptions(),
	})
}

// waitUntilDrained reports true once the source has ended and the
// coordinator holds nothing. A monitor that never started counts as ended.
func waitUntilDrained(ctx context.Context, mon *monitor.Service, coord *coordinator.Coordinator) bool {
	if done := mon.Done(); done != nil {
		select {
		case <-ctx.Done():
			return false
		case <-done:
		}
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, visible := coord.Visible(); !visible && len(coord.Queued()) == 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// serveMetrics exposes reg on /metrics, over HTTPS when tlsCfg is set.
func serveMetrics(addr string, reg *prometheus.Registry, tlsCfg *tls.Config) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second, TLSConfig: tlsCfg}
	go func() {
		slog.Info("Serving metrics", "addr", addr, "tls", tlsCfg != nil)
		var err error
		if tlsCfg != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogError(err, "Metrics server stopped", common.Fields{"addr": addr})
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
