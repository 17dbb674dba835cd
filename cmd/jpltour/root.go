package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"jpltour/pkg/browser"
	"jpltour/pkg/config"
	"jpltour/pkg/history"
	"jpltour/pkg/logger"
	"jpltour/pkg/notify"
	"jpltour/pkg/reserve"
	"jpltour/pkg/runner"
	"jpltour/pkg/utils/dateutils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options are the flags shared by every command.
type options struct {
	configPath    string
	browserBinary string
	ui            bool
	pageTimeout   int
	reserveRange  []string
	notify        string
	wait          []string
	statePath     string
	verbose       bool
}

func newRootCmd() *cobra.Command {
	return newRootCommand(&options{})
}

func newRootCommand(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "jpltour",
		Short: "Watch the JPL tours page, report changes and press Reserve on a matching date",
		Long: `jpltour loads the JPL tours page, searches for visitor day tours and reports
changes to the next release date, the availability summary and the tour table
since the previous run. With a reservation date range it presses Reserve on the
first tour in that range and waits for you to finish the booking.

Exit status: 0 success, 2 completed with warnings, 1 completed with errors.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, o)
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", "", "config file (yaml or json)")
	f.StringVarP(&o.browserBinary, "browser-binary", "b", "", "Chrome executable")
	f.BoolVarP(&o.ui, "ui", "u", false, "show the browser window")
	f.IntVarP(&o.pageTimeout, "page-timeout", "t", 0, "page load timeout in seconds")
	f.StringSliceVarP(&o.reserveRange, "reserve-date-range", "r", nil, "press Reserve for a tour between MIN,MAX (ISO dates, implies --ui)")
	f.StringVarP(&o.notify, "notify", "n", "", "notification destination (Discord/WeChat webhook URL or telegram:<chat_id>)")
	f.StringSliceVarP(&o.wait, "wait", "w", nil, "wait a random MIN,MAX seconds before starting")
	f.StringVarP(&o.statePath, "state", "s", "", "state file")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newWatchCmd(o))
	root.AddCommand(newHistoryCmd(o))
	root.AddCommand(newStateCmd(o))
	root.AddCommand(newConfigCmd(o))
	root.AddCommand(newVersionCmd())
	return root
}

// load reads the config file and applies the command line on top.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := o.apply(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.App.LogLevel
	if o.verbose {
		level = "debug"
	}
	if err := logger.InitLogger(cfg.App.Development, cfg.App.LogFile, level); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func (o *options) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("browser-binary") {
		cfg.Browser.ExecPath = o.browserBinary
	}
	if o.ui {
		cfg.Browser.Headless = false
	}
	if flags.Changed("page-timeout") {
		cfg.Browser.PageTimeout = o.pageTimeout
	}
	if flags.Changed("reserve-date-range") {
		if len(o.reserveRange) != 2 {
			return fmt.Errorf("%w: --reserve-date-range needs MIN,MAX", config.ErrInvalidValue)
		}
		if _, err := dateutils.ParseRange(o.reserveRange[0], o.reserveRange[1]); err != nil {
			return fmt.Errorf("%w: --reserve-date-range: %v", config.ErrInvalidValue, err)
		}
		cfg.Reserve.From, cfg.Reserve.To = o.reserveRange[0], o.reserveRange[1]
	}
	if flags.Changed("notify") {
		cfg.Notify.Destination = o.notify
	}
	if flags.Changed("wait") {
		if len(o.wait) != 2 {
			return fmt.Errorf("%w: --wait needs MIN,MAX", config.ErrInvalidValue)
		}
		lo, err1 := strconv.Atoi(o.wait[0])
		hi, err2 := strconv.Atoi(o.wait[1])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("%w: --wait needs whole seconds, got %v", config.ErrInvalidValue, o.wait)
		}
		cfg.Run.WaitMin, cfg.Run.WaitMax = lo, hi
	}
	if flags.Changed("state") {
		cfg.State.Path = o.statePath
	}
	cfg.ApplyImplied()
	return nil
}

// newController wires the browser, prompt and history into a run controller.
// store is nil when the history is disabled; closeFn closes it.
func newController(cfg *config.Config, trigger string) (ctrl *runner.Controller, store *history.Store, closeFn func()) {
	factory := browser.ChromeFactory(browser.Options{
		ExecPath:    cfg.Browser.ExecPath,
		Headless:    cfg.Browser.Headless,
		PageTimeout: cfg.Browser.PageTimeoutDuration(),
		Window:      browser.Size{Width: cfg.Browser.WindowWidth, Height: cfg.Browser.WindowHeight},
	})
	ctrl = runner.New(cfg, factory, reserve.NewTerminalPrompter())
	ctrl.Trigger = trigger

	if !cfg.History.Enabled {
		return ctrl, nil, func() {}
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn("Run history disabled", zap.Error(err))
		return ctrl, nil, func() {}
	}
	ctrl.WithHistory(store)
	return ctrl, store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close history database", zap.Error(err))
		}
	}
}

// signalContext cancels on SIGTERM. SIGINT first tries to cut a countdown
// wait short and only cancels when there is none.
func signalContext(parent context.Context, ctrl *runner.Controller) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == os.Interrupt && ctrl.Interrupt() {
					logger.Info("Countdown wait interrupted")
					continue
				}
				logger.Info("Received signal, stopping", zap.String("signal", sig.String()))
				cancel()
				return
			}
		}
	}()
	return ctx, cancel
}

func runOnce(cmd *cobra.Command, o *options) error {
	cfg, err := o.load(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sender, err := notify.NewSender(cfg.Notify)
	if err != nil {
		return err
	}

	ctrl, _, closeHistory := newController(cfg, "cli")
	defer closeHistory()

	ctx, cancel := signalContext(cmd.Context(), ctrl)
	defer cancel()

	res, _ := ctrl.Run(ctx)
	deliver(ctx, sender, res)

	if code := res.Outcome().ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// deliver sends res even when the run was cancelled.
func deliver(ctx context.Context, sender notify.Sender, res *notify.RunResult) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()
	_ = notify.Deliver(sendCtx, sender, res)
}
