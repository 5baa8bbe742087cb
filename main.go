// diskgauge
// Raw block-device diagnostic: sweep every sector with write/read/verify,
// hammer a single sector, or write a file image at a sector offset.
// Cobra CLI + optional tcell fullscreen view.
//
// Build:
//
//	go build -ldflags "-X main.version=1.0.0" -o diskgauge .
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diskgauge/disk"
	"diskgauge/gauge"
	"diskgauge/internal/config"
	"diskgauge/internal/logger"
	"diskgauge/tui"
)

var version = "dev"

// app is the state shared by all commands of one invocation.
type app struct {
	out io.Writer
	cfg config.Config
	log *zap.Logger

	logLevel  string
	logFormat string
	useUI     bool

	newScreen  func() (screen, error)
	engineOpts []gauge.Option
}

func newApp(out io.Writer) *app {
	return &app{
		out: out,
		newScreen: func() (screen, error) {
			ui, err := tui.NewUI()
			if err != nil {
				return nil, err
			}
			return ui, nil
		},
	}
}

// setup loads the environment config, applies flag overrides and builds the
// logger. It runs before every command.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	if a.log, err = logger.New(logger.LoggerConfig{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return err
	}
	a.log.Info("diskgauge", zap.String("version", version), zap.String("os", runtime.GOOS))
	return nil
}

// engine builds the engine for one command. With --ui the returned context is
// also cancelled by the quit key, and done must run before the command
// returns so that the terminal is restored and queued reports are written.
func (a *app) engine(ctx context.Context) (e *gauge.Engine, runCtx context.Context, done func(), err error) {
	rep := newLogReporter(a.out, a.log)
	if !a.useUI {
		return gauge.NewEngine(a.cfg.Engine(), rep, a.log, a.engineOpts...), ctx, func() {}, nil
	}

	ui, err := a.newScreen()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ui init: %w", err)
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	if s, ok := ui.(interface{ Stopped() <-chan struct{} }); ok {
		go func() {
			select {
			case <-s.Stopped():
				cancel(tui.ErrInterrupted)
			case <-runCtx.Done():
			}
		}()
	}
	ur := newUIReporter(ui, rep, a.log)
	done = func() {
		cancel(nil)
		ur.Close()
	}
	// engine logs would tear the screen; the reporter replays what matters
	return gauge.NewEngine(a.cfg.Engine(), ur, zap.NewNop(), a.engineOpts...), runCtx, done, nil
}

func usage(cmd *cobra.Command) error {
	_ = cmd.Usage()
	return nil
}

func parseSector(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil && n >= 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "diskgauge",
		Short:         "Raw disk write/read/verify gauge and burn-in tool",
		Long:          "Exercise a raw block device sector by sector, measuring write and read latency and verifying every byte.\nAll modes except list destroy data on the target device.",
		Example:       "  diskgauge list\n  diskgauge gauge " + disk.CandidatePath(3),
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usage(cmd)
		},
	}
	root.SetOut(a.out)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintln(cmd.OutOrStdout(), err)
		return usage(cmd)
	})
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "console", "log format: console or json")

	var probe int
	listLong := "List physical disks and their geometry (read-only).\n" +
		"Only the fixed candidate set is probed (" + disk.CandidatePath(0) + " onward). " +
		"NVMe and virtio disks are not listed; pass their path to gauge, burn or rawwrite directly."
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "List physical disks and their geometry (read-only)",
		Long:    listLong,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usage(cmd)
			}
			if cmd.Flags().Changed("probe") {
				if probe <= 0 {
					return usage(cmd)
				}
				a.cfg.ProbeCount = probe
			}
			e := gauge.NewEngine(a.cfg.Engine(), newLogReporter(a.out, a.log), a.log, a.engineOpts...)
			found := e.ListDisks(cmd.Context())
			a.log.Info("disk listing complete", zap.Int("found", len(found)), zap.Int("probed", a.cfg.ProbeCount))
			return nil
		},
	}
	listCmd.Flags().IntVar(&probe, "probe", 16, "number of candidate device paths to probe")

	var snapshotEvery int64
	gaugeCmd := &cobra.Command{
		Use:     "gauge <device>",
		Aliases: []string{"g"},
		Short:   "Write, read back and verify every sector once (DESTROYS DATA)",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usage(cmd)
			}
			if cmd.Flags().Changed("snapshot-every") {
				if snapshotEvery <= 0 {
					return usage(cmd)
				}
				a.cfg.SnapshotEvery = snapshotEvery
			}
			e, ctx, done, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			_, err = e.Gauge(ctx, args[0])
			return err
		},
	}
	gaugeCmd.Flags().Int64Var(&snapshotEvery, "snapshot-every", 512, "sectors between statistics snapshots")
	gaugeCmd.Flags().BoolVar(&a.useUI, "ui", false, "fullscreen progress view")

	var reportEvery, maxCycles int64
	burnCmd := &cobra.Command{
		Use:     "burn <device> <sector>",
		Aliases: []string{"b"},
		Short:   "Repeat write/read/verify on one sector until stopped (DESTROYS DATA)",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usage(cmd)
			}
			sector, ok := parseSector(args[1])
			if !ok {
				return usage(cmd)
			}
			if cmd.Flags().Changed("report-every") {
				if reportEvery <= 0 {
					return usage(cmd)
				}
				a.cfg.BurnReportEvery = reportEvery
			}
			if cmd.Flags().Changed("max-cycles") {
				if maxCycles <= 0 {
					return usage(cmd)
				}
				a.cfg.BurnMaxCycles = maxCycles
			}
			e, ctx, done, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			_, err = e.Burn(ctx, args[0], sector)
			return err
		},
	}
	burnCmd.Flags().Int64Var(&reportEvery, "report-every", 1000, "cycles between statistics reports")
	burnCmd.Flags().Int64Var(&maxCycles, "max-cycles", 0, "stop after this many cycles (default: until interrupted)")
	burnCmd.Flags().BoolVar(&a.useUI, "ui", false, "fullscreen progress view")

	rawCmd := &cobra.Command{
		Use:     "rawwrite <device> <sector> <file>",
		Aliases: []string{"w", "raw-write"},
		Short:   "Write a file's bytes at a sector offset with one unverified write (DESTROYS DATA)",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return usage(cmd)
			}
			sector, ok := parseSector(args[1])
			if !ok {
				return usage(cmd)
			}
			e, ctx, done, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			_, err = e.RawWrite(ctx, args[0], sector, args[2])
			return err
		},
	}

	root.AddCommand(listCmd, gaugeCmd, burnCmd, rawCmd)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(newApp(os.Stdout)).ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(os.Stderr, "\nInterrupted\n")
		os.Exit(130)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
