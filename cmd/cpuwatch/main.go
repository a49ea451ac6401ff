// Command cpuwatch samples kernel CPU accounting counters and reports host
// utilization percentages.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hostwatch/cpuwatch/pkg/crosscheck"
	"github.com/hostwatch/cpuwatch/pkg/health"
	"github.com/hostwatch/cpuwatch/pkg/output"
	"github.com/hostwatch/cpuwatch/pkg/procstat"
	"github.com/hostwatch/cpuwatch/pkg/sample"
	"github.com/hostwatch/cpuwatch/pkg/sampler"
	"github.com/hostwatch/cpuwatch/pkg/stats"
)

var (
	flagLogLevel    string
	flagProcStat    string
	flagReadTimeout time.Duration

	log = logrus.New()
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(3)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cpuwatch",
		Short: "Host CPU utilization sampler",
		Long: `cpuwatch derives CPU utilization from the kernel's cumulative
time-bucket counters by taking two snapshots apart in time and computing the
active share of the elapsed counter delta.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(flagLogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
			}
			log.SetLevel(level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagProcStat, "proc-stat", procstat.DefaultPath, "path of the kernel CPU statistics file")
	root.PersistentFlags().DurationVar(&flagReadTimeout, "read-timeout", procstat.DefaultTimeout, "bound on a single statistics read")

	root.AddCommand(watchCmd(), checkCmd(), crosscheckCmd())
	return root
}

func newReader() *procstat.Reader {
	return &procstat.Reader{
		Path:    flagProcStat,
		Timeout: flagReadTimeout,
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func watchCmd() *cobra.Command {
	var (
		interval   time.Duration
		count      int
		modeName   string
		regression string
		formatName string
		trend      int
		warn       float64
		crit       float64
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sample utilization on a fixed cadence until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := sampler.ParseMode(modeName)
			if err != nil {
				return err
			}
			policy, err := sample.ParsePolicy(regression)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(formatName)
			if err != nil {
				return err
			}

			s := sampler.New(newReader(), sampler.Config{
				Interval: interval,
				Mode:     mode,
				Policy:   policy,
				Logger:   log,
			})
			emitter := output.NewEmitter(format, os.Stdout, health.Thresholds{
				WarnUtil: warn,
				CritUtil: crit,
			})
			if trend > 0 {
				emitter.SetTrendTracker(output.NewTrendTracker(trend))
			}
			session := stats.NewSession()

			ctx, stop := signalContext()
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			err = s.Run(ctx, func(res sampler.Result) {
				session.Observe(res)
				if emitErr := emitter.Emit(res); emitErr != nil {
					log.WithField("error", emitErr).Warn("Emit failed")
				}
				if count > 0 && res.Seq >= count {
					cancel()
				}
			})

			if format == output.FormatPlain || format == output.FormatPretty {
				stats.Render(os.Stdout, session.Summarize())
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", sampler.DefaultInterval, "pause between the two snapshots of a cycle")
	cmd.Flags().IntVarP(&count, "count", "c", 0, "number of cycles to run (0 = until interrupted)")
	cmd.Flags().StringVar(&modeName, "mode", sampler.ModeCarried.String(), "snapshot pairing: carried or paired")
	cmd.Flags().StringVar(&regression, "regression", sample.PassThrough.String(), "counter regression policy: passthrough, clamp or flag")
	cmd.Flags().StringVarP(&formatName, "format", "f", string(output.FormatPretty), "output format: plain, pretty, json or tsv")
	cmd.Flags().IntVar(&trend, "trend", 20, "sparkline window in pretty output (0 = off)")
	cmd.Flags().Float64Var(&warn, "warn", health.DefaultThresholds().WarnUtil, "warning threshold percent")
	cmd.Flags().Float64Var(&crit, "crit", health.DefaultThresholds().CritUtil, "critical threshold percent")
	return cmd
}

func checkCmd() *cobra.Command {
	var (
		interval   time.Duration
		regression string
		warn       float64
		crit       float64
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one sampling cycle and exit with a health status code",
		Long: `check takes a single utilization measurement and maps it to an exit
code: 0 ok, 1 warning, 2 critical, 3 measurement unavailable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := sample.ParsePolicy(regression)
			if err != nil {
				return err
			}
			s := sampler.New(newReader(), sampler.Config{
				Interval: interval,
				Mode:     sampler.ModePaired,
				Policy:   policy,
				Logger:   log,
			})

			ctx, stop := signalContext()
			defer stop()

			emitter := output.NewEmitter(output.FormatPlain, os.Stdout, health.Thresholds{
				WarnUtil: warn,
				CritUtil: crit,
			})

			res := s.Once(ctx)
			if emitErr := emitter.Emit(res); emitErr != nil {
				return emitErr
			}

			var summary health.Summary
			summary.Add(emitter.Status(res))
			if code := summary.ExitCode(); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", sampler.DefaultInterval, "pause between the two snapshots")
	cmd.Flags().StringVar(&regression, "regression", sample.Flag.String(), "counter regression policy: passthrough, clamp or flag")
	cmd.Flags().Float64Var(&warn, "warn", health.DefaultThresholds().WarnUtil, "warning threshold percent")
	cmd.Flags().Float64Var(&crit, "crit", health.DefaultThresholds().CritUtil, "critical threshold percent")
	return cmd
}

func crosscheckCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "crosscheck",
		Short: "Compare one interval's utilization across independent sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			sources := crosscheck.Gather(ctx, newReader(), interval)
			if len(sources) == 0 {
				return errors.New("no utilization source available")
			}

			result := crosscheck.NewValidator().Validate(sources)
			crosscheck.Render(os.Stdout, result)

			switch result.Verdict {
			case crosscheck.VerdictConflict:
				os.Exit(2)
			case crosscheck.VerdictSuspect:
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", sampler.DefaultInterval, "measurement interval")
	return cmd
}
