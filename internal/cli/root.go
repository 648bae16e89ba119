// Package cli implements the allmemscan command line.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zhuweiyou/allmemscan"
	"github.com/zhuweiyou/allmemscan/internal/config"
	scanerrors "github.com/zhuweiyou/allmemscan/internal/errors"
	"github.com/zhuweiyou/allmemscan/internal/logging"
)

// Version is set at build time with -ldflags.
var Version = "dev"

type rootOptions struct {
	configPath  string
	device      string
	iomem       string
	workers     int
	exclude     []string
	overlapping bool
	hex         bool
	logLevel    string
	logPretty   bool
}

// NewRootCmd builds the allmemscan command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "allmemscan [flags] COUNT SUBSTRING",
		Short: "Search physical memory for a byte pattern",
		Long: `Search every physical memory range for a pattern and print each match.

The pattern is SUBSTRING repeated COUNT times. It is obfuscated as soon as it
is read, so the plain pattern is not kept in the scanner's memory. Ranges come
from the system memory map (/proc/iomem) and are read through a raw memory
device (/dev/allmem by default). Ranges tagged PCI are skipped.

Each match prints one line:
  Found at <offset> (page <page>, offset <in-page hex>)

Examples:
  # Search for a key repeated once
  allmemscan 1 SECRET-KEY-1234

  # Search for 0xDEADBEEF four times in a row
  allmemscan --hex 4 "DE AD BE EF"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args[0], args[1])
		},
	}

	addScanFlags(cmd.Flags(), opts)
	cmd.Flags().StringVar(&opts.device, "device", allmemscan.DefaultDevice, "raw memory device")
	cmd.Flags().StringVar(&opts.iomem, "iomem", allmemscan.DefaultIomem, "memory map listing the ranges to scan")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", allmemscan.DefaultExclude, "memory map tags to skip")

	cmd.AddCommand(newVersionCmd())
	addPlatformCommands(cmd)

	return cmd
}

// addScanFlags registers the flags shared by every scanning command.
func addScanFlags(flags *pflag.FlagSet, opts *rootOptions) {
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "parallel workers per range (0 = one per CPU, max 64)")
	flags.BoolVar(&opts.overlapping, "overlapping", false, "report overlapping occurrences of self-overlapping patterns; "+
		"without it, matches of such patterns near shard seams can vary with --workers")
	flags.BoolVar(&opts.hex, "hex", false, "read SUBSTRING as space separated hex bytes")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&opts.logPretty, "log-pretty", true, "human readable logs")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("allmemscan version %s\n", Version)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig resolves file, environment and flag settings, in that order
// of increasing precedence.
func loadConfig(flags *pflag.FlagSet, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("device") {
		cfg.Device = opts.device
	}
	if flags.Changed("iomem") {
		cfg.Iomem = opts.iomem
	}
	if flags.Changed("exclude") {
		cfg.Exclude = opts.exclude
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("overlapping") {
		cfg.Overlapping = opts.overlapping
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-pretty") {
		cfg.Log.Pretty = opts.logPretty
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildPattern returns the obfuscated effective pattern: text repeated
// count times.
func buildPattern(count, text string, hexInput bool) ([]byte, error) {
	n, err := strconv.Atoi(count)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("%w: %q", allmemscan.ErrInvalidRepeat, count)
	}

	if !hexInput {
		return allmemscan.RepeatPattern(text, n)
	}

	unit, err := allmemscan.ParseHexPattern(text)
	if err != nil {
		return nil, err
	}
	if n > allmemscan.MaxPatternLen/len(unit) {
		return nil, fmt.Errorf("%w: %d x %d bytes, maximum is %d",
			allmemscan.ErrPatternTooLong, n, len(unit), allmemscan.MaxPatternLen)
	}
	return bytes.Repeat(unit, n), nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: w,
	})
}

func runScan(cmd *cobra.Command, opts *rootOptions, count, text string) error {
	cfg, err := loadConfig(cmd.Flags(), opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	obfuscated, err := buildPattern(count, text, opts.hex)
	if err != nil {
		return err
	}
	pattern, err := allmemscan.Compile(obfuscated)
	if err != nil {
		return err
	}

	provider, err := allmemscan.OpenDevice(cfg.Device)
	if err != nil {
		return err
	}
	defer scanerrors.DeferClose(logger, provider, "failed to close device")

	regions, err := allmemscan.ReadIomem(cfg.Iomem, cfg.Exclude, logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	return scan(ctx, cmd, cfg, logger, provider, pattern, regions)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM. It
// covers the whole command run.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// scan runs the regions through a Scanner and prints matches to stdout.
// Cancellation of ctx is not an error.
func scan(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger zerolog.Logger,
	provider allmemscan.Provider, pattern *allmemscan.Pattern, regions []allmemscan.Region) error {

	reporter := allmemscan.NewLineReporter(cmd.OutOrStdout())
	scanner, err := allmemscan.NewScanner(provider, pattern, reporter,
		allmemscan.WithWorkers(cfg.EffectiveWorkers()),
		allmemscan.WithOverlapping(cfg.Overlapping),
		allmemscan.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	_, err = scanner.Scan(ctx, regions)
	if errors.Is(err, context.Canceled) {
		logger.Warn().Msg("Scan interrupted")
		err = nil
	}
	if err != nil {
		return err
	}

	if err := reporter.Err(); err != nil {
		return fmt.Errorf("failed to write matches: %w", err)
	}
	return nil
}
