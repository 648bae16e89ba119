//go:build windows

package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhuweiyou/allmemscan"
	"github.com/zhuweiyou/allmemscan/internal/config"
	scanerrors "github.com/zhuweiyou/allmemscan/internal/errors"
)

const maxUserAddress = 0x7FFFFFFFFFFF

func addPlatformCommands(root *cobra.Command) {
	root.AddCommand(newProcessCmd())
}

func newProcessCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "process [flags] NAME COUNT SUBSTRING",
		Short: "Search the memory of every process with the given executable name",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			obfuscated, err := buildPattern(args[1], args[2], opts.hex)
			if err != nil {
				return err
			}
			pattern, err := allmemscan.Compile(obfuscated)
			if err != nil {
				return err
			}

			pids, err := allmemscan.FindProcessesByName(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			scanProcesses(ctx, logger, pids, func(ctx context.Context, pid uint32) error {
				return scanProcess(ctx, cmd, cfg, logger, pid, pattern)
			})
			return nil
		},
	}

	addScanFlags(cmd.Flags(), opts)
	return cmd
}

func scanProcess(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger zerolog.Logger,
	pid uint32, pattern *allmemscan.Pattern) error {

	logger = logger.With().Uint32("pid", pid).Logger()

	provider, err := allmemscan.OpenProcess(pid)
	if err != nil {
		return err
	}
	defer scanerrors.DeferClose(logger, provider, "failed to close process handle")

	regions, err := provider.Regions(0, maxUserAddress)
	if err != nil {
		return err
	}

	return scan(ctx, cmd, cfg, logger, provider, pattern, regions)
}
