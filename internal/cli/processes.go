package cli

import (
	"context"

	"github.com/rs/zerolog"
)

// scanProcesses calls scanOne for each pid in order. A failing pid is
// logged and skipped. Once ctx is done no further pid is started.
func scanProcesses(ctx context.Context, logger zerolog.Logger, pids []uint32,
	scanOne func(ctx context.Context, pid uint32) error) {

	for i, pid := range pids {
		// Check if context was cancelled
		if ctx.Err() != nil {
			logger.Warn().
				Int("remaining", len(pids)-i).
				Msg("Scan interrupted, skipping remaining processes")
			return
		}

		if err := scanOne(ctx, pid); err != nil {
			logger.Warn().Err(err).Uint32("pid", pid).Msg("Skipping process")
		}
	}
}
