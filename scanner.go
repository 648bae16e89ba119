package allmemscan

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	scanerrors "github.com/zhuweiyou/allmemscan/internal/errors"
)

// Scanner drives a full run: it maps every region through a Provider,
// scans it with a ParallelScanner and releases it before moving on.
type Scanner struct {
	provider Provider
	parallel *ParallelScanner
	pattern  *Pattern
	logger   zerolog.Logger
}

// NewScanner creates a Scanner reading memory from provider.
func NewScanner(provider Provider, pattern *Pattern, reporter Reporter, opts ...Option) (*Scanner, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	parallel, err := NewParallelScanner(pattern, reporter, opts...)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		provider: provider,
		parallel: parallel,
		pattern:  pattern,
		logger:   cfg.logger.With().Str("component", "scanner").Logger(),
	}, nil
}

// Scan scans regions in order. A region that cannot be mapped is logged
// and skipped. The context is checked between regions only: once a
// region is mapped its scan runs to completion.
func (s *Scanner) Scan(ctx context.Context, regions []Region) (Summary, error) {
	logger := s.logger.With().
		Str("scan_id", uuid.NewString()).
		Str("pattern_fingerprint", s.pattern.Fingerprint()).
		Int("pattern_len", s.pattern.Len()).
		Logger()

	summary := Summary{Regions: len(regions)}
	logger.Info().
		Int("regions", len(regions)).
		Int("workers", s.parallel.workers).
		Msg("Starting scan")

	for _, region := range regions {
		// Check if context was cancelled
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		window, err := s.provider.Map(region.Start, region.Length)
		if err != nil {
			summary.Skipped++
			logger.Warn().
				Err(err).
				Str("region", region.String()).
				Msg("Map failed, skipping region")
			continue
		}

		// Providers may return fewer bytes than requested.
		summary.Bytes += uint64(len(window.Data))
		summary.Matches += s.scanWindow(logger, window)
		summary.Scanned++
	}

	logger.Info().
		Int("scanned", summary.Scanned).
		Int("skipped", summary.Skipped).
		Uint64("bytes", summary.Bytes).
		Int("matches", summary.Matches).
		Msg("Scan complete")

	return summary, nil
}

func (s *Scanner) scanWindow(logger zerolog.Logger, window *Window) int {
	defer scanerrors.DeferClose(logger, window, "failed to release window")
	return s.parallel.ScanWindow(window)
}
