package allmemscan

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ParallelScanner scans one window at a time by fanning its shards out to
// concurrent workers and joining them before returning.
type ParallelScanner struct {
	pattern     *Pattern
	reporter    Reporter
	workers     int
	overlapping bool
	logger      zerolog.Logger
}

// NewParallelScanner creates a ParallelScanner for pattern that sends every
// match to reporter.
func NewParallelScanner(pattern *Pattern, reporter Reporter, opts ...Option) (*ParallelScanner, error) {
	if pattern == nil {
		return nil, ErrNilPattern
	}
	if reporter == nil {
		return nil, ErrNilReporter
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &ParallelScanner{
		pattern:     pattern,
		reporter:    reporter,
		workers:     cfg.workers,
		overlapping: cfg.overlapping,
		logger:      cfg.logger.With().Str("component", "parallel_scanner").Logger(),
	}, nil
}

// ScanWindow scans the whole window and returns the number of matches
// reported. It returns only after every shard worker has finished; a scan
// that has started cannot be interrupted.
func (s *ParallelScanner) ScanWindow(w *Window) int {
	shards := Partition(len(w.Data), s.workers)
	counts := make([]int, len(shards))
	start := time.Now()

	var g errgroup.Group
	for i, shard := range shards {
		g.Go(func() error {
			counts[i] = s.scanShard(w, shard)
			return nil
		})
	}
	// Workers never fail.
	_ = g.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}

	s.logger.Debug().
		Str("base", Address(w.Base).String()).
		Int("size", len(w.Data)).
		Int("shards", len(shards)).
		Int("matches", total).
		Dur("elapsed", time.Since(start)).
		Msg("Window scanned")

	return total
}

func (s *ParallelScanner) scanShard(w *Window, shard Shard) int {
	hay := w.Data[shard.Start:shard.End()]
	global := w.Base + uint64(shard.Start)

	count := 0
	s.pattern.Search(hay, shard.Owned, s.overlapping, func(offset int) {
		s.reporter.Report(Match{Address: Address(global + uint64(offset))})
		count++
	})

	s.logger.Trace().
		Str("offset", Address(global).String()).
		Int("size", shard.Len).
		Int("matches", count).
		Msg("Shard finished")

	return count
}
