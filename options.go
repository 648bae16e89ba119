package allmemscan

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/cpu"
)

var (
	// ErrInvalidWorkers is returned when the worker count is outside [1, MaxWorkers].
	ErrInvalidWorkers = errors.New("workers must be between 1 and 64")

	// ErrNilPattern is returned when no compiled Pattern is supplied.
	ErrNilPattern = errors.New("pattern must not be nil")

	// ErrNilReporter is returned when no Reporter is supplied.
	ErrNilReporter = errors.New("reporter must not be nil")

	// ErrNilProvider is returned when no Provider is supplied.
	ErrNilProvider = errors.New("provider must not be nil")
)

// Option configures a ParallelScanner or Scanner.
type Option func(*config) error

type config struct {
	workers     int
	overlapping bool
	logger      zerolog.Logger
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		workers: DefaultWorkers(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithWorkers sets the parallelism hint used to partition each window.
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n < 1 || n > MaxWorkers {
			return fmt.Errorf("%w: got %d", ErrInvalidWorkers, n)
		}
		c.workers = n
		return nil
	}
}

// WithOverlapping reports overlapping occurrences of self-overlapping
// patterns instead of skipping past each match.
func WithOverlapping(overlapping bool) Option {
	return func(c *config) error {
		c.overlapping = overlapping
		return nil
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// DefaultWorkers returns the number of logical CPUs, capped at MaxWorkers.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	return clampWorkers(n)
}
