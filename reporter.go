package allmemscan

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"
)

// Reporter receives matches from concurrent shard workers.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Report(match Match)
}

// LineReporter writes one line per match to an io.Writer.
// Lines from concurrent workers are never interleaved.
type LineReporter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewLineReporter creates a LineReporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

// Report writes the match as
// "Found at <offset> (page <page>, offset <in-page hex>)".
func (r *LineReporter) Report(match Match) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, "Found at %d (page %d, offset %08x)\n",
		uint64(match.Address), match.Page(), match.PageOffset())
}

// Err returns the first write error, if any. Reports after a failed
// write are dropped.
func (r *LineReporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Collector accumulates matches in memory.
type Collector struct {
	mu      sync.Mutex
	matches []Match
}

// Report records the match.
func (c *Collector) Report(match Match) {
	c.mu.Lock()
	c.matches = append(c.matches, match)
	c.mu.Unlock()
}

// Matches returns the collected matches sorted by address.
func (c *Collector) Matches() []Match {
	c.mu.Lock()
	out := slices.Clone(c.matches)
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b Match) int {
		return cmp.Compare(a.Address, b.Address)
	})
	return out
}

// Addresses returns the collected addresses sorted in increasing order.
func (c *Collector) Addresses() []uint64 {
	matches := c.Matches()
	out := make([]uint64, len(matches))
	for i, m := range matches {
		out[i] = uint64(m.Address)
	}
	return out
}

// HandlerReporter adapts a MatchHandler into a Reporter, serializing
// calls so the handler never runs concurrently with itself.
type HandlerReporter struct {
	mu      sync.Mutex
	handler MatchHandler
}

// NewHandlerReporter wraps handler.
func NewHandlerReporter(handler MatchHandler) *HandlerReporter {
	return &HandlerReporter{handler: handler}
}

// Report invokes the handler under the reporter's lock.
func (r *HandlerReporter) Report(match Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler(match)
}
