package allmemscan

import (
	"fmt"
)

const (
	// PageSize is the page granularity used for reporting and mapping.
	PageSize = 4096

	// MaxPatternLen is the hard cap on pattern length in bytes.
	MaxPatternLen = 1024

	// ObfuscationKey is XORed into every pattern byte so the plaintext
	// pattern never lives in the scanner's own memory image.
	ObfuscationKey byte = 42

	// Overlap is the number of bytes shared by consecutive shards. It must
	// be at least MaxPatternLen-1 so no occurrence is split by a seam.
	Overlap = PageSize

	// MinParallelWindow is the window size below which a single shard is used.
	MinParallelWindow = 1024 * 1024

	// MaxWorkers caps the number of shards scanned concurrently per window.
	MaxWorkers = 64
)

// Address represents a memory address
type Address uint64

// String returns the hexadecimal representation of the address
func (a Address) String() string {
	return fmt.Sprintf("0x%X", uint64(a))
}

// Match represents a single pattern occurrence at an absolute address.
type Match struct {
	Address Address
}

// Page returns the page number holding the match.
func (m Match) Page() uint64 {
	return uint64(m.Address) / PageSize
}

// PageOffset returns the offset of the match inside its page.
func (m Match) PageOffset() uint64 {
	return uint64(m.Address) % PageSize
}

// MatchHandler is called for each match found during scanning.
// Calls are serialized by HandlerReporter.
type MatchHandler func(match Match)

// Region is one candidate address range to scan.
type Region struct {
	Start  uint64
	Length uint64
	// Name is the resource description, e.g. "System RAM".
	Name string
}

// End returns the inclusive last address of the region.
func (r Region) End() uint64 {
	if r.Length == 0 {
		return r.Start
	}
	return r.Start + r.Length - 1
}

// String formats the region the way /proc/iomem does.
func (r Region) String() string {
	return fmt.Sprintf("%08x-%08x : %s", r.Start, r.End(), r.Name)
}

// Summary describes the outcome of a Scanner run.
type Summary struct {
	// Regions is the number of regions considered.
	Regions int
	// Scanned is the number of regions mapped and fully scanned.
	Scanned int
	// Skipped is the number of regions whose mapping failed.
	Skipped int
	// Bytes is the total number of bytes scanned.
	Bytes uint64
	// Matches is the total number of matches reported.
	Matches int
}
