package allmemscan

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultIomem is the system physical memory map.
const DefaultIomem = "/proc/iomem"

// DefaultExclude lists resource tags whose ranges are never scanned.
var DefaultExclude = []string{"PCI"}

// ReadIomem parses the memory map at path. See ParseIomem.
func ReadIomem(path string, exclude []string, logger zerolog.Logger) ([]Region, error) {
	//nolint:gosec // G304: path is the system memory map or an operator override.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory map: %w", err)
	}
	defer f.Close() // nolint:errcheck

	return ParseIomem(f, exclude, logger)
}

// ParseIomem reads top-level ranges from a /proc/iomem style listing:
//
//	00001000-0009fbff : System RAM
//	000a0000-000bffff : PCI Bus 0000:00
//	  000a0000-000bffff : Video RAM area
//
// Indented lines are nested resources and are skipped, as are lines that
// contain any of the exclude tags. Malformed lines are skipped. Ends are
// inclusive.
func ParseIomem(r io.Reader, exclude []string, logger zerolog.Logger) ([]Region, error) {
	var regions []Region

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		if tag, ok := excluded(line, exclude); ok {
			logger.Info().Str("tag", tag).Str("line", line).Msg("Ignoring range")
			continue
		}

		region, err := parseIomemLine(line)
		if err != nil {
			logger.Debug().Err(err).Int("line", lineNo).Msg("Skipping malformed memory map line")
			continue
		}
		regions = append(regions, region)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read memory map: %w", err)
	}

	return regions, nil
}

func excluded(line string, tags []string) (string, bool) {
	for _, tag := range tags {
		if tag != "" && strings.Contains(line, tag) {
			return tag, true
		}
	}
	return "", false
}

func parseIomemLine(line string) (Region, error) {
	span, name, _ := strings.Cut(line, ":")
	lo, hi, ok := strings.Cut(strings.TrimSpace(span), "-")
	if !ok {
		return Region{}, fmt.Errorf("missing range separator in %q", line)
	}

	start, err := strconv.ParseUint(lo, 16, 64)
	if err != nil {
		return Region{}, fmt.Errorf("invalid start address %q: %w", lo, err)
	}
	end, err := strconv.ParseUint(hi, 16, 64)
	if err != nil {
		return Region{}, fmt.Errorf("invalid end address %q: %w", hi, err)
	}
	if end < start {
		return Region{}, fmt.Errorf("end 0x%X before start 0x%X", end, start)
	}

	return Region{
		Start:  start,
		Length: end - start + 1,
		Name:   strings.TrimSpace(name),
	}, nil
}
