//go:build linux || darwin || freebsd

package allmemscan

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// DefaultDevice is the raw physical memory device exposed by the allmem
// kernel module.
const DefaultDevice = "/dev/allmem"

// DeviceProvider maps ranges of a memory device such as /dev/allmem
// read-only into the process.
type DeviceProvider struct {
	path     string
	file     *os.File
	pageSize uint64
	// regular is set for file images, whose mappings are bounded by size.
	regular bool
	size    uint64
}

// OpenDevice opens the device at path for reading. Failure here means no
// range can be scanned.
func OpenDevice(path string) (*DeviceProvider, error) {
	//nolint:gosec // G304: device path is operator supplied.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat device %s: %w", path, err)
	}

	p := &DeviceProvider{
		path:     path,
		file:     f,
		pageSize: uint64(os.Getpagesize()),
	}
	// Touching a file mapping past EOF raises SIGBUS.
	if info.Mode().IsRegular() {
		p.regular = true
		p.size = uint64(info.Size())
	}
	return p, nil
}

// Path returns the device path.
func (p *DeviceProvider) Path() string {
	return p.path
}

// Map maps [start, start+length) of the device. start need not be page
// aligned; the mapping is widened down to a page boundary and the slack
// is hidden from the returned window.
func (p *DeviceProvider) Map(start, length uint64) (*Window, error) {
	if length == 0 {
		return nil, fmt.Errorf("%w: empty range at 0x%X", ErrMapFailed, start)
	}

	if p.regular && (start >= p.size || length > p.size-start) {
		return nil, fmt.Errorf("%w: range 0x%X+%d past end of image (%d bytes)", ErrMapFailed, start, length, p.size)
	}

	aligned := start &^ (p.pageSize - 1)
	slack := start - aligned
	total := length + slack
	if total < length || total > math.MaxInt || aligned > math.MaxInt64 {
		return nil, fmt.Errorf("%w: range 0x%X+%d exceeds addressable size", ErrMapFailed, start, length)
	}

	data, err := unix.Mmap(int(p.file.Fd()), int64(aligned), int(total), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: range 0x%X+%d: %w", ErrMapFailed, start, length, err)
	}

	return NewWindow(start, data[slack:], func() error {
		return unix.Munmap(data)
	}), nil
}

// Close closes the device.
func (p *DeviceProvider) Close() error {
	return p.file.Close()
}
