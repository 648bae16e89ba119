//go:build !(linux || darwin || freebsd)

package allmemscan

import (
	"errors"
)

// DefaultDevice is the raw physical memory device exposed by the allmem
// kernel module.
const DefaultDevice = "/dev/allmem"

var errDeviceUnsupported = errors.New("memory devices are not supported on this platform")

// DeviceProvider is unavailable on this platform.
type DeviceProvider struct{}

// OpenDevice always fails on this platform.
func OpenDevice(path string) (*DeviceProvider, error) {
	return nil, errDeviceUnsupported
}

// Path returns an empty string.
func (p *DeviceProvider) Path() string {
	return ""
}

// Map always fails on this platform.
func (p *DeviceProvider) Map(start, length uint64) (*Window, error) {
	return nil, errDeviceUnsupported
}

// Close does nothing.
func (p *DeviceProvider) Close() error {
	return nil
}
