package allmemscan

import (
	"errors"
)

// ErrMapFailed is wrapped by providers when a range cannot be mapped.
var ErrMapFailed = errors.New("map failed")

// Provider gives read access to raw memory ranges.
type Provider interface {
	// Map returns a read-only window over [start, start+length).
	Map(start, length uint64) (*Window, error)
	// Close releases the provider.
	Close() error
}

// Window is a readable buffer over one address range. Data must not be
// modified and must not be used after Close.
type Window struct {
	// Base is the absolute address of Data[0].
	Base uint64
	// Data holds the window contents.
	Data []byte

	release func() error
}

// NewWindow wraps data as a window at base. release, if not nil, is called
// once by Close.
func NewWindow(base uint64, data []byte, release func() error) *Window {
	return &Window{Base: base, Data: data, release: release}
}

// Close releases the window.
func (w *Window) Close() error {
	release := w.release
	w.release = nil
	w.Data = nil
	if release == nil {
		return nil
	}
	return release()
}
