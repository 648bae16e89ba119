//go:build windows

package allmemscan

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ErrProcessNotFound is returned when no running process has the
// requested executable name.
var ErrProcessNotFound = errors.New("process not found")

// FindProcessesByName returns the IDs of every process whose executable
// name equals name, ignoring case.
func FindProcessesByName(name string) ([]uint32, error) {
	var pids []uint32
	err := eachProcess(func(entry *windows.ProcessEntry32) {
		if strings.EqualFold(windows.UTF16ToString(entry.ExeFile[:]), name) {
			pids = append(pids, entry.ProcessID)
		}
	})
	if err != nil {
		return nil, err
	}

	if len(pids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, name)
	}
	return pids, nil
}

// eachProcess calls fn for every entry of a process snapshot.
func eachProcess(fn func(entry *windows.ProcessEntry32)) error {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return fmt.Errorf("failed to create process snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot) // nolint:errcheck

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	for err = windows.Process32First(snapshot, &entry); err == nil; err = windows.Process32Next(snapshot, &entry) {
		fn(&entry)
	}
	if !errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return fmt.Errorf("failed to enumerate processes: %w", err)
	}
	return nil
}

// ProcessProvider reads the virtual memory of another process. Windows
// are copies taken with ReadProcessMemory.
type ProcessProvider struct {
	pid    uint32
	handle windows.Handle
}

// OpenProcess opens the process for reading.
func OpenProcess(pid uint32) (*ProcessProvider, error) {
	handle, err := windows.OpenProcess(
		windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION,
		false,
		pid,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open process %d: %w", pid, err)
	}

	return &ProcessProvider{pid: pid, handle: handle}, nil
}

// PID returns the process ID that this provider is attached to
func (p *ProcessProvider) PID() uint32 {
	return p.pid
}

// Regions lists the committed, readable regions in [minAddr, maxAddr).
func (p *ProcessProvider) Regions(minAddr, maxAddr uint64) ([]Region, error) {
	var (
		regions []Region
		mbi     windows.MemoryBasicInformation
	)

	address := minAddr
	for address < maxAddr {
		if err := windows.VirtualQueryEx(p.handle, uintptr(address), &mbi, unsafe.Sizeof(mbi)); err != nil {
			if len(regions) == 0 {
				return nil, fmt.Errorf("failed to query process memory: %w", err)
			}
			break
		}

		base := uint64(mbi.BaseAddress)
		size := uint64(mbi.RegionSize)
		if size == 0 {
			address++
			continue
		}

		if isReadableRegion(&mbi) {
			end := base + size
			if end > maxAddr {
				end = maxAddr
			}
			if end > base {
				regions = append(regions, Region{Start: base, Length: end - base, Name: "process memory"})
			}
		}

		address = base + size
	}

	return regions, nil
}

// Map copies [start, start+length) out of the process.
func (p *ProcessProvider) Map(start, length uint64) (*Window, error) {
	if length == 0 {
		return nil, fmt.Errorf("%w: empty range at 0x%X", ErrMapFailed, start)
	}

	buffer := make([]byte, length)
	var read uintptr
	err := windows.ReadProcessMemory(p.handle, uintptr(start), &buffer[0], uintptr(length), &read)
	if err != nil && read == 0 {
		return nil, fmt.Errorf("%w: range 0x%X+%d: %w", ErrMapFailed, start, length, err)
	}

	return NewWindow(start, buffer[:read], nil), nil
}

// Close closes the process handle
func (p *ProcessProvider) Close() error {
	if p.handle != 0 {
		err := windows.CloseHandle(p.handle)
		p.handle = 0
		return err
	}
	return nil
}

// isReadableRegion checks if a memory region is readable
func isReadableRegion(mbi *windows.MemoryBasicInformation) bool {
	readable := mbi.Protect&(windows.PAGE_READONLY|windows.PAGE_READWRITE|
		windows.PAGE_EXECUTE_READ|windows.PAGE_EXECUTE_READWRITE) != 0
	committed := mbi.State == windows.MEM_COMMIT

	return readable && committed
}
