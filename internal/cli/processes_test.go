package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestScanProcesses_StopsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var logs bytes.Buffer
	var opened []uint32
	scanProcesses(ctx, zerolog.New(&logs), []uint32{100, 200, 300}, func(ctx context.Context, pid uint32) error {
		opened = append(opened, pid)
		// Interrupt arrives while the first process is being scanned.
		cancel()
		return nil
	})

	assert.Equal(t, []uint32{100}, opened)
	assert.Contains(t, logs.String(), "skipping remaining processes")
	assert.Contains(t, logs.String(), `"remaining":2`)
}

func TestScanProcesses_SharesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	scanProcesses(ctx, zerolog.Nop(), []uint32{1, 2}, func(got context.Context, pid uint32) error {
		assert.Equal(t, ctx, got)
		return nil
	})
}

func TestScanProcesses_SkipsFailingProcess(t *testing.T) {
	var logs bytes.Buffer
	var opened []uint32
	scanProcesses(t.Context(), zerolog.New(&logs), []uint32{1, 2, 3}, func(ctx context.Context, pid uint32) error {
		opened = append(opened, pid)
		if pid == 2 {
			return errors.New("access denied")
		}
		return nil
	})

	assert.Equal(t, []uint32{1, 2, 3}, opened)
	assert.Contains(t, logs.String(), "Skipping process")
	assert.Contains(t, logs.String(), "access denied")
}

func TestScanProcesses_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	called := false
	scanProcesses(ctx, zerolog.Nop(), []uint32{1}, func(ctx context.Context, pid uint32) error {
		called = true
		return nil
	})

	assert.False(t, called)
}
