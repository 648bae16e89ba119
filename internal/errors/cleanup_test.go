package errors

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeCloser struct {
	err    error
	closed bool
}

func (c *fakeCloser) Close() error {
	c.closed = true
	return c.err
}

func TestDeferClose(t *testing.T) {
	t.Run("logs close failure", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)
		closer := &fakeCloser{err: errors.New("munmap: invalid argument")}

		DeferClose(logger, closer, "failed to unmap window")

		assert.True(t, closer.closed)
		assert.Contains(t, buf.String(), "failed to unmap window")
		assert.Contains(t, buf.String(), "munmap: invalid argument")
	})

	t.Run("silent on success", func(t *testing.T) {
		var buf bytes.Buffer
		closer := &fakeCloser{}

		DeferClose(zerolog.New(&buf), closer, "unused")

		assert.True(t, closer.closed)
		assert.Empty(t, buf.String())
	})

	t.Run("nil closer", func(t *testing.T) {
		assert.NotPanics(t, func() {
			DeferClose(zerolog.Nop(), nil, "unused")
		})
	})
}
