package allmemscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition_SmallWindowUsesOneShard(t *testing.T) {
	tests := []struct {
		name      string
		windowLen int
		workers   int
	}{
		{name: "one byte", windowLen: 1, workers: 8},
		{name: "one page", windowLen: PageSize, workers: 64},
		{name: "just under threshold", windowLen: MinParallelWindow - 1, workers: 4},
		{name: "large with one worker", windowLen: 8 * MinParallelWindow, workers: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shards := Partition(tt.windowLen, tt.workers)
			require.Len(t, shards, 1)
			assert.Equal(t, Shard{Start: 0, Len: tt.windowLen, Owned: tt.windowLen}, shards[0])
		})
	}
}

func TestPartition_EmptyWindow(t *testing.T) {
	shards := Partition(0, 8)
	require.Len(t, shards, 1)
	assert.Equal(t, Shard{}, shards[0])
}

func TestPartition_FourWorkers(t *testing.T) {
	const windowLen = 2 * MinParallelWindow
	stride := windowLen / 4

	shards := Partition(windowLen, 4)

	require.Len(t, shards, 4)
	for i, s := range shards[:3] {
		assert.Equal(t, i*stride, s.Start)
		assert.Equal(t, stride+Overlap, s.Len)
		assert.Equal(t, stride, s.Owned)
	}
	last := shards[3]
	assert.Equal(t, 3*stride, last.Start)
	assert.Equal(t, windowLen, last.End())
	assert.Equal(t, stride, last.Owned)
}

func TestPartition_ClampsWorkers(t *testing.T) {
	const windowLen = 16 * MinParallelWindow

	assert.Len(t, Partition(windowLen, 1000), MaxWorkers)
	assert.Len(t, Partition(windowLen, 0), 1)
	assert.Len(t, Partition(windowLen, -3), 1)
}

func TestPartition_Invariants(t *testing.T) {
	sizes := []int{
		MinParallelWindow,
		MinParallelWindow + 1,
		MinParallelWindow + 63,
		3*MinParallelWindow + 4095,
		5*MinParallelWindow - 7,
	}

	for _, windowLen := range sizes {
		for _, workers := range []int{2, 3, 7, 16, 63, 64} {
			shards := Partition(windowLen, workers)
			require.Len(t, shards, workers)

			require.Equal(t, 0, shards[0].Start)
			owned := 0
			for i, s := range shards {
				assert.LessOrEqual(t, s.End(), windowLen, "shard %d extends past window", i)
				assert.LessOrEqual(t, s.Owned, s.Len)
				// Owned ranges tile the window.
				assert.Equal(t, owned, s.Start)
				owned += s.Owned

				if i > 0 {
					prev := shards[i-1]
					assert.Equal(t, Overlap, prev.End()-s.Start, "shards %d and %d must overlap by one page", i-1, i)
				}
				if i < len(shards)-1 {
					// A pattern starting at the last owned byte still fits.
					assert.GreaterOrEqual(t, s.Len-s.Owned, MaxPatternLen-1)
				}
			}
			assert.Equal(t, windowLen, owned)
			assert.Equal(t, windowLen, shards[len(shards)-1].End())
		}
	}
}
