package allmemscan

// Shard is a sub-range of a window assigned to one worker.
type Shard struct {
	// Start is the offset of the shard inside the window.
	Start int
	// Len is the number of bytes the worker scans.
	Len int
	// Owned is the length of the leading part of the shard whose matches
	// this shard reports. Bytes past Owned are overlap read only to finish
	// matches that start inside the owned part.
	Owned int
}

// End returns the exclusive end offset of the shard inside the window.
func (s Shard) End() int {
	return s.Start + s.Len
}

// Partition splits a window of windowLen bytes into at most parallelism
// shards. Consecutive shards overlap by Overlap bytes and the last shard is
// truncated at windowLen.
//
// Owned ranges tile [0, windowLen) without gaps or overlap, so reporting a
// match only from the shard that owns its start reports it exactly once.
func Partition(windowLen, parallelism int) []Shard {
	if windowLen <= 0 {
		return []Shard{{}}
	}

	workers := clampWorkers(parallelism)
	if windowLen < MinParallelWindow {
		workers = 1
	}

	stride := windowLen / workers
	shardLen := stride + Overlap

	shards := make([]Shard, 0, workers)
	start := 0
	for i := 0; i < workers; i++ {
		length := shardLen
		if remaining := windowLen - start; length > remaining {
			length = remaining
		}
		owned := stride
		if i == workers-1 {
			owned = windowLen - start
		}
		shards = append(shards, Shard{Start: start, Len: length, Owned: owned})
		start += shardLen - Overlap
	}
	return shards
}

func clampWorkers(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
