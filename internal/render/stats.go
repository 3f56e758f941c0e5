package render

import (
	"sync"
	"time"
)

// Stats is the shared per-run accumulator. Every worker folds its
// per-thread ray and path counters into it exactly once, at exit, under
// the lock; BucketsDone is not folded in at exit but incremented under the
// same lock after every finished bucket.
type Stats struct {
	mu sync.Mutex

	RaysTraced   uint64
	PathsTraced  uint64
	BucketsDone  int
	Elapsed      time.Duration
	PerThreadRay []uint64 // one slot per worker; not printed by the --stats line
}

// mergeWorker folds one worker's final counters into the shared block.
func (s *Stats) mergeWorker(workerID int, rays, paths uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RaysTraced += rays
	s.PathsTraced += paths
	for len(s.PerThreadRay) <= workerID {
		s.PerThreadRay = append(s.PerThreadRay, 0)
	}
	s.PerThreadRay[workerID] = rays
}

func (s *Stats) bucketDone() {
	s.mu.Lock()
	s.BucketsDone++
	s.mu.Unlock()
}

// progressCounter is the single mutex-guarded completed-pixel counter
// spec.md §5 specifies.
type progressCounter struct {
	mu        sync.Mutex
	done      int
	total     int
	lastPrint int
}

func newProgressCounter(total int) *progressCounter {
	return &progressCounter{total: total, lastPrint: -1}
}

// add advances the counter by n and reports whether the integer
// percentage changed, for the caller to decide whether to print.
func (p *progressCounter) add(n int) (percent int, changed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	percent = 100
	if p.total > 0 {
		percent = p.done * 100 / p.total
	}
	changed = percent != p.lastPrint
	p.lastPrint = percent
	return percent, changed
}
