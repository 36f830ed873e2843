package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Stats is a point-in-time view of the pool counters
type Stats struct {
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	ActiveWorkers int64 `json:"active_workers"`
	DroppedJobs   int64 `json:"dropped_jobs"`
}

// WorkerPool runs background jobs on a fixed number of goroutines
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once

	mu     sync.RWMutex
	closed bool

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	activeWorkers atomic.Int64
	droppedJobs   atomic.Int64
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

func (wp *WorkerPool) run(job func()) {
	wp.activeWorkers.Add(1)
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("Background job panicked")
		}
		wp.activeWorkers.Add(-1)
		wp.completedJobs.Add(1)
		wp.wg.Done()
	}()
	job()
}

// Submit queues a job only if there is room. It never blocks: it returns
// false when the queue is full or the pool has been closed.
func (wp *WorkerPool) Submit(job func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}

	wp.wg.Add(1)
	select {
	case wp.jobQueue <- job:
		wp.totalJobs.Add(1)
		return true
	default:
		wp.wg.Done()
		wp.droppedJobs.Add(1)
		return false
	}
}

// Wait blocks until every submitted job has finished
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) GetStats() Stats {
	return Stats{
		TotalJobs:     wp.totalJobs.Load(),
		CompletedJobs: wp.completedJobs.Load(),
		ActiveWorkers: wp.activeWorkers.Load(),
		DroppedJobs:   wp.droppedJobs.Load(),
	}
}

// Close stops accepting jobs. Queued jobs still run.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobQueue)
}
