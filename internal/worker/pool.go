// Package worker estimates preview loudness in the background.
package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
)

const jobTimeout = 30 * time.Second

// ErrStopped is returned by SubmitWait once Stop has been called.
var ErrStopped = errors.New("worker: pool stopped")

// Pool manages background workers for preview analysis jobs.
type Pool struct {
	sink ports.PreviewSink
	jobs chan domain.PreviewJob
	wg   sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// compile-time interface assertion
var _ ports.PreviewQueue = (*Pool)(nil)

// NewPool creates a pool whose queue holds queueSize jobs.
func NewPool(sink ports.PreviewSink, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{sink: sink, jobs: make(chan domain.PreviewJob, queueSize)}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop closes the queue and waits for queued jobs to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit queues a job without blocking. It reports false when the queue is
// full or the pool is stopped.
func (p *Pool) Submit(job domain.PreviewJob) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		log.Printf("WARN worker: dropping preview job for %s", job.TrackID)
		return false
	}
}

// SubmitWait queues a job, blocking until there is room or ctx is done.
func (p *Pool) SubmitWait(ctx context.Context, job domain.PreviewJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) processJob(job domain.PreviewJob) {
	if job.PreviewURL == "" {
		log.Printf("WARN worker: no preview URL for track %s, skipping", job.TrackID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	energy, err := AnalyzePreviewFunc(ctx, job.PreviewURL)
	if err != nil {
		log.Printf("WARN worker: analyze preview for %s: %v", job.TrackID, err)
		return
	}
	if err := p.sink.RecordPreviewEnergy(ctx, job.SnapshotID, job.TrackID, energy); err != nil {
		log.Printf("WARN worker: failed to record energy for %s: %v", job.TrackID, err)
		return
	}
	log.Printf("DEBUG worker: track %s preview energy %.3f", job.TrackID, energy)
}
