package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/spotilyze/internal/core/analysis"
	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
)

// ErrPreviewsDisabled is returned by the preview methods when no queue is configured.
var ErrPreviewsDisabled = errors.New("service: preview analysis is not configured")

// Orchestrator coordinates ingestion, analysis, search and snapshot storage.
type Orchestrator struct {
	ingestor *Ingestor
	searcher *Searcher
	repo     ports.SnapshotRepository
	previews ports.PreviewQueue

	now   func() time.Time
	newID func() string
}

// NewOrchestrator constructs an Orchestrator. previews may be nil.
func NewOrchestrator(catalog ports.CatalogClient, search ports.SearchProvider, repo ports.SnapshotRepository, previews ports.PreviewQueue) *Orchestrator {
	return &Orchestrator{
		ingestor: NewIngestor(catalog),
		searcher: NewSearcher(search),
		repo:     repo,
		previews: previews,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// PlaylistTable resolves a playlist reference (id, URI or URL) and ingests it.
func (o *Orchestrator) PlaylistTable(ctx context.Context, ref string) (domain.Table, error) {
	id, err := domain.ParsePlaylistID(ref)
	if err != nil {
		return domain.Table{}, err
	}
	return o.ingestor.Fetch(ctx, id)
}

// Analyze ingests a playlist and summarizes it.
func (o *Orchestrator) Analyze(ctx context.Context, ref string, opts analysis.Options) (analysis.Report, error) {
	t, err := o.PlaylistTable(ctx, ref)
	if err != nil {
		return analysis.Report{}, err
	}
	return analysis.Summarize(t, opts), nil
}

// Search looks up tracks by artist, track name or both.
func (o *Orchestrator) Search(ctx context.Context, artist, track string) (domain.SearchResult, error) {
	return o.searcher.Search(ctx, artist, track)
}

// SnapshotPlaylist ingests a playlist and stores the table under a new id.
func (o *Orchestrator) SnapshotPlaylist(ctx context.Context, ref string) (domain.Snapshot, error) {
	id, err := domain.ParsePlaylistID(ref)
	if err != nil {
		return domain.Snapshot{}, err
	}
	t, err := o.ingestor.Fetch(ctx, id)
	if err != nil {
		return domain.Snapshot{}, err
	}

	s := domain.Snapshot{
		ID:         o.newID(),
		PlaylistID: id,
		CreatedAt:  o.now(),
		Table:      t,
	}
	if err := o.repo.Save(ctx, s); err != nil {
		return domain.Snapshot{}, fmt.Errorf("service: failed to save snapshot: %w", err)
	}
	log.Printf("DEBUG service: snapshot %s saved with %d tracks", s.ID, t.Len())
	return s, nil
}

// GetSnapshot loads a stored snapshot.
func (o *Orchestrator) GetSnapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	if id == "" {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	s, err := o.repo.Get(ctx, id)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("service: failed to load snapshot: %w", err)
	}
	return s, nil
}

// LatestSnapshot loads the newest snapshot of a playlist.
func (o *Orchestrator) LatestSnapshot(ctx context.Context, ref string) (domain.Snapshot, error) {
	id, err := domain.ParsePlaylistID(ref)
	if err != nil {
		return domain.Snapshot{}, err
	}
	s, err := o.repo.Latest(ctx, id)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("service: failed to load latest snapshot: %w", err)
	}
	return s, nil
}

// QueuePreviewAnalysis submits one preview job per track of a snapshot that
// has a preview URL and returns how many were accepted. It never blocks, so
// jobs beyond the free queue space are dropped.
func (o *Orchestrator) QueuePreviewAnalysis(ctx context.Context, snapshotID string) (int, error) {
	s, jobs, err := o.previewJobs(ctx, snapshotID)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, job := range jobs {
		if o.previews.Submit(job) {
			queued++
		}
	}
	if dropped := len(jobs) - queued; dropped > 0 {
		log.Printf("WARN service: %d preview jobs for snapshot %s dropped", dropped, s.ID)
	}
	return queued, nil
}

// SubmitPreviewAnalysis is QueuePreviewAnalysis for callers that can wait:
// every job is handed to the queue, blocking while it is full. It stops at
// the first job the queue refuses and returns how many were submitted.
func (o *Orchestrator) SubmitPreviewAnalysis(ctx context.Context, snapshotID string) (int, error) {
	s, jobs, err := o.previewJobs(ctx, snapshotID)
	if err != nil {
		return 0, err
	}

	for i, job := range jobs {
		if err := o.previews.SubmitWait(ctx, job); err != nil {
			return i, fmt.Errorf("service: preview job %d of %d for snapshot %s: %w", i+1, len(jobs), s.ID, err)
		}
	}
	return len(jobs), nil
}

func (o *Orchestrator) previewJobs(ctx context.Context, snapshotID string) (domain.Snapshot, []domain.PreviewJob, error) {
	if o.previews == nil {
		return domain.Snapshot{}, nil, ErrPreviewsDisabled
	}
	s, err := o.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return domain.Snapshot{}, nil, err
	}
	return s, s.PreviewJobs(), nil
}
