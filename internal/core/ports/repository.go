package ports

import (
	"context"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

// SnapshotRepository stores exported playlist tables. Get and Latest return
// domain.ErrNotFound when nothing matches.
type SnapshotRepository interface {
	Save(ctx context.Context, s domain.Snapshot) error
	Get(ctx context.Context, id string) (domain.Snapshot, error)
	Latest(ctx context.Context, playlistID string) (domain.Snapshot, error)
	PreviewSink
}

// PreviewSink receives loudness estimates computed from track previews.
type PreviewSink interface {
	RecordPreviewEnergy(ctx context.Context, snapshotID, trackID string, energy float64) error
}

// PreviewQueue accepts preview analysis jobs. Submit never blocks and
// reports false when the job was dropped. SubmitWait blocks until the job
// is queued, the queue is closed or ctx is done.
type PreviewQueue interface {
	Submit(job domain.PreviewJob) bool
	SubmitWait(ctx context.Context, job domain.PreviewJob) error
}
