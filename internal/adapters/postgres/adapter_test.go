package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

func setupMock(t *testing.T) (*Adapter, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewWithDB(mock), mock
}

func rowArgs() []any {
	args := make([]any, 23)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func snapshot() domain.Snapshot {
	id, name := "t1", "Creep"
	return domain.Snapshot{
		ID:         "s1",
		PlaylistID: "pl-1",
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Table:      domain.NewTable([]domain.Row{{TrackID: &id, Track: &name}, {}}, false),
	}
}

func TestAdapter_Save(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		a, mock := setupMock(t)
		defer mock.Close()

		s := snapshot()
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO snapshots").
			WithArgs("s1", "pl-1", s.CreatedAt, false).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO snapshot_tracks").
			WithArgs(rowArgs()...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO snapshot_tracks").
			WithArgs(rowArgs()...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, a.Save(context.Background(), s))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RowFailureRollsBack", func(t *testing.T) {
		a, mock := setupMock(t)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO snapshots").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO snapshot_tracks").
			WithArgs(rowArgs()...).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := a.Save(context.Background(), snapshot())
		assert.ErrorContains(t, err, "disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_Get(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		a, mock := setupMock(t)
		defer mock.Close()

		mock.ExpectQuery("SELECT id, playlist_id, created_at, has_features FROM snapshots").
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := a.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptySnapshot", func(t *testing.T) {
		a, mock := setupMock(t)
		defer mock.Close()

		created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT id, playlist_id, created_at, has_features FROM snapshots").
			WithArgs("s1").
			WillReturnRows(pgxmock.NewRows([]string{"id", "playlist_id", "created_at", "has_features"}).
				AddRow("s1", "pl-1", created, true))
		mock.ExpectQuery("FROM snapshot_tracks").
			WithArgs("s1").
			WillReturnRows(pgxmock.NewRows([]string{"track_id"}))

		got, err := a.Get(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, "pl-1", got.PlaylistID)
		assert.True(t, got.CreatedAt.Equal(created))
		assert.True(t, got.Table.Schema.HasFeatures)
		assert.Zero(t, got.Table.Len())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_Latest_NotFound(t *testing.T) {
	a, mock := setupMock(t)
	defer mock.Close()

	mock.ExpectQuery("WHERE playlist_id = \\$1").
		WithArgs("pl-none").
		WillReturnError(pgx.ErrNoRows)

	_, err := a.Latest(context.Background(), "pl-none")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdapter_RecordPreviewEnergy(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "Updated", affected: 1},
		{name: "UnknownTrack", affected: 0, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, mock := setupMock(t)
			defer mock.Close()

			mock.ExpectExec("UPDATE snapshot_tracks SET preview_energy").
				WithArgs(0.42, "s1", "t1").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			err := a.RecordPreviewEnergy(context.Background(), "s1", "t1", 0.42)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_Migrate(t *testing.T) {
	a, mock := setupMock(t)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS snapshots").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, a.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
