package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

type recordingSink struct {
	mu       sync.Mutex
	energies map[string]float64
	err      error
}

func (s *recordingSink) RecordPreviewEnergy(ctx context.Context, snapshotID, trackID string, energy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.energies == nil {
		s.energies = map[string]float64{}
	}
	s.energies[snapshotID+"/"+trackID] = energy
	return nil
}

func stubAnalyzer(t *testing.T, fn func(ctx context.Context, url string) (float64, error)) {
	t.Helper()
	orig := AnalyzePreviewFunc
	AnalyzePreviewFunc = fn
	t.Cleanup(func() { AnalyzePreviewFunc = orig })
}

func TestPool_ProcessesJobs(t *testing.T) {
	stubAnalyzer(t, func(ctx context.Context, url string) (float64, error) {
		if strings.Contains(url, "broken") {
			return 0, errors.New("decode failed")
		}
		return 0.5, nil
	})

	sink := &recordingSink{}
	pool := NewPool(sink, 10)
	pool.Start(2)

	jobs := []domain.PreviewJob{
		{SnapshotID: "s1", TrackID: "t1", PreviewURL: "https://p.scdn.co/mp3-preview/t1"},
		{SnapshotID: "s1", TrackID: "t2", PreviewURL: "https://p.scdn.co/mp3-preview/broken"},
		{SnapshotID: "s1", TrackID: "t3"},
	}
	for _, j := range jobs {
		if !pool.Submit(j) {
			t.Fatalf("Submit(%s): got false, want true", j.TrackID)
		}
	}
	pool.Stop()

	if len(sink.energies) != 1 {
		t.Fatalf("recorded: got %v, want only s1/t1", sink.energies)
	}
	if got := sink.energies["s1/t1"]; got != 0.5 {
		t.Fatalf("energy: got %v, want 0.5", got)
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := NewPool(&recordingSink{}, 1)
	pool.Start(1)
	pool.Stop()
	pool.Stop()

	if pool.Submit(domain.PreviewJob{TrackID: "t1", PreviewURL: "x"}) {
		t.Fatal("Submit after Stop: got true, want false")
	}
	if err := pool.SubmitWait(context.Background(), domain.PreviewJob{TrackID: "t1"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("SubmitWait after Stop: got %v, want %v", err, ErrStopped)
	}
}

func TestPool_SubmitDropsWhenFull(t *testing.T) {
	pool := NewPool(&recordingSink{}, 1)

	if !pool.Submit(domain.PreviewJob{TrackID: "t1"}) {
		t.Fatal("first Submit: got false, want true")
	}
	if pool.Submit(domain.PreviewJob{TrackID: "t2"}) {
		t.Fatal("second Submit: got true, want false on a full queue")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.SubmitWait(ctx, domain.PreviewJob{TrackID: "t3"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("SubmitWait: got %v, want deadline exceeded", err)
	}

	pool.Start(1)
	pool.Stop()
}

func TestPool_SubmitWaitMoreJobsThanQueue(t *testing.T) {
	release := make(chan struct{})
	stubAnalyzer(t, func(ctx context.Context, url string) (float64, error) {
		<-release
		return 0.25, nil
	})

	sink := &recordingSink{}
	pool := NewPool(sink, 1)
	pool.Start(1)

	done := make(chan error, 1)
	go func() {
		for i := 1; i <= 5; i++ {
			job := domain.PreviewJob{SnapshotID: "s1", TrackID: fmt.Sprintf("t%d", i), PreviewURL: "https://p.scdn.co/mp3-preview/x"}
			if err := pool.SubmitWait(context.Background(), job); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		t.Fatalf("SubmitWait returned %v before the worker freed the queue", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("SubmitWait: unexpected error: %v", err)
	}
	pool.Stop()

	if len(sink.energies) != 5 {
		t.Fatalf("recorded: got %d jobs (%v), want 5", len(sink.energies), sink.energies)
	}
}

func TestAnalyzePreview_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("not an mp3"))
	}))
	defer srv.Close()

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "status", path: "/missing", want: "status 404"},
		{name: "decode", path: "/garbage", want: "worker:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzePreview(context.Background(), srv.URL+tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err: got %v, want containing %q", err, tt.want)
			}
		})
	}
}
