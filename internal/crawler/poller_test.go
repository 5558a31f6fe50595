package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sitebotics/sitebot/internal/models"
)

// fakeRunner records the sources it was handed.
type fakeRunner struct {
	mu  sync.Mutex
	ran []string
	err error
}

func (r *fakeRunner) RunJob(ctx context.Context, source *models.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, models.MustRecordIDString(source.ID))
	return r.err
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ran)
}

func TestPollerDrainsQueueWithoutDelay(t *testing.T) {
	store := newFakeStore()
	store.queued = []*models.Source{
		testSource("s1", "b1", "https://a.example.com"),
		testSource("s2", "b1", "https://b.example.com"),
	}
	runner := &fakeRunner{}

	// Long interval: draining both jobs quickly proves completed jobs
	// trigger an immediate re-poll.
	p := NewPoller(store, runner, time.Hour, 30*time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runner.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("Poller ran %d jobs, want 2", runner.count())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.ran[0] != "s1" || runner.ran[1] != "s2" {
		t.Errorf("Jobs ran out of order: %v", runner.ran)
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	store := newFakeStore()
	p := NewPoller(store, &fakeRunner{}, 10*time.Millisecond, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Poller did not stop on cancel")
	}
}

func TestPollerSweepsStaleClaims(t *testing.T) {
	store := newFakeStore()
	p := NewPoller(store, &fakeRunner{}, 5*time.Millisecond, 30*time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = p.Run(ctx)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.staleSweeps) == 0 {
		t.Fatal("Expected stale sweeps to run")
	}
	for _, d := range store.staleSweeps {
		if d != 30*time.Minute {
			t.Errorf("Sweep threshold = %v, want 30m", d)
		}
	}
}

func TestPollerSkipsSweepWhenDisabled(t *testing.T) {
	store := newFakeStore()
	p := NewPoller(store, &fakeRunner{}, 5*time.Millisecond, 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = p.Run(ctx)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.staleSweeps) != 0 {
		t.Errorf("Expected no sweeps with staleAfter=0, got %d", len(store.staleSweeps))
	}
}

func TestPollerContinuesAfterJobFailure(t *testing.T) {
	store := newFakeStore()
	store.queued = []*models.Source{
		testSource("s1", "b1", "https://a.example.com"),
		testSource("s2", "b1", "https://b.example.com"),
	}
	runner := &fakeRunner{err: errors.New("job blew up")}
	p := NewPoller(store, runner, time.Hour, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runner.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("Poller ran %d jobs after failure, want 2", runner.count())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
