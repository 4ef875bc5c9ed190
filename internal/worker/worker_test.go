package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"yarws/internal/logger"
	"yarws/internal/queue"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateRunning, "Running"},
		{StateTerminated, "Terminated"},
		{State(42), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.expected)
		}
	}
}

func TestWorkerJoinOnce(t *testing.T) {
	q := queue.New()
	w, err := spawnWorker(7, q, GoSpawner, logger.Discard(), nopObserver{})
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}

	if w.ID() != 7 {
		t.Errorf("expected id 7, got %d", w.ID())
	}
	if w.State() != StateRunning {
		t.Errorf("expected Running, got %s", w.State())
	}

	ran := make(chan struct{})
	if err := q.Send(func() { close(ran) }); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("worker did not run the job")
	}

	// キューが開いている間はワーカーは終了しない
	if w.State() != StateRunning {
		t.Errorf("expected Running while queue is open, got %s", w.State())
	}

	q.Close()
	if !w.Join() {
		t.Error("first Join should return true")
	}
	if w.State() != StateTerminated {
		t.Errorf("expected Terminated, got %s", w.State())
	}

	// 2回目は false
	if w.Join() {
		t.Error("second Join should return false")
	}
}

func TestWorkerConcurrentJoinWaits(t *testing.T) {
	q := queue.New()
	w, err := spawnWorker(0, q, GoSpawner, logger.Discard(), nopObserver{})
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}

	blocker := make(chan struct{})
	started := make(chan struct{})
	if err := q.Send(func() {
		close(started)
		<-blocker
	}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	<-started
	q.Close()

	const joiners = 4
	var wg sync.WaitGroup
	results := make(chan bool, joiners)
	for range joiners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- w.Join()
		}()
	}

	// ジョブ実行中はどの Join も戻らない
	time.Sleep(20 * time.Millisecond)
	if len(results) != 0 {
		t.Fatal("Join returned while the worker was still running a job")
	}

	close(blocker)
	wg.Wait()
	close(results)

	first := 0
	for ok := range results {
		if ok {
			first++
		}
	}
	if first != 1 {
		t.Errorf("expected exactly one Join to return true, got %d", first)
	}
	if w.State() != StateTerminated {
		t.Errorf("expected Terminated, got %s", w.State())
	}
}

func TestWorkerSpawnError(t *testing.T) {
	q := queue.New()
	cause := errors.New("no threads left")
	failing := func(int, func()) error { return cause }

	w, err := spawnWorker(0, q, failing, logger.Discard(), nopObserver{})
	if w != nil {
		t.Error("expected no worker on spawn failure")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected spawn cause, got %v", err)
	}
}
