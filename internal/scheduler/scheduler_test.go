package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hray3182/BillMe/internal/models"
	"github.com/hray3182/BillMe/internal/reminder"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	days    []string
	release chan struct{}
	ran     chan struct{}
	err     error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{ran: make(chan struct{}, 16)}
}

func (f *fakeRunner) Run(ctx context.Context, today time.Time) (*reminder.Result, error) {
	f.mu.Lock()
	f.calls++
	f.days = append(f.days, today.Format(models.DateLayout))
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	f.ran <- struct{}{}
	if f.err != nil {
		return nil, f.err
	}
	return &reminder.Result{Message: reminder.SentMessage, Count: 1}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var today = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

func TestNewRejectsBadSchedule(t *testing.T) {
	if _, err := New(newFakeRunner(), "not a schedule", time.UTC); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if _, err := New(newFakeRunner(), "0 9 * * *", time.UTC); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := New(newFakeRunner(), "", nil); err != nil {
		t.Errorf("empty schedule should be allowed: %v", err)
	}
}

func TestRunCoalescesSameDay(t *testing.T) {
	runner := newFakeRunner()
	runner.release = make(chan struct{})
	s, _ := New(runner, "", time.UTC)

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// different times of the same day
			if res, err := s.Run(context.Background(), today.Add(time.Duration(i)*time.Hour)); err == nil && res.Count == 1 {
				ok.Add(1)
			}
		}()
	}

	// let every caller join before the run finishes
	deadline := time.After(2 * time.Second)
	for runner.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("run never started")
		case <-time.After(5 * time.Millisecond):
		}
	}
	time.Sleep(50 * time.Millisecond)
	close(runner.release)
	wg.Wait()

	if got := runner.callCount(); got != 1 {
		t.Errorf("expected one shared run, got %d", got)
	}
	if ok.Load() != 3 {
		t.Errorf("expected every caller to get the result, got %d", ok.Load())
	}
}

func TestRunDifferentDays(t *testing.T) {
	runner := newFakeRunner()
	s, _ := New(runner, "", time.UTC)

	for _, d := range []time.Time{today, today.AddDate(0, 0, 1)} {
		if _, err := s.Run(context.Background(), d); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}
	if got := runner.callCount(); got != 2 {
		t.Errorf("expected 2 runs, got %d", got)
	}
}

func TestRunPropagatesError(t *testing.T) {
	runner := newFakeRunner()
	runner.err = errors.New("db down")
	s, _ := New(runner, "", time.UTC)

	if _, err := s.Run(context.Background(), today); err == nil || err.Error() != "db down" {
		t.Errorf("expected job error, got %v", err)
	}
}

func TestNotifyTriggersRun(t *testing.T) {
	runner := newFakeRunner()
	loc := time.FixedZone("UTC+8", 8*60*60)
	s, _ := New(runner, "", loc)
	s.now = func() time.Time { return time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	s.Notify()
	select {
	case <-runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("notify did not trigger a run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	if runner.days[0] != "2026-10-17" {
		t.Errorf("expected the date in the scheduler timezone, got %s", runner.days[0])
	}
}

func TestNotifyIsNonBlocking(t *testing.T) {
	s, _ := New(newFakeRunner(), "", time.UTC)
	for range 5 {
		s.Notify()
	}
	if len(s.notifyCh) != 1 {
		t.Errorf("expected one pending notification, got %d", len(s.notifyCh))
	}
}

func TestCronScheduleTriggersRun(t *testing.T) {
	runner := newFakeRunner()
	s, err := New(runner, "@every 1s", time.UTC)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	select {
	case <-runner.ran:
	case <-time.After(3 * time.Second):
		t.Fatal("cron schedule did not trigger a run")
	}
}
