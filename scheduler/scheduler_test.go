package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"ecaytracker/utils"
)

func quietLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, "error") }

func TestRunOnceSkipsOverlap(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	s := New(quietLogger(), func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		<-release
		return nil
	})

	done := make(chan struct{})
	go func() {
		s.RunOnce()
		close(done)
	}()
	for !s.running.Load() {
		time.Sleep(time.Millisecond)
	}
	s.RunOnce()
	close(release)
	<-done

	if calls != 1 {
		t.Errorf("overlapping run should be skipped, got %d calls", calls)
	}
	if s.running.Load() {
		t.Error("running flag should be cleared")
	}
}

func TestRunOnceSurvivesJobError(t *testing.T) {
	var calls int32
	s := New(quietLogger(), func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	})
	s.RunOnce()
	s.RunOnce()
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(quietLogger(), func(context.Context) error { return nil })
	if err := s.Start("not a cron spec"); err == nil {
		t.Error("expected an error")
	}
}

func TestStopCancelsJob(t *testing.T) {
	started := make(chan struct{})
	s := New(quietLogger(), func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	if err := s.Start("@every 1h"); err != nil {
		t.Fatal(err)
	}
	go s.RunOnce()
	<-started
	s.Stop()

	deadline := time.Now().Add(time.Second)
	for s.running.Load() {
		if time.Now().After(deadline) {
			t.Fatal("job did not observe cancellation")
		}
		time.Sleep(time.Millisecond)
	}
}
