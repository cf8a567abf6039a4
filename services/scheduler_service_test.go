package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerStartStop(t *testing.T) {
	var runs int32
	ran := make(chan struct{}, 1)
	scheduler := NewSchedulerService(func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}, time.Hour)

	if status := scheduler.Status(); status.Ativo || status.ProximaExecucao != "Desativado" {
		t.Fatalf("unexpected initial status: %+v", status)
	}

	if !scheduler.Start(context.Background()) {
		t.Fatal("expected first Start to succeed")
	}
	if scheduler.Start(context.Background()) {
		t.Error("expected second Start to report already running")
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run immediately after Start")
	}

	status := scheduler.Status()
	if !status.Ativo {
		t.Error("expected scheduler to be active")
	}
	if status.ProximaExecucao != "A cada 1 hora" {
		t.Errorf("unexpected proxima_execucao: %q", status.ProximaExecucao)
	}

	if !scheduler.Stop() {
		t.Fatal("expected Stop to succeed")
	}
	if scheduler.Stop() {
		t.Error("expected second Stop to report not running")
	}
	if scheduler.Running() {
		t.Error("scheduler still running after Stop")
	}

	status = scheduler.Status()
	if status.UltimaExecucao == nil {
		t.Error("expected ultima_execucao after a run")
	}
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("expected 1 run, got %d", got)
	}
}

func TestSchedulerSurvivesFailingJob(t *testing.T) {
	var runs int32
	scheduler := NewSchedulerService(func(ctx context.Context) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			panic("falha na rotina")
		}
		return errors.New("falha")
	}, 10*time.Millisecond)

	scheduler.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&runs) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	scheduler.Stop()

	if got := atomic.LoadInt32(&runs); got < 3 {
		t.Errorf("expected the loop to keep running after failures, got %d runs", got)
	}
}

func TestSchedulerStopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	scheduler := NewSchedulerService(func(ctx context.Context) error { return nil }, time.Hour)

	scheduler.Start(ctx)
	cancel()

	// Stop still releases the goroutine after the parent is cancelled
	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after parent context cancellation")
	}
}
