package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// --- Cycle Worker Tests ---

func TestCycleWorker_RunsEveryPeriod(t *testing.T) {
	var runs atomic.Int32
	w := newCycleWorker(10*time.Millisecond, func(context.Context) { runs.Add(1) })
	w.Start()
	w.Start() // Idempotent

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	w.Stop()
	w.Stop() // Idempotent

	// No further cycles after Stop
	after := runs.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestCycleWorker_DropsOverrunTicks(t *testing.T) {
	logs := captureLogs(t)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	w := newCycleWorker(time.Hour, func(ctx context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
	})
	w.wg.Add(1)
	go w.worker()

	now := time.Now()
	assert.True(t, w.Submit(now))
	<-started

	// Worker busy, one tick fits in the queue, the next is dropped
	assert.True(t, w.Submit(now))
	assert.False(t, w.Submit(now))
	assert.Contains(t, logs.String(), "tick dropped")

	close(release)
	close(w.queue)
	w.wg.Wait()
}

func TestCycleWorker_StopCancelsInFlightCycle(t *testing.T) {
	started := make(chan struct{})
	var cancelled atomic.Bool
	w := newCycleWorker(5*time.Millisecond, func(ctx context.Context) {
		select {
		case <-started:
		default:
			close(started)
		}
		<-ctx.Done()
		cancelled.Store(true)
	})
	w.Start()
	<-started

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	assert.True(t, cancelled.Load())
}

func TestCycleWorker_StopWithoutStart(t *testing.T) {
	w := newCycleWorker(time.Second, func(context.Context) {})
	assert.NotPanics(t, w.Stop)
}
