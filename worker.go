package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WorkerTaskTimeout is the maximum time allowed for a single cycle
const WorkerTaskTimeout = 30 * time.Second

// cycleWorker runs the polling cycle on a single goroutine fed by a ticker.
// The queue holds at most one pending tick, so a slow cycle drops the ticks that overrun it.
type cycleWorker struct {
	period time.Duration             // Tick period
	run    func(ctx context.Context) // Cycle body
	queue  chan time.Time            // Pending ticks, capacity 1
	ctx    context.Context           // Cancelled on Stop
	cancel context.CancelFunc        // Cancels ctx
	wg     sync.WaitGroup            // Ticker and worker goroutines
	start  sync.Once                 // Ensure Start is only called once
	stop   sync.Once                 // Ensure Stop is only called once
	done   chan struct{}             // Closed on Stop to end the ticker loop
}

// newCycleWorker creates a stopped worker
func newCycleWorker(period time.Duration, run func(ctx context.Context)) *cycleWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &cycleWorker{
		period: period,
		run:    run,
		queue:  make(chan time.Time, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start launches the ticker and the worker goroutine
func (w *cycleWorker) Start() {
	w.start.Do(func() {
		w.wg.Add(2)
		go w.ticker()
		go w.worker()
		logger.Info("Cycle worker started", zap.Duration("period", w.period))
	})
}

// Stop halts the ticker, cancels the in-flight cycle and waits for both goroutines
func (w *cycleWorker) Stop() {
	w.stop.Do(func() {
		close(w.done) // Stop producing ticks
		w.cancel()    // Abort the running cycle
		w.wg.Wait()
		logger.Info("Cycle worker stopped")
	})
}

// ticker feeds the queue every period until Stop
func (w *cycleWorker) ticker() {
	defer w.wg.Done()
	defer close(w.queue) // Lets the worker drain and exit

	t := time.NewTicker(w.period)
	defer t.Stop()
	for {
		select {
		case <-w.done:
			return
		case tick := <-t.C:
			w.Submit(tick)
		}
	}
}

// worker processes ticks from the queue until it is closed
func (w *cycleWorker) worker() {
	defer w.wg.Done()

	for tick := range w.queue {
		// Ticks still queued at Stop are discarded
		if w.ctx.Err() != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(w.ctx, WorkerTaskTimeout)
		w.run(ctx)
		cancel()

		if lag := time.Since(tick); lag > w.period {
			logger.Debug("Cycle overran its period",
				zap.Duration("elapsed", lag),
				zap.Duration("period", w.period),
			)
		}
	}
}

// Submit queues a tick. This version uses non-blocking send so an overrun drops the tick.
func (w *cycleWorker) Submit(tick time.Time) bool {
	select {
	case w.queue <- tick:
		return true
	default:
		logger.Warn("Cycle still running, tick dropped", zap.Time("tick", tick))
		return false
	}
}
