package sqlbroker

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs tasks periodically.
//
// Implementations must never run two invocations of the same task at once.
type Scheduler interface {
	// Schedule runs task after delay and then every period until the returned
	// Task is cancelled. The context passed to task is cancelled on Cancel.
	Schedule(task func(ctx context.Context), delay, period time.Duration) Task
}

// Task is a handle to a scheduled task.
type Task interface {
	// Cancel stops future invocations and waits for a running one to return.
	Cancel()
}

// TickerScheduler runs every task on its own goroutine driven by a time.Ticker.
// Invocations of one task are sequential.
type TickerScheduler struct{}

// NewTickerScheduler creates a TickerScheduler.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Schedule implements Scheduler.
func (s *TickerScheduler) Schedule(task func(ctx context.Context), delay, period time.Duration) Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &tickerTask{cancel: cancel}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
			task(ctx)
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				task(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	return t
}

type tickerTask struct {
	cancel context.CancelFunc
	once   sync.Once
	wg     sync.WaitGroup
}

func (t *tickerTask) Cancel() {
	t.once.Do(t.cancel)
	t.wg.Wait()
}
