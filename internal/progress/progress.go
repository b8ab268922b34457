// Package progress tracks bytes moving through a stream so long transfers can
// report liveness to the remote Git client.
package progress

import (
	"context"
	"time"
)

// Inspired by https://github.com/machinebox/progress/blob/master/progress.go.

// Evaluator facilitates progress monitoring.
type Evaluator interface {
	// Progress returns a total, a delta since it's last call, and any error
	// encountered since the last call to Progress.
	Progress() (int, int, error)
}

// Progress is a message reporting a cumulative total and change since the last
// Progress message.
type Progress struct {
	// Total is the cumulative total.
	Total int
	// Delta is the difference between Total and the previous message's Total.
	Delta int
}

// Reporter periodically evaluates an [Evaluator] and hands each sample to an
// emit function on its own goroutine.
type Reporter struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReporter starts reporting eval's [Progress] to emit every interval d.
// Samples with a zero delta are skipped, an idle stream emits nothing.
func NewReporter(ctx context.Context, eval Evaluator, d time.Duration, emit func(Progress)) *Reporter {
	ctx, cancel := context.WithCancel(ctx)
	r := &Reporter{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				total, delta, err := eval.Progress()
				if delta > 0 {
					emit(Progress{Total: total, Delta: delta})
				}
				if err != nil { // io.EOF, or other issues
					return
				}
			}
		}
	}()

	return r
}

// Stop ends reporting and waits for any in-flight emit to return. After Stop
// the emit function is never called again, callers may reuse its destination.
func (r *Reporter) Stop() {
	r.cancel()
	<-r.done
}
