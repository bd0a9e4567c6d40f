// Package notify runs best-effort notification sends outside the request path.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultTimeout = 15 * time.Second

// Dispatcher spawns fire-and-forget tasks. Each task gets its own timeout
// context and error channel; the error is only ever logged.
type Dispatcher struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{timeout: timeout}
}

// Go starts fn in the background and returns its error channel. The channel
// receives exactly one value and is then closed. Callers on a success path
// must not wait on it.
func (d *Dispatcher) Go(kind string, fn func(ctx context.Context) error) <-chan error {
	errCh := make(chan error, 1)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(errCh)

		err := d.run(fn)
		if err != nil {
			slog.Error("notification failed", "action", kind, "error", err)
		} else {
			slog.Info("notification sent", "action", kind)
		}
		errCh <- err
	}()

	return errCh
}

// Wait blocks until every spawned task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(fn func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notification panicked: %v", r)
		}
	}()
	return fn(ctx)
}
