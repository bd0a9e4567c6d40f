package notify

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatcher_ReportsErrorWithoutBlockingCaller(t *testing.T) {
	d := NewDispatcher(time.Second)
	release := make(chan struct{})
	boom := errors.New("smtp down")

	errCh := d.Go("test", func(ctx context.Context) error {
		<-release
		return boom
	})

	select {
	case <-errCh:
		t.Fatal("task finished before it was released")
	default:
	}

	close(release)
	if err := <-errCh; !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
	if _, open := <-errCh; open {
		t.Error("error channel should be closed after the result")
	}
	d.Wait()
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	d := NewDispatcher(time.Second)

	errCh := d.Go("panic", func(ctx context.Context) error {
		panic("kaboom")
	})

	err := <-errCh
	if err == nil {
		t.Fatal("expected an error from a panicking task")
	}
	d.Wait()
}

func TestDispatcher_TaskContextHasDeadline(t *testing.T) {
	d := NewDispatcher(20 * time.Millisecond)

	errCh := d.Go("slow", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		<-ctx.Done()
		return ctx.Err()
	})

	if err := <-errCh; !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	d.Wait()
}

func TestLogMailer(t *testing.T) {
	if err := (LogMailer{}).Send(context.Background(), Message{To: "a@b.c", Subject: "hi"}); err != nil {
		t.Errorf("LogMailer should never fail: %v", err)
	}
}
