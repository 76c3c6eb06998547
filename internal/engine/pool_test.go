package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOnPool(t *testing.T) {
	ctx := context.Background()

	t.Run("returns value and error", func(t *testing.T) {
		p := NewPool(2)
		defer p.Close()

		v, err := OnPool(ctx, p, func() (string, error) { return "done", nil })
		if err != nil || v != "done" {
			t.Errorf("got (%q, %v)", v, err)
		}

		boom := errors.New("boom")
		_, err = OnPool(ctx, p, func() (string, error) { return "", boom })
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	})

	t.Run("panic becomes internal error", func(t *testing.T) {
		p := NewPool(1)
		defer p.Close()

		_, err := OnPool(ctx, p, func() (int, error) { panic("task exploded") })
		if Classify(err) != KindInternal {
			t.Errorf("kind = %s, want %s", Classify(err), KindInternal)
		}
	})

	t.Run("context expiry while queued", func(t *testing.T) {
		p := NewPool(1)
		defer p.Close()

		// Occupy the only worker.
		release := make(chan struct{})
		go OnPool(ctx, p, func() (int, error) { <-release; return 0, nil })
		time.Sleep(20 * time.Millisecond)

		shortCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()
		_, err := OnPool(shortCtx, p, func() (int, error) { return 1, nil })
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want deadline exceeded", err)
		}
		close(release)
	})

	t.Run("closed pool rejects tasks", func(t *testing.T) {
		p := NewPool(1)
		p.Close()

		_, err := OnPool(ctx, p, func() (int, error) { return 1, nil })
		if Classify(err) != KindCapacityExceeded {
			t.Errorf("kind = %s, want %s", Classify(err), KindCapacityExceeded)
		}
	})
}
