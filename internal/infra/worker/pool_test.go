package worker

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestPool_RunsAndDrainsOnStop(t *testing.T) {
	p := NewPool(2, 16, 0, newTestLogger())
	p.Start(context.Background())

	var done int32
	for i := 0; i < 10; i++ {
		if err := p.Submit(func(ctx context.Context) error {
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&done, 1)
			return nil
		}); err != nil {
			t.Fatalf("Submit #%d: %v", i, err)
		}
	}
	p.Stop()

	if got := atomic.LoadInt32(&done); got != 10 {
		t.Fatalf("completed %d tasks, want 10", got)
	}
	if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrPoolStopped) {
		t.Fatalf("Submit after Stop: expected ErrPoolStopped, got %v", err)
	}
	p.Stop() // idempotent
}

func TestPool_RejectsWhenFull(t *testing.T) {
	p := NewPool(1, 1, 0, newTestLogger())
	// workers not started: the single slot fills up
	if err := p.Submit(func(context.Context) error { return nil }); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if err := p.Submit(nil); !errors.Is(err, ErrNilTask) {
		t.Fatalf("expected ErrNilTask, got %v", err)
	}
	if p.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", p.Pending())
	}
	p.Start(context.Background())
	p.Stop()
}

func TestPool_SurvivesPanicsAndAppliesTimeout(t *testing.T) {
	p := NewPool(1, 4, 20*time.Millisecond, newTestLogger())
	p.Start(context.Background())

	var deadlineSeen int32
	_ = p.Submit(func(context.Context) error { panic("boom") })
	_ = p.Submit(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			atomic.StoreInt32(&deadlineSeen, 1)
		}
		return errors.New("logged, not fatal")
	})
	p.Stop()

	if atomic.LoadInt32(&deadlineSeen) != 1 {
		t.Fatal("task context carried no deadline")
	}
}
