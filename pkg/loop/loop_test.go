package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startLoop(t *testing.T) (*Loop, func()) {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	return l, func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	l, stop := startLoop(t)
	defer stop()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 100; i++ {
		i := i
		if !l.Dispatch(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}) {
			t.Fatalf("Dispatch %d rejected", i)
		}
	}

	if err := l.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("Do: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 100 {
		t.Fatalf("ran %d tasks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestLoop_DoWaitsForResult(t *testing.T) {
	l, stop := startLoop(t)
	defer stop()

	var result int
	if err := l.Do(context.Background(), func() { result = 42 }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if result != 42 {
		t.Errorf("result = %d, want 42", result)
	}
}

func TestLoop_DoRespectsContext(t *testing.T) {
	l := New() // never started
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Do(ctx, func() {}); err != context.DeadlineExceeded {
		t.Errorf("Do on idle loop: got %v, want DeadlineExceeded", err)
	}
}

func TestLoop_CloseRejectsDispatch(t *testing.T) {
	l := New()
	ctx := context.Background()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	l.Close()
	l.Close() // idempotent

	if err := <-errCh; err != nil {
		t.Errorf("Run after Close: got %v, want nil", err)
	}
	<-l.Done()

	if l.Dispatch(func() {}) {
		t.Error("Dispatch after Close should return false")
	}
	if err := l.Do(ctx, func() {}); err != ErrClosed {
		t.Errorf("Do after Close: got %v, want ErrClosed", err)
	}
}

func TestLoop_PanicInTaskDoesNotStopLoop(t *testing.T) {
	l, stop := startLoop(t)
	defer stop()

	l.Dispatch(func() { panic("task failure") })

	ran := false
	if err := l.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Error("loop stopped processing after a panicking task")
	}
}

func TestLoop_DispatchNil(t *testing.T) {
	l := New()
	defer l.Close()
	if l.Dispatch(nil) {
		t.Error("Dispatch(nil) should return false")
	}
}

func TestImmediate(t *testing.T) {
	ran := false
	if !(Immediate{}).Dispatch(func() { ran = true }) {
		t.Fatal("Immediate.Dispatch returned false")
	}
	if !ran {
		t.Error("Immediate.Dispatch did not run the task")
	}
}

func TestImmediateDo(t *testing.T) {
	ran := false
	if err := (Immediate{}).Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Immediate.Do: %v", err)
	}
	if !ran {
		t.Error("Immediate.Do did not run the task")
	}
}

func TestLoop_RunStopsUnderContinuousDispatch(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	var spin func()
	spin = func() { l.Dispatch(spin) }
	l.Dispatch(spin)
	l.Dispatch(cancel)

	go func() { errCh <- l.Run(ctx) }()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run ignored cancellation while tasks kept arriving")
	}
}
