package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sleepJob(i int, d time.Duration, err error) Job[int] {
	return Job[int]{
		Index: i,
		Name:  fmt.Sprintf("job-%d", i),
		Run: func(ctx context.Context) (int, error) {
			select {
			case <-time.After(d):
				return i * i, err
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		},
	}
}

func TestPoolOutcomesCarryIndex(t *testing.T) {
	pool := New[int](context.Background(), Config{Workers: 3, QueueSize: 10})

	for i := 0; i < 10; i++ {
		if err := pool.Submit(sleepJob(i, time.Millisecond, nil)); err != nil {
			t.Fatalf("Submit(%d) error = %v", i, err)
		}
	}
	pool.Close()

	var got []int
	for out := range pool.Outcomes() {
		if out.Err != nil {
			t.Errorf("job %s error = %v", out.Name, out.Err)
		}
		if out.Value != out.Index*out.Index {
			t.Errorf("job %d value = %d", out.Index, out.Value)
		}
		got = append(got, out.Index)
	}
	sort.Ints(got)
	if len(got) != 10 || got[0] != 0 || got[9] != 9 {
		t.Errorf("indexes = %v, want 0..9", got)
	}

	if s := pool.Stats(); s.Done != 10 || s.Failed != 0 || s.Queued != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestPoolJobError(t *testing.T) {
	pool := New[int](context.Background(), Config{Workers: 1})
	defer pool.Abort()

	boom := errors.New("unreadable")
	_ = pool.Submit(sleepJob(0, 0, boom))

	out := <-pool.Outcomes()
	if !errors.Is(out.Err, boom) {
		t.Errorf("Err = %v, want %v", out.Err, boom)
	}
	if s := pool.Stats(); s.Failed != 1 {
		t.Errorf("Failed = %d, want 1", s.Failed)
	}
}

func TestPoolPanicBecomesError(t *testing.T) {
	pool := New[string](context.Background(), Config{Workers: 1})
	defer pool.Abort()

	_ = pool.Submit(Job[string]{Name: "bad.py", Run: func(context.Context) (string, error) {
		panic("bad input")
	}})

	out := <-pool.Outcomes()
	if !errors.Is(out.Err, ErrPanic) {
		t.Fatalf("Err = %v, want ErrPanic", out.Err)
	}
	if want := "job panicked: bad.py: bad input"; out.Err.Error() != want {
		t.Errorf("Err = %q, want %q", out.Err, want)
	}
	if s := pool.Stats(); s.Panicked != 1 {
		t.Errorf("Panicked = %d, want 1", s.Panicked)
	}
}

func TestPoolAbortCancelsRunningJobs(t *testing.T) {
	pool := New[int](context.Background(), Config{Workers: 2})
	_ = pool.Submit(sleepJob(0, 10*time.Second, nil))

	done := make(chan struct{})
	go func() {
		pool.Abort()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Abort() blocked on a running job")
	}
}

func TestPoolParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := New[int](ctx, Config{Workers: 1, QueueSize: 4})
	defer pool.Close()

	cancel()
	if err := pool.Submit(sleepJob(0, 0, nil)); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Submit() error = %v", err)
	}
}

func TestPoolSubmitAfterClose(t *testing.T) {
	pool := New[int](context.Background(), Config{Workers: 1})
	pool.Close()
	pool.Abort() // second shutdown is a no-op

	if err := pool.Submit(sleepJob(0, 0, nil)); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit() error = %v, want ErrClosed", err)
	}
}

func TestPoolGeneratedName(t *testing.T) {
	pool := New[int](context.Background(), Config{Workers: 1, QueueSize: 2})
	job := func(context.Context) (int, error) { return 0, nil }
	_ = pool.Submit(Job[int]{Run: job})
	_ = pool.Submit(Job[int]{Run: job})
	pool.Close()

	var names []string
	for out := range pool.Outcomes() {
		names = append(names, out.Name)
	}
	if len(names) != 2 || len(names[0]) != 36 || names[0] == names[1] {
		t.Errorf("names = %q, want two distinct UUIDs", names)
	}
}

func TestPoolDefaults(t *testing.T) {
	pool := New[int](context.Background(), Config{})
	defer pool.Close()

	if pool.workers != runtime.GOMAXPROCS(0) {
		t.Errorf("workers = %d, want %d", pool.workers, runtime.GOMAXPROCS(0))
	}
	if cap(pool.jobs) != pool.workers*2 {
		t.Errorf("queue = %d, want %d", cap(pool.jobs), pool.workers*2)
	}
}

func TestStatsString(t *testing.T) {
	s := Stats{Workers: 4, Done: 100, Failed: 5, Queued: 10}

	want := "workers=4 done=100 failed=5 panicked=0 queued=10"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func BenchmarkPoolThroughput(b *testing.B) {
	pool := New[int](context.Background(), Config{QueueSize: 1000})

	drained := make(chan struct{})
	go func() {
		for range pool.Outcomes() {
		}
		close(drained)
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pool.Submit(Job[int]{Index: i, Run: func(context.Context) (int, error) { return 1, nil }})
	}
	pool.Close()
	<-drained
}
