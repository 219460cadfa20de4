package tasklist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, tl *TaskList) error {
	t.Helper()
	select {
	case <-tl.doneCh:
		return tl.err
	case <-time.After(2 * time.Second):
		t.Fatal("task list did not settle in time")
		return nil
	}
}

func TestSequentialOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) *Task {
		return &Task{Title: name, Run: func(ctx context.Context, tc *Context) (*TaskList, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		}}
	}

	tl := New([]*Task{record("a"), record("b"), record("c")}, Options{})
	tl.Start(context.Background(), nil)
	require.NoError(t, waitFor(t, tl))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestConcurrentRunsAllTasks(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	record := func(name string) *Task {
		return &Task{Title: name, Run: func(ctx context.Context, tc *Context) (*TaskList, error) {
			mu.Lock()
			seen[name] = true
			mu.Unlock()
			return nil, nil
		}}
	}

	tl := New([]*Task{record("a"), record("b"), record("c")}, Options{Concurrent: true})
	tl.Start(context.Background(), nil)
	require.NoError(t, waitFor(t, tl))
	assert.True(t, seen["a"] && seen["b"] && seen["c"])
}

func TestDisabledTaskIsSkippedEntirely(t *testing.T) {
	ran := false
	tasks := []*Task{
		{Title: "never", Enabled: func() bool { return false }, Run: func(ctx context.Context, tc *Context) (*TaskList, error) {
			ran = true
			return nil, nil
		}},
	}
	tl := New(tasks, Options{})
	tl.Start(context.Background(), nil)
	require.NoError(t, waitFor(t, tl))
	assert.False(t, ran)
}

func TestSkipFuncRecordsReasonAndContinues(t *testing.T) {
	second := false
	tasks := []*Task{
		{Title: "first", Skip: func() string { return "already done" }},
		{Title: "second", Run: func(ctx context.Context, tc *Context) (*TaskList, error) {
			second = true
			return nil, nil
		}},
	}
	tl := New(tasks, Options{})
	ch, unsub := tl.Subscribe()
	defer unsub()
	tl.Start(context.Background(), nil)
	require.NoError(t, waitFor(t, tl))
	assert.True(t, second)

	var messages []string
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				assertContains(t, messages, "already done")
				return
			}
			messages = append(messages, e.Message)
		case <-time.After(time.Second):
			t.Fatal("timed out draining progress")
		}
	}
}

func assertContains(t *testing.T, haystack []string, needle string) {
	t.Helper()
	for _, s := range haystack {
		if s == needle {
			return
		}
	}
	t.Fatalf("expected %v to contain %q", haystack, needle)
}

func TestFailingTaskSettlesWithErrorAndFiresOnError(t *testing.T) {
	boom := assert.AnError
	var onErrCalls int
	var onDoneFailed bool
	tasks := []*Task{
		{Title: "boom", Run: func(ctx context.Context, tc *Context) (*TaskList, error) {
			return nil, boom
		}},
	}
	tl := New(tasks, Options{
		OnError: func(err error, ctx *Context) { onErrCalls++ },
		OnDone:  func(failed bool) { onDoneFailed = failed },
	})
	tl.Start(context.Background(), nil)
	err := waitFor(t, tl)
	require.Error(t, err)
	assert.Equal(t, 1, onErrCalls)
	assert.True(t, onDoneFailed)
}

func TestAbortStopsRemainingSequentialTasks(t *testing.T) {
	var ranSecond bool
	var tl *TaskList
	tasks := []*Task{
		{Title: "first", Run: func(ctx context.Context, tc *Context) (*TaskList, error) {
			tl.Abort()
			return nil, nil
		}},
		{Title: "second", Run: func(ctx context.Context, tc *Context) (*TaskList, error) {
			ranSecond = true
			return nil, nil
		}},
	}
	tl = New(tasks, Options{})
	var onDoneFailed bool
	tl.opts.OnDone = func(failed bool) { onDoneFailed = failed }
	tl.Start(context.Background(), nil)
	err := waitFor(t, tl)
	require.Error(t, err)
	assert.False(t, ranSecond)
	assert.True(t, onDoneFailed)
	assert.True(t, tl.Aborted())
}

func TestOnCompleteNeverFiresAfterAbort(t *testing.T) {
	var tl *TaskList
	var completed bool
	tasks := []*Task{
		{Title: "only", Run: func(ctx context.Context, tc *Context) (*TaskList, error) {
			tl.Abort()
			return nil, nil
		}},
	}
	tl = New(tasks, Options{OnComplete: func() { completed = true }})
	tl.Start(context.Background(), nil)
	_ = waitFor(t, tl)
	assert.False(t, completed)
}

func TestNestedTaskListComposesAndInheritsContext(t *testing.T) {
	outerCtx := NewContext()
	outerCtx.Set("k", "v")

	var innerSawValue any
	inner := func(ctx context.Context, tc *Context) (*TaskList, error) {
		v, _ := tc.Get("k")
		innerSawValue = v
		return nil, nil
	}
	outer := New([]*Task{
		{Title: "parent", Run: func(ctx context.Context, tc *Context) (*TaskList, error) {
			return New([]*Task{{Title: "child", Run: inner}}, Options{}), nil
		}},
	}, Options{})
	outer.Start(context.Background(), outerCtx)
	require.NoError(t, waitFor(t, outer))
	assert.Equal(t, "v", innerSawValue)
}

func TestNestedTaskListWithFreshContextDoesNotSeeParentValues(t *testing.T) {
	outerCtx := NewContext()
	outerCtx.Set("k", "v")

	var innerSaw bool
	inner := func(ctx context.Context, tc *Context) (*TaskList, error) {
		_, innerSaw = tc.Get("k")
		return nil, nil
	}
	outer := New([]*Task{
		{Title: "parent", Run: func(ctx context.Context, tc *Context) (*TaskList, error) {
			return New([]*Task{{Title: "child", Run: inner}}, Options{FreshContext: true}), nil
		}},
	}, Options{})
	outer.Start(context.Background(), outerCtx)
	require.NoError(t, waitFor(t, outer))
	assert.False(t, innerSaw)
}

func TestProgressSubscriberReplaysHistoryToLateJoiner(t *testing.T) {
	tasks := []*Task{
		{Title: "a", Run: func(ctx context.Context, tc *Context) (*TaskList, error) { return nil, nil }},
	}
	tl := New(tasks, Options{})
	tl.Start(context.Background(), nil)
	require.NoError(t, waitFor(t, tl))

	ch, unsub := tl.Subscribe()
	defer unsub()
	var gotDone bool
	for e := range ch {
		if e.Type == EventDone {
			gotDone = true
		}
	}
	assert.True(t, gotDone)
}
