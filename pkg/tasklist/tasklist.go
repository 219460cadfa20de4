// Package tasklist implements the structured, abortable, nestable task
// pipeline used by every ResourcesManager operation: a Task list that can
// run sequentially or concurrently, supports lazy enable/skip predicates,
// composes via nested TaskLists, and propagates cooperative cancellation
// through context.Context.
package tasklist

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/tevino/abool"
	uuid "github.com/satori/go.uuid"

	"github.com/otusforge/resourced/pkg/resource/errcode"
)

// Options configures a TaskList's execution and lifecycle callbacks.
type Options struct {
	// Concurrent, when true, starts every enabled non-skipped task without
	// waiting; all must settle before the list settles. Sequential
	// (false, the default) runs one task at a time in order.
	Concurrent bool
	// Collapse is a display hint only; the engine ignores it.
	Collapse bool
	// FreshContext starts this list with a brand new, empty Context
	// instead of inheriting its parent's.
	FreshContext bool

	OnError    func(err error, ctx *Context)
	OnComplete func()
	OnDone     func(failed bool)
}

// TaskList is the unit of observable, abortable, composable asynchronous
// work.
type TaskList struct {
	id    string
	tasks []*Task
	opts  Options

	progress *broadcaster

	mu       sync.Mutex
	started  bool
	ctx      *Context
	runCtx   context.Context
	cancel   context.CancelFunc
	aborted  *abool.AtomicBool
	children []*TaskList
	doneCh   chan struct{}
	err      error
}

// New constructs a TaskList from an ordered list of tasks and options. The
// list does not run until Start is called.
func New(tasks []*Task, opts Options) *TaskList {
	return &TaskList{
		id:       uuid.NewV4().String(),
		tasks:    tasks,
		opts:     opts,
		progress: newBroadcaster(),
		aborted:  abool.New(),
		doneCh:   make(chan struct{}),
	}
}

// ID is a stable identifier for progress correlation/logging, not part
// of the progress wire envelope.
func (tl *TaskList) ID() string { return tl.id }

// Start begins execution. parentCtx provides cancellation ancestry;
// parentData is the Context to inherit unless this list was built with
// FreshContext (or parentData is nil, as for a true root list). Start is
// idempotent: a second call on an already-started list is a no-op, which
// is what makes the re-entrancy handle pattern safe: a caller can always
// Start() the TaskList it got back from a lookup.
func (tl *TaskList) Start(parentCtx context.Context, parentData *Context) *TaskList {
	tl.mu.Lock()
	if tl.started {
		tl.mu.Unlock()
		return tl
	}
	tl.started = true
	if tl.opts.FreshContext || parentData == nil {
		tl.ctx = NewContext()
	} else {
		tl.ctx = parentData
	}
	runCtx, cancel := context.WithCancel(parentCtx)
	tl.runCtx = runCtx
	tl.cancel = cancel
	tl.mu.Unlock()

	go tl.execute()
	return tl
}

// Context returns the Context this list is running with. Valid only after
// Start; used by callers that need to read ctx.resourceAdapter et al.
// after the list settles.
func (tl *TaskList) Context() *Context {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.ctx
}

// Abort cooperatively cancels the list: any not-yet-started task is
// dropped, the currently running task's context is canceled, and any
// currently running nested TaskList is aborted recursively. After Abort,
// OnDone(true) fires with an AbortedError.
func (tl *TaskList) Abort() {
	tl.mu.Lock()
	if tl.aborted.IsSet() {
		tl.mu.Unlock()
		return
	}
	tl.aborted.Set()
	children := append([]*TaskList(nil), tl.children...)
	cancel := tl.cancel
	tl.mu.Unlock()

	for _, c := range children {
		c.Abort()
	}
	if cancel != nil {
		cancel()
	}
}

// Aborted reports whether Abort was called, regardless of whether the list
// has settled yet.
func (tl *TaskList) Aborted() bool { return tl.aborted.IsSet() }

// Subscribe returns a channel of progress events (replaying history to a
// late subscriber) and an unsubscribe function.
func (tl *TaskList) Subscribe() (<-chan Event, func()) {
	return tl.progress.subscribe()
}

// Wait blocks until the list settles, returning nil on success, an aborted
// sentinel error if Abort fired first, or the failing task's error
// otherwise. It is the engine's toPromise().
func (tl *TaskList) Wait() error {
	<-tl.doneCh
	return tl.err
}

// Done reports whether the list has settled.
func (tl *TaskList) Done() bool {
	select {
	case <-tl.doneCh:
		return true
	default:
		return false
	}
}

func (tl *TaskList) addChild(c *TaskList) {
	tl.mu.Lock()
	tl.children = append(tl.children, c)
	tl.mu.Unlock()
}

func (tl *TaskList) removeChild(c *TaskList) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	for i, existing := range tl.children {
		if existing == c {
			tl.children = append(tl.children[:i], tl.children[i+1:]...)
			return
		}
	}
}

func (tl *TaskList) execute() {
	var failed, aborted bool
	var err error

	if tl.opts.Concurrent {
		failed, aborted, err = tl.runConcurrent()
	} else {
		failed, aborted, err = tl.runSequential()
	}

	tl.finish(failed, aborted, err)
}

func (tl *TaskList) runSequential() (failed, aborted bool, err error) {
	for _, t := range tl.tasks {
		if tl.aborted.IsSet() {
			return false, true, nil
		}
		if !t.enabled() {
			continue
		}
		if reason := t.skipReason(); reason != "" {
			tl.progress.publish(Event{Type: EventProgress, Message: reason})
			continue
		}
		tl.progress.publish(Event{Type: EventProgress, Message: t.Title})
		if taskErr := tl.runTask(t); taskErr != nil {
			if isAborted(taskErr) || tl.aborted.IsSet() {
				return false, true, nil
			}
			return true, false, taskErr
		}
	}
	return false, false, nil
}

func (tl *TaskList) runConcurrent() (failed, aborted bool, err error) {
	var wg conc.WaitGroup
	var mu sync.Mutex
	var firstErr error
	var sawAbort bool

	for _, t := range tl.tasks {
		t := t
		if !t.enabled() {
			continue
		}
		if reason := t.skipReason(); reason != "" {
			tl.progress.publish(Event{Type: EventProgress, Message: reason})
			continue
		}
		wg.Go(func() {
			if tl.aborted.IsSet() {
				return
			}
			tl.progress.publish(Event{Type: EventProgress, Message: t.Title})
			taskErr := tl.runTask(t)
			if taskErr == nil {
				return
			}
			if isAborted(taskErr) {
				mu.Lock()
				sawAbort = true
				mu.Unlock()
				return
			}
			mu.Lock()
			if firstErr == nil {
				firstErr = taskErr
			}
			mu.Unlock()
			// A failing concurrent sibling aborts the rest of the batch.
			tl.cancel()
		})
	}
	wg.Wait()

	if sawAbort || tl.aborted.IsSet() {
		return false, true, nil
	}
	if firstErr != nil {
		return true, false, firstErr
	}
	return false, false, nil
}

// runTask executes one task, recursing into a returned nested TaskList and
// waiting for it to settle.
func (tl *TaskList) runTask(t *Task) error {
	if t.Run == nil {
		return nil
	}
	nested, err := t.Run(tl.runCtx, tl.ctx)
	if err != nil {
		return err
	}
	if nested == nil {
		return nil
	}
	tl.addChild(nested)
	defer tl.removeChild(nested)
	nested.Start(tl.runCtx, tl.ctx)
	return nested.Wait()
}

func (tl *TaskList) finish(failed, aborted bool, taskErr error) {
	switch {
	case aborted:
		tl.err = &abortedError{}
		if tl.opts.OnDone != nil {
			tl.opts.OnDone(true)
		}
		tl.progress.publish(Event{Type: EventAborted})
	case failed:
		tl.err = taskErr
		if tl.opts.OnError != nil {
			tl.opts.OnError(taskErr, tl.ctx)
		}
		if tl.opts.OnDone != nil {
			tl.opts.OnDone(true)
		}
		tl.progress.publish(Event{Type: EventError, Code: errcode.Of(taskErr), Message: taskErr.Error()})
	default:
		if tl.opts.OnComplete != nil {
			tl.opts.OnComplete()
		}
		if tl.opts.OnDone != nil {
			tl.opts.OnDone(false)
		}
		tl.progress.publish(Event{Type: EventDone})
	}
	tl.progress.close()
	close(tl.doneCh)
}

type abortedError struct{}

func (e *abortedError) Error() string { return "aborted" }

func (e *abortedError) Code() string { return "aborted" }

func isAborted(err error) bool {
	_, ok := err.(*abortedError)
	return ok
}
