package tasklist

import "context"

// EnabledFunc reports whether a Task participates in its TaskList's run at
// all; a disabled task is omitted as if it were never listed.
type EnabledFunc func() bool

// SkipFunc is evaluated lazily at a Task's turn. A non-empty return value
// skips the task and becomes the progress message surfaced to listeners.
type SkipFunc func() string

// RunFunc is a Task's body. Returning a non-nil *TaskList composes nested
// execution: the engine starts it sharing this list's Context (unless the
// nested list sets FreshContext) and waits for it before moving on.
// Returning a nil *TaskList and a nil error means the task itself
// completed synchronously with no further composition.
type RunFunc func(ctx context.Context, tc *Context) (*TaskList, error)

// Task is one step of a TaskList. Title is display-only; Enabled and Skip
// are optional and evaluated fresh every time the task's turn comes up.
type Task struct {
	Title   string
	Enabled EnabledFunc
	Skip    SkipFunc
	Run     RunFunc
}

func (t *Task) enabled() bool {
	return t.Enabled == nil || t.Enabled()
}

func (t *Task) skipReason() string {
	if t.Skip == nil {
		return ""
	}
	return t.Skip()
}
