package resource

import "fmt"

// NoStartError is the error of ResourcesManager.Start when the resource
// type's CRUD descriptor does not declare both start and stop. Start does
// not return it directly: it returns a one-task TaskList that fails with
// it, observable through Wait and the list's error event.
type NoStartError struct {
	ResourceType string
}

func (e *NoStartError) Error() string {
	return fmt.Sprintf("resource type %q does not support start", e.ResourceType)
}

func (e *NoStartError) Code() string { return "no-start" }

// NoStopError mirrors NoStartError for stop.
type NoStopError struct {
	ResourceType string
}

func (e *NoStopError) Error() string {
	return fmt.Sprintf("resource type %q does not support stop", e.ResourceType)
}

func (e *NoStopError) Code() string { return "no-stop" }

// NotFoundError is returned when an operation addresses a name with no
// installed adapter ("does not exist" skips surface this as the skip
// reason instead of an error).
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %q does not exist", e.Name)
}

func (e *NotFoundError) Code() string { return "not-found" }

// InitError is collected (never thrown) per failing resource during
// ResourcesManager.Init. A ready marker without a loadable adapter, or a
// corrupt dependency/dependents file, each contribute one InitError; init
// itself never fails because of a single bad resource.
type InitError struct {
	Name string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %q: %v", e.Name, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

func (e *InitError) Code() string { return "init-error" }

// DuplicateNameError is returned by Init when two ready markers decode to
// the same compound name; this is fatal for the whole Init, since
// duplicate names make on-disk state incoherent, unlike a single
// resource's InitError.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate ready marker for %q", e.Name)
}

func (e *DuplicateNameError) Code() string { return "duplicate-name" }
