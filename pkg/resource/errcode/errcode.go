// Package errcode gives errors a stable short string for the progress wire
// envelope without forcing every package that wants to tag an
// error to import the full resource or tasklist packages. It sits below
// both: a leaf with no dependencies of its own.
package errcode

// Coder is implemented by error types that want a stable code in progress
// events instead of the generic "unknown".
type Coder interface {
	Code() string
}

// Of returns err's code if it implements Coder, "unknown" for any other
// non-nil error, and "" for nil.
func Of(err error) string {
	if err == nil {
		return ""
	}
	if c, ok := err.(Coder); ok {
		return c.Code()
	}
	return "unknown"
}
