package timepoint

import "fmt"

// FormatError reports timestamp text that does not match any recognized
// encoding for the (possibly inferred) mode.
type FormatError struct {
	Value    string
	Expected string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unparseable timestamp %q: format must match %s", e.Value, e.Expected)
}

func (e *FormatError) IsTransient() bool {
	return false
}

// RangeError reports a decomposed timestamp field outside its valid bound.
type RangeError struct {
	Value string
	Field string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s in timestamp %q", e.Field, e.Value)
}

func (e *RangeError) IsTransient() bool {
	return false
}

// CalendarError reports a structurally invalid date, e.g. Feb 29 in a
// non-leap year. Field bounds were fine, the calendar disagrees.
type CalendarError struct {
	Value string
	Cause error
}

func (e *CalendarError) Error() string {
	return fmt.Sprintf("invalid calendar date %q: %v", e.Value, e.Cause)
}

func (e *CalendarError) Unwrap() error {
	return e.Cause
}

func (e *CalendarError) IsTransient() bool {
	return false
}

// ModeMismatchError reports a binary operation between a daily and an
// hourly instant. Mixing modes is a contract violation, never a coercion.
type ModeMismatchError struct {
	Left  string
	Right string
}

func (e *ModeMismatchError) Error() string {
	return fmt.Sprintf("mode mismatch: cannot combine %s with %s", e.Left, e.Right)
}

func (e *ModeMismatchError) IsTransient() bool {
	return false
}
