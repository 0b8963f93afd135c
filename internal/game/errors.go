package game

import "fmt"

// Kind classifies rule violations.
type Kind string

const (
	KindPrecondition Kind = "precondition_violation"
	KindOutOfRange   Kind = "out_of_range_submission"
	KindDuplicate    Kind = "duplicate_submission"
	KindInvalidState Kind = "invalid_state_transition"
)

// Error is a rule violation. Range is set for out-of-range submissions.
type Error struct {
	Kind    Kind
	Message string
	Range   *Range
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches by kind, so errors.Is(err, ErrDuplicate) works for any duplicate.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrPrecondition = &Error{Kind: KindPrecondition, Message: "precondition violation"}
	ErrOutOfRange   = &Error{Kind: KindOutOfRange, Message: "number out of range"}
	ErrDuplicate    = &Error{Kind: KindDuplicate, Message: "duplicate submission"}
	ErrInvalidState = &Error{Kind: KindInvalidState, Message: "invalid round for current state"}
)

func preconditionf(format string, args ...any) *Error {
	return &Error{Kind: KindPrecondition, Message: fmt.Sprintf(format, args...)}
}

func invalidStatef(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func outOfRange(r Range) *Error {
	return &Error{
		Kind:    KindOutOfRange,
		Message: fmt.Sprintf("choose a number in range %d-%d", r.Min, r.Max),
		Range:   &r,
	}
}
