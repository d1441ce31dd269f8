package generate

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure.
type Kind string

const (
	// KindInputRejected: the document failed intake and never reached the model.
	KindInputRejected Kind = "InputRejected"
	// KindUpstreamFailure: transport, provider or cancellation error.
	KindUpstreamFailure Kind = "UpstreamFailure"
	// KindSchemaViolation: the model output cannot form a valid 4-question quiz.
	KindSchemaViolation Kind = "SchemaViolation"
)

// Error is the terminal failure of a generation request.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, or "" if err is not a generation error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// IsKind reports whether err is a generation error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func schemaViolation(err error) *Error {
	return &Error{Kind: KindSchemaViolation, Detail: err.Error(), Err: err}
}

func upstreamFailure(op string, err error) *Error {
	return &Error{Kind: KindUpstreamFailure, Detail: fmt.Sprintf("%s: %v", op, err), Err: err}
}
