package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

var (
	ErrWorkflowIDRequired   = stderrors.New("workflow id is required")
	ErrTaskIDRequired       = stderrors.New("task id is required")
	ErrInputNotSerializable = stderrors.New("input is not JSON serializable")
	ErrMessageRequired      = stderrors.New("message is required when rejecting")
	ErrInvalidDecision      = stderrors.New("decision must be APPROVE or REJECT")
	ErrBodyNotSerializable  = stderrors.New("request body is not JSON serializable")
	ErrAPIKeyRequired       = stderrors.New("api key is required")
)

/*
ValidationError is raised before any I/O when caller input is malformed. It is
never retried and never carries HTTP context, which keeps it apart from
OperationError.
*/
type ValidationError struct {
	Field string
	Errs  []error
	Msgs  []any
}

/*
NewValidationError collects the errors and messages describing why field was
rejected. Anything that is neither an error nor a string is kept as a message.
*/
func NewValidationError(field string, reasons ...any) error {
	err := &ValidationError{Field: field}

	for _, reason := range reasons {
		switch v := reason.(type) {
		case nil:
		case error:
			err.Errs = append(err.Errs, v)
		default:
			err.Msgs = append(err.Msgs, v)
		}
	}

	return err
}

func (err *ValidationError) Error() string {
	builder := &strings.Builder{}
	builder.WriteString("validation failed")

	if err.Field != "" {
		builder.WriteString(" for ")
		builder.WriteString(err.Field)
	}

	parts := make([]string, 0, len(err.Errs)+len(err.Msgs))

	for _, e := range err.Errs {
		parts = append(parts, e.Error())
	}

	for _, msg := range err.Msgs {
		parts = append(parts, fmt.Sprintf("%v", msg))
	}

	if len(parts) > 0 {
		builder.WriteString(": ")
		builder.WriteString(strings.Join(parts, "; "))
	}

	return builder.String()
}

/*
Unwrap exposes the collected causes so errors.Is can match the sentinels.
*/
func (err *ValidationError) Unwrap() []error {
	return err.Errs
}

/*
IsValidation reports whether err is, or wraps, a ValidationError.
*/
func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}
