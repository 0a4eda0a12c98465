package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Reason codes for failures that have no HTTP status of their own.
const (
	ReasonNetworkError   = "NETWORK_ERROR"
	ReasonRequestTimeout = "REQUEST_TIMEOUT"
	ReasonParseError     = "PARSE_ERROR"
	ReasonPollTimeout    = "POLL_TIMEOUT"
)

/*
ErrRequestTimeout marks an attempt that was aborted by the per-attempt
timeout. It never matches context.DeadlineExceeded.
*/
var ErrRequestTimeout = stderrors.New("request timed out")

/*
RequestInfo describes the request an OperationError originated from. Body is
a JSON-safe snapshot, never the live request body.
*/
type RequestInfo struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	Body   any    `json:"body,omitempty"`
}

/*
OperationError is the single error type surfaced for every transport and
orchestration failure. Status is 0 when no HTTP response was received.
*/
type OperationError struct {
	Status     int               `json:"status"`
	Reason     string            `json:"reason"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body"`
	Request    RequestInfo       `json:"request"`
	TaskID     string            `json:"taskId,omitempty"`
	LastStatus string            `json:"lastStatus,omitempty"`
	Cause      error             `json:"-"`
}

func (err *OperationError) Error() string {
	builder := &strings.Builder{}

	if err.Request.Method != "" || err.Request.URL != "" {
		fmt.Fprintf(builder, "%s %s: ", err.Request.Method, err.Request.URL)
	}

	if err.Status > 0 {
		fmt.Fprintf(builder, "HTTP %d", err.Status)
		if err.Reason != "" {
			builder.WriteString(" " + err.Reason)
		}
	} else {
		builder.WriteString(err.Reason)
	}

	if err.TaskID != "" {
		fmt.Fprintf(builder, " (task %s", err.TaskID)
		if err.LastStatus != "" {
			fmt.Fprintf(builder, ", last status %s", err.LastStatus)
		}
		builder.WriteString(")")
	}

	if err.Cause != nil {
		builder.WriteString(": " + err.Cause.Error())
	}

	return builder.String()
}

func (err *OperationError) Unwrap() error {
	return err.Cause
}

/*
IsPollTimeout reports whether the error ended a wait because the maximum
wait time elapsed.
*/
func (err *OperationError) IsPollTimeout() bool {
	return err.Reason == ReasonPollTimeout
}

/*
IsNetwork reports whether no HTTP response was ever received.
*/
func (err *OperationError) IsNetwork() bool {
	return err.Status == 0 && err.Reason != ReasonPollTimeout
}

/*
NewHTTPError builds an OperationError from a received response.
*/
func NewHTTPError(
	status int, reason string, headers map[string]string, body any, req RequestInfo,
) *OperationError {
	return &OperationError{
		Status:  status,
		Reason:  reason,
		Headers: headers,
		Body:    body,
		Request: req,
	}
}

/*
NewNetworkError wraps a failure that happened before any status was known.
*/
func NewNetworkError(req RequestInfo, cause error) *OperationError {
	reason := ReasonNetworkError
	if stderrors.Is(cause, ErrRequestTimeout) {
		reason = ReasonRequestTimeout
	}

	return &OperationError{
		Reason:  reason,
		Request: req,
		Cause:   cause,
	}
}

/*
NewPollTimeoutError is raised when a wait loop runs out of time before the
task reached a stopping condition.
*/
func NewPollTimeoutError(taskID, lastStatus string, req RequestInfo) *OperationError {
	return &OperationError{
		Reason:     ReasonPollTimeout,
		Request:    req,
		TaskID:     taskID,
		LastStatus: lastStatus,
	}
}

/*
AsOperationError unwraps err into an OperationError when possible.
*/
func AsOperationError(err error) (*OperationError, bool) {
	var target *OperationError
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}
