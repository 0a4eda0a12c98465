package types

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

/*
EventType names a workflow lifecycle event. The constants below are the
catalog the client knows about; any other string sent by the service is kept
as-is rather than rejected.
*/
type EventType string

const (
	EventWorkflowStarted   EventType = "WorkflowStarted"
	EventWorkflowQueued    EventType = "WorkflowQueued"
	EventWorkflowRunning   EventType = "WorkflowRunning"
	EventWorkflowCompleted EventType = "WorkflowCompleted"
	EventWorkflowFailed    EventType = "WorkflowFailed"
	EventWorkflowCanceled  EventType = "WorkflowCanceled"
	EventWorkflowPaused    EventType = "WorkflowPaused"
	EventWorkflowResumed   EventType = "WorkflowResumed"

	EventAgentStarted   EventType = "AgentStarted"
	EventAgentThinking  EventType = "AgentThinking"
	EventAgentCompleted EventType = "AgentCompleted"
	EventAgentFailed    EventType = "AgentFailed"

	EventTaskStarted   EventType = "TaskStarted"
	EventTaskCompleted EventType = "TaskCompleted"
	EventTaskFailed    EventType = "TaskFailed"

	EventToolCalled    EventType = "ToolCalled"
	EventToolCompleted EventType = "ToolCompleted"
	EventToolFailed    EventType = "ToolFailed"

	EventApprovalRequested EventType = "ApprovalRequested"
	EventApprovalGranted   EventType = "ApprovalGranted"
	EventApprovalRejected  EventType = "ApprovalRejected"
)

var knownEventTypes = map[EventType]struct{}{
	EventWorkflowStarted:   {},
	EventWorkflowQueued:    {},
	EventWorkflowRunning:   {},
	EventWorkflowCompleted: {},
	EventWorkflowFailed:    {},
	EventWorkflowCanceled:  {},
	EventWorkflowPaused:    {},
	EventWorkflowResumed:   {},
	EventAgentStarted:      {},
	EventAgentThinking:     {},
	EventAgentCompleted:    {},
	EventAgentFailed:       {},
	EventTaskStarted:       {},
	EventTaskCompleted:     {},
	EventTaskFailed:        {},
	EventToolCalled:        {},
	EventToolCompleted:     {},
	EventToolFailed:        {},
	EventApprovalRequested: {},
	EventApprovalGranted:   {},
	EventApprovalRejected:  {},
}

/*
IsKnown reports whether the event type is part of the built-in catalog.
*/
func (eventType EventType) IsKnown() bool {
	_, ok := knownEventTypes[eventType]
	return ok
}

/*
EventLog is one entry of the event history a status fetch returns. It is
only ever decoded from the service, never built by the client.
*/
type EventLog struct {
	EventType EventType `json:"eventType"`
	EventData any       `json:"eventData,omitempty"`
	Timestamp Timestamp `json:"timestamp,omitempty"`
	CreatedAt Timestamp `json:"createdAt,omitempty"`
}

/*
Field looks up key when EventData is an object.
*/
func (event EventLog) Field(key string) (any, bool) {
	data, ok := event.EventData.(map[string]any)
	if !ok {
		return nil, false
	}

	value, ok := data[key]
	return value, ok
}

/*
Timestamp keeps whatever the service sent, either an RFC 3339 string or epoch
milliseconds, so decoding never fails on an unexpected format.
*/
type Timestamp string

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))

	if raw == "null" {
		*ts = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*ts = Timestamp(text)
		return nil
	}

	*ts = Timestamp(raw)
	return nil
}

/*
Time parses the timestamp as RFC 3339 or as epoch milliseconds.
*/
func (ts Timestamp) Time() (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}

	if parsed, err := time.Parse(time.RFC3339Nano, string(ts)); err == nil {
		return parsed, true
	}

	millis, err := strconv.ParseInt(string(ts), 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	return time.UnixMilli(millis), true
}
