package types

import "strings"

/*
WorkflowStatus enumerates the states a remote workflow execution may report.
Values the client does not know are carried through verbatim.
*/
type WorkflowStatus string

const (
	StatusQueued    WorkflowStatus = "QUEUED"
	StatusPending   WorkflowStatus = "PENDING"
	StatusRunning   WorkflowStatus = "RUNNING"
	StatusWaiting   WorkflowStatus = "WAITING"
	StatusCanceled  WorkflowStatus = "CANCELED"
	StatusFailed    WorkflowStatus = "FAILED"
	StatusCompleted WorkflowStatus = "COMPLETED"
)

var knownStatuses = []WorkflowStatus{
	StatusQueued,
	StatusPending,
	StatusRunning,
	StatusWaiting,
	StatusCanceled,
	StatusFailed,
	StatusCompleted,
}

func (status WorkflowStatus) String() string {
	return string(status)
}

func (status WorkflowStatus) IsKnown() bool {
	for _, known := range knownStatuses {
		if status == known {
			return true
		}
	}
	return false
}

/*
ParseStatus normalizes user input such as "completed" into a WorkflowStatus.
*/
func ParseStatus(value string) WorkflowStatus {
	return WorkflowStatus(strings.ToUpper(strings.TrimSpace(value)))
}

/*
StatusSet is a set of statuses, used for the terminal set of a wait.
*/
type StatusSet map[WorkflowStatus]struct{}

func NewStatusSet(statuses ...WorkflowStatus) StatusSet {
	set := make(StatusSet, len(statuses))
	for _, status := range statuses {
		set[status] = struct{}{}
	}
	return set
}

/*
DefaultTerminalStatuses returns COMPLETED, FAILED and CANCELED. WAITING is
never part of the default set.
*/
func DefaultTerminalStatuses() StatusSet {
	return NewStatusSet(StatusCompleted, StatusFailed, StatusCanceled)
}

func (set StatusSet) Contains(status WorkflowStatus) bool {
	_, ok := set[status]
	return ok
}
