package types

import (
	"encoding/json"
	"strings"
)

/*
Decision is the answer given to a workflow paused for approval.
*/
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

func ParseDecision(value string) Decision {
	return Decision(strings.ToUpper(strings.TrimSpace(value)))
}

func (decision Decision) Valid() bool {
	return decision == DecisionApprove || decision == DecisionReject
}

// TriggerRequest is the body of POST /api/v1.
type TriggerRequest struct {
	WorkflowID string `json:"workflowId"`
	UniqueID   string `json:"uniqueId,omitempty"`
	Input      any    `json:"input"`
}

// TriggerResponse is the reply to a trigger call.
type TriggerResponse struct {
	TaskID string         `json:"taskId"`
	Status WorkflowStatus `json:"status"`
}

/*
StatusResponse is a full snapshot of a task as the service currently sees
it. Every poll returns a fresh one; nothing is merged client-side.
*/
type StatusResponse struct {
	TaskID    string         `json:"taskId"`
	Status    WorkflowStatus `json:"status"`
	EventLogs []EventLog     `json:"eventLogs,omitempty"`
}

// ContinueRequest is the body of POST /api/v1/continue.
type ContinueRequest struct {
	TaskID  string   `json:"taskId"`
	Type    Decision `json:"type"`
	Message string   `json:"message,omitempty"`
}

/*
WebhookPayload is the shape the service posts to a configured webhook. The
library never receives it itself; the type is provided for receivers.
*/
type WebhookPayload struct {
	TaskID    string         `json:"taskId"`
	UniqueID  string         `json:"uniqueId,omitempty"`
	Status    WorkflowStatus `json:"status"`
	EventLogs []EventLog     `json:"eventLogs,omitempty"`
}

/*
ParseWebhookPayload decodes a webhook body. It does not verify the sender.
*/
func ParseWebhookPayload(body []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

/*
StatusResponse converts the payload into the record a status fetch would return.
*/
func (payload *WebhookPayload) StatusResponse() *StatusResponse {
	return &StatusResponse{
		TaskID:    payload.TaskID,
		Status:    payload.Status,
		EventLogs: payload.EventLogs,
	}
}
