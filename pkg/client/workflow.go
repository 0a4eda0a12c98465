package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/cohesivestack/valgo"
	errs "github.com/theapemachine/taskflow-go/pkg/errors"
	"github.com/theapemachine/taskflow-go/pkg/transport"
	"github.com/theapemachine/taskflow-go/pkg/types"
)

/*
TriggerParams starts one workflow run. Input must be JSON serializable;
UniqueID is an optional caller-side correlation key echoed back in webhooks.
*/
type TriggerParams struct {
	WorkflowID string
	Input      any
	UniqueID   string
}

/*
Trigger starts a workflow and returns the task id together with the status
the service reports for it, verbatim.
*/
func (client *Client) Trigger(ctx context.Context, params TriggerParams) (*types.TriggerResponse, error) {
	if val := valgo.Is(valgo.String(params.WorkflowID, "workflowId").Not().Blank()); !val.Valid() {
		return nil, errs.NewValidationError("workflowId", errs.ErrWorkflowIDRequired, val.Error())
	}

	if _, err := json.Marshal(params.Input); err != nil {
		return nil, errs.NewValidationError("input", errs.ErrInputNotSerializable, err)
	}

	var out types.TriggerResponse

	if err := client.call(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   triggerPath,
		Body: types.TriggerRequest{
			WorkflowID: params.WorkflowID,
			UniqueID:   params.UniqueID,
			Input:      params.Input,
		},
	}, &out); err != nil {
		return nil, err
	}

	client.logger.Debug("workflow triggered", "workflowId", params.WorkflowID, "taskId", out.TaskID, "status", out.Status)

	return &out, nil
}

/*
GetStatus fetches a fresh snapshot of a task.
*/
func (client *Client) GetStatus(ctx context.Context, taskID string) (*types.StatusResponse, error) {
	if err := validateTaskID(taskID); err != nil {
		return nil, err
	}

	var out types.StatusResponse

	if err := client.call(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   statusPath,
		Query:  url.Values{"taskId": []string{taskID}},
	}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

/*
Decide resumes a task paused for approval. Rejections must say why, so a
REJECT without a message fails before anything is sent.
*/
func (client *Client) Decide(
	ctx context.Context, taskID string, decision types.Decision, message string,
) (*types.StatusResponse, error) {
	if err := validateTaskID(taskID); err != nil {
		return nil, err
	}

	if !decision.Valid() {
		return nil, errs.NewValidationError("type", errs.ErrInvalidDecision, string(decision))
	}

	if decision == types.DecisionReject {
		if val := valgo.Is(valgo.String(message, "message").Not().Blank()); !val.Valid() {
			return nil, errs.NewValidationError("message", errs.ErrMessageRequired, val.Error())
		}
	}

	var out types.StatusResponse

	if err := client.call(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   continuePath,
		Body: types.ContinueRequest{
			TaskID:  taskID,
			Type:    decision,
			Message: message,
		},
	}, &out); err != nil {
		return nil, err
	}

	client.logger.Debug("decision sent", "taskId", taskID, "decision", decision, "status", out.Status)

	return &out, nil
}

func (client *Client) Approve(ctx context.Context, taskID, message string) (*types.StatusResponse, error) {
	return client.Decide(ctx, taskID, types.DecisionApprove, message)
}

func (client *Client) Reject(ctx context.Context, taskID, message string) (*types.StatusResponse, error) {
	return client.Decide(ctx, taskID, types.DecisionReject, message)
}

func (client *Client) call(ctx context.Context, req transport.Request, out any) error {
	resp, err := client.transport.Do(ctx, req)
	if err != nil {
		return err
	}

	return resp.Decode(out)
}

func validateTaskID(taskID string) error {
	if val := valgo.Is(valgo.String(taskID, "taskId").Not().Blank()); !val.Valid() {
		return errs.NewValidationError("taskId", errs.ErrTaskIDRequired, val.Error())
	}
	return nil
}
