package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "github.com/theapemachine/taskflow-go/pkg/errors"
	"github.com/theapemachine/taskflow-go/pkg/retry"
	"github.com/theapemachine/taskflow-go/pkg/types"
)

/*
WaitOptions tunes WaitForCompletion. Zero durations fall back to the
client's defaults and a nil TerminalStatuses to COMPLETED, FAILED and
CANCELED. OnUpdate fires once for every change of the observed status.
*/
type WaitOptions struct {
	PollInterval     time.Duration
	MaxWait          time.Duration
	TerminalStatuses types.StatusSet
	ExitOnWaiting    bool
	OnUpdate         func(*types.StatusResponse)
}

/*
ApprovalHandler is consulted when a run pauses for approval. Returning true
resumes polling; false hands the paused record back to the caller. The
handler is expected to resume the task itself, typically through Approve or
Reject, before returning true.
*/
type ApprovalHandler func(ctx context.Context, status *types.StatusResponse) (bool, error)

type RunOptions struct {
	WaitOptions
	OnApprovalPause ApprovalHandler
}

func (client *Client) waitDefaults(opts WaitOptions) WaitOptions {
	if opts.PollInterval <= 0 {
		opts.PollInterval = client.pollInterval
	}

	if opts.MaxWait <= 0 {
		opts.MaxWait = client.maxWait
	}

	if opts.TerminalStatuses == nil {
		opts.TerminalStatuses = types.DefaultTerminalStatuses()
	}

	return opts
}

/*
WaitForCompletion polls a task until its status is terminal, or WAITING when
ExitOnWaiting is set. Polls are strictly sequential. A poll failure ends the
wait immediately; exceeding MaxWait fails with a POLL_TIMEOUT OperationError
carrying the last observed status.
*/
func (client *Client) WaitForCompletion(
	ctx context.Context, taskID string, opts WaitOptions,
) (*types.StatusResponse, error) {
	if err := validateTaskID(taskID); err != nil {
		return nil, err
	}

	opts = client.waitDefaults(opts)
	started := time.Now()

	var (
		current  *types.StatusResponse
		observed types.WorkflowStatus
		seen     bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status, err := client.GetStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}

		current = status

		if !seen || status.Status != observed {
			client.logger.Debug("task status changed", "taskId", taskID, "from", observed, "to", status.Status)

			seen = true
			observed = status.Status

			if opts.OnUpdate != nil {
				opts.OnUpdate(status)
			}
		}

		done := opts.TerminalStatuses.Contains(status.Status) ||
			(opts.ExitOnWaiting && status.Status == types.StatusWaiting)
		timedOut := !done && time.Since(started) >= opts.MaxWait

		client.metrics.RecordPoll(timedOut)

		if done {
			return current, nil
		}

		if timedOut {
			client.logger.Warn("gave up waiting for task", "taskId", taskID, "lastStatus", observed, "maxWait", opts.MaxWait)
			return nil, errs.NewPollTimeoutError(taskID, string(observed), client.statusRequest(taskID))
		}

		if err := retry.Sleep(ctx, opts.PollInterval); err != nil {
			return nil, err
		}
	}
}

/*
TriggerAndWait starts a workflow and waits for it, handing approval pauses
to OnApprovalPause. Without a handler, or when the handler declines, the
WAITING record is returned and the task must be resumed out of band.
*/
func (client *Client) TriggerAndWait(
	ctx context.Context, params TriggerParams, opts RunOptions,
) (*types.StatusResponse, error) {
	triggered, err := client.Trigger(ctx, params)
	if err != nil {
		return nil, err
	}

	wait := opts.WaitOptions
	wait.ExitOnWaiting = true

	for {
		status, err := client.WaitForCompletion(ctx, triggered.TaskID, wait)
		if err != nil {
			return nil, err
		}

		if status.Status != types.StatusWaiting || opts.OnApprovalPause == nil {
			return status, nil
		}

		resume, err := opts.OnApprovalPause(ctx, status)
		if err != nil {
			return nil, err
		}

		if !resume {
			return status, nil
		}

		client.logger.Debug("resuming after approval pause", "taskId", triggered.TaskID)
	}
}

func (client *Client) statusRequest(taskID string) errs.RequestInfo {
	return errs.RequestInfo{
		Method: http.MethodGet,
		URL: strings.TrimRight(client.BaseURL(), "/") + statusPath + "?" +
			url.Values{"taskId": []string{taskID}}.Encode(),
	}
}
