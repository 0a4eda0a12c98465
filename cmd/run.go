package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/theapemachine/taskflow-go/pkg/client"
	"github.com/theapemachine/taskflow-go/pkg/types"
)

var (
	autoApproveFlag bool
	noPromptFlag    bool

	runCmd = &cobra.Command{
		Use:   "run <workflow-id>",
		Short: "Trigger a workflow and follow it to the end",
		Long:  longRun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := triggerParams(args[0])
			if err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}

			opts := client.RunOptions{WaitOptions: waitOptions()}

			switch {
			case autoApproveFlag:
				opts.OnApprovalPause = autoApprove(c)
			case !noPromptFlag:
				opts.OnApprovalPause = promptApproval(c)
			}

			out, err := c.TriggerAndWait(cmd.Context(), params, opts)
			if err != nil {
				return err
			}

			if out.Status == types.StatusWaiting {
				log.Warn("task is paused for approval", "taskId", out.TaskID)
			}

			return printResult(out)
		},
	}
)

func init() {
	addTriggerFlags(runCmd)
	addWaitFlags(runCmd)
	runCmd.Flags().BoolVar(&autoApproveFlag, "auto-approve", false, "approve every pause without asking")
	runCmd.Flags().BoolVar(&noPromptFlag, "no-prompt", false, "return as soon as the task pauses")
	runCmd.MarkFlagsMutuallyExclusive("auto-approve", "no-prompt")
	rootCmd.AddCommand(runCmd)
}

func autoApprove(c *client.Client) client.ApprovalHandler {
	return func(ctx context.Context, status *types.StatusResponse) (bool, error) {
		if _, err := c.Approve(ctx, status.TaskID, "approved automatically"); err != nil {
			return false, err
		}
		return true, nil
	}
}

/*
promptApproval asks on the terminal whether to approve a paused task, and
for a reason when the answer is no. Leaving the prompt keeps the task paused.
*/
func promptApproval(c *client.Client) client.ApprovalHandler {
	return func(ctx context.Context, status *types.StatusResponse) (bool, error) {
		fmt.Print(status.String())

		approve := true

		confirm := huh.NewConfirm().
			Title(fmt.Sprintf("Task %s is waiting for approval", status.TaskID)).
			Affirmative("Approve").
			Negative("Reject").
			Value(&approve)

		if err := confirm.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return false, nil
			}
			return false, err
		}

		if approve {
			if _, err := c.Approve(ctx, status.TaskID, ""); err != nil {
				return false, err
			}
			return true, nil
		}

		var reason string

		input := huh.NewInput().
			Title("Why is it rejected?").
			Value(&reason).
			Validate(func(s string) error {
				if s == "" {
					return fmt.Errorf("please enter a reason")
				}
				return nil
			})

		if err := input.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return false, nil
			}
			return false, err
		}

		if _, err := c.Reject(ctx, status.TaskID, reason); err != nil {
			return false, err
		}

		return true, nil
	}
}

var longRun = `
Trigger a workflow and poll it until it settles. When the run pauses for
approval you are asked to approve or reject it, after which polling resumes.

Examples:
  # Run interactively.
  taskflow run wf_123 --input '{"amount": 120}'

  # Approve every pause automatically.
  taskflow run wf_123 --auto-approve

  # Stop at the first pause and resume later with approve/reject.
  taskflow run wf_123 --no-prompt
`
