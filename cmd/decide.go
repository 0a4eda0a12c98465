package cmd

import (
	"github.com/spf13/cobra"
	"github.com/theapemachine/taskflow-go/pkg/types"
)

var (
	messageFlag string

	approveCmd = &cobra.Command{
		Use:   "approve <task-id>",
		Short: "Approve a task paused for approval",
		Long:  longApprove,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return decide(cmd, args[0], types.DecisionApprove)
		},
	}

	rejectCmd = &cobra.Command{
		Use:   "reject <task-id>",
		Short: "Reject a task paused for approval",
		Long:  longReject,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return decide(cmd, args[0], types.DecisionReject)
		},
	}
)

func init() {
	approveCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "optional note for the approval")
	rejectCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "reason for the rejection (required)")

	rootCmd.AddCommand(approveCmd, rejectCmd)
}

func decide(cmd *cobra.Command, taskID string, decision types.Decision) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	out, err := c.Decide(cmd.Context(), taskID, decision, messageFlag)
	if err != nil {
		return err
	}

	return printResult(out)
}

var longApprove = `
Resume a paused task with an approval.

Examples:
  taskflow approve task_abc
  taskflow approve task_abc -m "looks good"
`

var longReject = `
Resume a paused task with a rejection. A message is required.

Examples:
  taskflow reject task_abc -m "amount over budget"
`
