package cmd

import (
	"github.com/spf13/cobra"
)

var (
	statusCmd = &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the current status of a task",
		Long:  longStatus,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			out, err := c.GetStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printResult(out)
		},
	}
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var longStatus = `
Fetch a fresh snapshot of a task, including its event log.

Examples:
  taskflow status task_abc
  taskflow status task_abc --json
`
