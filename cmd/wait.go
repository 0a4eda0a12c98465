package cmd

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/theapemachine/taskflow-go/pkg/client"
	"github.com/theapemachine/taskflow-go/pkg/types"
)

var (
	intervalFlag      time.Duration
	maxWaitFlag       time.Duration
	exitOnWaitingFlag bool
	terminalFlag      []string

	waitCmd = &cobra.Command{
		Use:   "wait <task-id>",
		Short: "Poll a task until it settles",
		Long:  longWait,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			out, err := c.WaitForCompletion(cmd.Context(), args[0], waitOptions())
			if err != nil {
				return err
			}

			return printResult(out)
		},
	}
)

func init() {
	addWaitFlags(waitCmd)
	waitCmd.Flags().BoolVar(&exitOnWaitingFlag, "exit-on-waiting", false, "stop when the task pauses for approval")
	rootCmd.AddCommand(waitCmd)
}

func addWaitFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&intervalFlag, "interval", 0, "time between polls (default from config)")
	cmd.Flags().DurationVar(&maxWaitFlag, "timeout", 0, "give up after this long (default from config)")
	cmd.Flags().StringSliceVar(&terminalFlag, "terminal", nil, "statuses that end the wait")
}

func waitOptions() client.WaitOptions {
	opts := client.WaitOptions{
		PollInterval:  intervalFlag,
		MaxWait:       maxWaitFlag,
		ExitOnWaiting: exitOnWaitingFlag,
		OnUpdate: func(status *types.StatusResponse) {
			log.Info("status", "taskId", status.TaskID, "status", status.Status, "events", len(status.EventLogs))
		},
	}

	if len(terminalFlag) > 0 {
		opts.TerminalStatuses = types.NewStatusSet()
		for _, status := range terminalFlag {
			opts.TerminalStatuses[types.ParseStatus(status)] = struct{}{}
		}
	}

	return opts
}

var longWait = `
Poll a task until its status is terminal and print the final record. Each
status change is logged as it is observed. Ctrl-C cancels the wait.

Examples:
  # Wait with the configured defaults.
  taskflow wait task_abc

  # Poll every 5 seconds for at most 2 minutes.
  taskflow wait task_abc --interval 5s --timeout 2m

  # Treat WAITING as an end state as well.
  taskflow wait task_abc --terminal COMPLETED,FAILED,CANCELED,WAITING
`
