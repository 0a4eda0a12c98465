package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/theapemachine/taskflow-go/pkg/client"
	"github.com/theapemachine/taskflow-go/pkg/types"
)

var (
	inputFlag      string
	inputFileFlag  string
	uniqueIDFlag   string
	generateIDFlag bool

	triggerCmd = &cobra.Command{
		Use:   "trigger <workflow-id>",
		Short: "Start a workflow run",
		Long:  longTrigger,
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

			out, err := c.Trigger(cmd.Context(), params)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printResult(out)
			}

			return printResult(&types.StatusResponse{TaskID: out.TaskID, Status: out.Status})
		},
	}
)

func init() {
	addTriggerFlags(triggerCmd)
	rootCmd.AddCommand(triggerCmd)
}

func addTriggerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&inputFlag, "input", "i", "", "workflow input as a JSON document")
	cmd.Flags().StringVarP(&inputFileFlag, "input-file", "f", "", "read the JSON input from a file, - for stdin")
	cmd.Flags().StringVar(&uniqueIDFlag, "unique-id", "", "caller correlation id echoed back in webhooks")
	cmd.Flags().BoolVar(&generateIDFlag, "generate-id", false, "generate a random unique id")
	cmd.MarkFlagsMutuallyExclusive("input", "input-file")
	cmd.MarkFlagsMutuallyExclusive("unique-id", "generate-id")
}

/*
triggerParams assembles the trigger call from the command flags. A missing
input is sent as null.
*/
func triggerParams(workflowID string) (client.TriggerParams, error) {
	params := client.TriggerParams{
		WorkflowID: workflowID,
		UniqueID:   uniqueIDFlag,
	}

	if generateIDFlag {
		params.UniqueID = uuid.NewString()
	}

	raw := []byte(inputFlag)

	if inputFileFlag != "" {
		var err error

		if inputFileFlag == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(inputFileFlag)
		}

		if err != nil {
			return params, fmt.Errorf("failed to read input: %w", err)
		}
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params.Input); err != nil {
			return params, fmt.Errorf("input is not valid JSON: %w", err)
		}
	}

	return params, nil
}

var longTrigger = `
Start a workflow run and print the task id and initial status.

Examples:
  # Trigger a workflow with an inline input.
  taskflow trigger wf_123 --input '{"customer": "acme"}'

  # Read the input from a file and tag the run with a random unique id.
  taskflow trigger wf_123 -f input.json --generate-id
`
