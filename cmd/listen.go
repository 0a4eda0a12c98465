package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/taskflow-go/pkg/service"
	"github.com/theapemachine/taskflow-go/pkg/types"
)

var (
	listenCmd = &cobra.Command{
		Use:   "listen",
		Short: "Print webhook deliveries as they arrive",
		Long:  longListen,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := service.NewWebhookServer(service.WebhookOptions{
				Addr:   viper.GetString("listen.addr"),
				Path:   viper.GetString("listen.path"),
				Logger: log.Default(),
				Handler: func(deliveryID string, payload *types.WebhookPayload) error {
					if jsonOutput {
						return printResult(payload)
					}
					fmt.Printf("delivery %s\n%s\n", deliveryID, payload.String())
					return nil
				},
			})

			go func() {
				<-cmd.Context().Done()
				_ = srv.Shutdown()
			}()

			return srv.Start()
		},
	}
)

func init() {
	listenCmd.Flags().String("addr", "", "address to listen on")
	listenCmd.Flags().String("path", "", "path the service posts to")
	_ = viper.BindPFlag("listen.addr", listenCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("listen.path", listenCmd.Flags().Lookup("path"))

	rootCmd.AddCommand(listenCmd)
}

var longListen = `
Run a local receiver for the payloads the workflow service posts to a
configured webhook, and print each one. Deliveries are not verified.

Examples:
  # Listen on the default :3210/webhook.
  taskflow listen

  # Listen somewhere else.
  taskflow listen --addr :8081 --path /hooks/taskflow
`
