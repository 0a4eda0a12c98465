/*
Package cmd implements the taskflow command-line interface. Every command is a
thin shell over the client library: trigger workflows, inspect and resume
tasks, wait for them to settle and inspect webhook deliveries.
*/
package cmd

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/taskflow-go/pkg/client"
	"github.com/theapemachine/taskflow-go/pkg/logging"
	"github.com/theapemachine/taskflow-go/pkg/metrics"
)

/*
Embed a mini filesystem into the binary to hold the default config file.
This will be written to the home directory of the user running the CLI,
which allows a developer to easily override the config file.
*/
//go:embed cfg/*
var embedded embed.FS

/*
rootCmd represents the base command when called without any subcommands
*/
var (
	projectName = "taskflow"
	cfgFile     string
	jsonOutput  bool
	showMetrics bool

	requestMetrics = metrics.NewRequestMetrics()

	rootCmd = &cobra.Command{
		Use:           projectName,
		Short:         "Trigger and follow workflows on the taskflow service",
		Long:          longRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logging.Init(logging.Options{
				Level:        viper.GetString("log.level"),
				Format:       viper.GetString("log.format"),
				File:         viper.GetString("log.file"),
				ReportCaller: viper.GetBool("log.caller"),
			})
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if showMetrics {
				log.Info("request metrics", "metrics", requestMetrics.Snapshot())
			}
			logging.Close()
		},
	}
)

/*
Execute is the main entry point for the CLI.
*/
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Error(err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yml",
		"config file (default is $HOME/."+projectName+"/config.yml)",
	)

	rootCmd.PersistentFlags().String("api-key", "", "API key for the workflow service")
	rootCmd.PersistentFlags().String("base-url", "", "override the service origin")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "log request metrics on exit")

	_ = viper.BindPFlag("api.key", rootCmd.PersistentFlags().Lookup("api-key"))
	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

/*
initConfig writes the default config file to the user's home directory if it
doesn't exist, then reads it. Environment variables prefixed with TASKFLOW_
override any key, e.g. TASKFLOW_API_KEY for api.key.
*/
func initConfig() {
	var err error

	if err = writeConfig(); err != nil {
		log.Fatal(err)
	}

	viper.SetConfigName(strings.TrimSuffix(cfgFile, ".yml"))
	viper.SetConfigType("yml")
	home, _ := os.UserHomeDir()
	viper.AddConfigPath(home + "/." + projectName)

	viper.SetEnvPrefix("TASKFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

/*
writeConfig writes the default config file to the user's home directory.
*/
func writeConfig() (err error) {
	var (
		home, _ = os.UserHomeDir()
		fh      fs.File
		buf     bytes.Buffer
	)

	configDir := home + "/." + projectName
	if !CheckFileExists(configDir) {
		if err = os.MkdirAll(configDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	fullPath := configDir + "/" + cfgFile

	if CheckFileExists(fullPath) {
		return nil
	}

	if fh, err = embedded.Open("cfg/config.yml"); err != nil {
		return fmt.Errorf("failed to open embedded config file: %w", err)
	}
	defer fh.Close()

	if _, err = io.Copy(&buf, fh); err != nil {
		return fmt.Errorf("failed to read embedded config file: %w", err)
	}

	if err = os.WriteFile(fullPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info("wrote config file", "path", fullPath)
	return nil
}

func CheckFileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !errors.Is(err, os.ErrNotExist)
}

/*
newClient builds a client from the merged config, flags and environment.
*/
func newClient() (*client.Client, error) {
	cfg, err := client.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	cfg.Logger = log.Default()
	cfg.Metrics = requestMetrics

	return client.NewClient(cfg)
}

/*
printResult writes v to stdout, either as indented JSON or through its
String method.
*/
func printResult(v any) error {
	if stringer, ok := v.(fmt.Stringer); ok && !jsonOutput {
		fmt.Print(stringer.String())
		return nil
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	fmt.Println(string(out))
	return nil
}

/*
longRoot contains the detailed help text for the root command.
*/
var longRoot = `
taskflow is a command-line client for a hosted workflow execution service.
It triggers workflows, fetches their status, approves or rejects paused runs
and can wait for a run to settle.

Configuration lives in ~/.taskflow/config.yml. Any key can be overridden with
an environment variable prefixed with TASKFLOW_, e.g. TASKFLOW_API_KEY.
`
