// Command flowsim simulates and optimises manufacturing production
// flows: discrete-event scheduling of tasks across workers, machines,
// and shift calendars, plus a deadline-driven worker-count search.
package main

import (
	"fmt"
	"os"

	"github.com/cuemby/flowsim/pkg/log"
	"github.com/cuemby/flowsim/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "flowsim",
	Short:   "Discrete-event simulator and optimiser for production flows",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("flowsim version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	timeCommand(validateCmd)
	timeCommand(simulateCmd)
	timeCommand(optimiseCmd)
	timeCommand(applyCmd)

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(optimiseCmd)
	rootCmd.AddCommand(applyCmd)
}

// timeCommand wraps a subcommand's RunE so every invocation's wall-clock
// time lands in the command-duration histogram and, at debug level, in
// the log, regardless of which command ran or whether it errored.
func timeCommand(cmd *cobra.Command) {
	inner := cmd.RunE
	name := cmd.Name()
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		timer := metrics.NewTimer()
		err := inner(cmd, args)
		timer.ObserveDurationVec(metrics.CommandDuration, name)
		log.WithComponent("cli").Debug().Str("command", name).Dur("duration", timer.Duration()).Msg("command finished")
		return err
	}
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(level),
		JSONOutput: jsonOut,
	})
}
