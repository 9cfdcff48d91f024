package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Logger is the shared logger instance for all commands
var Logger *logrus.Logger

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "microbench",
		Short: "Microbenchmark harness for comparing small implementations",
		Long: `microbench runs a handful of candidate implementations of the same
operation many times, in randomised order, and reports min, quartiles,
median and max per candidate so their relative speed can be compared.

Candidates come from built-in workloads or from SQL statements executed
against PostgreSQL or MySQL, described in a YAML suite file.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				Logger.SetLevel(logrus.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()

	Logger = newLogger(os.Getenv("LOG_LEVEL"))
}
