package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rahul/chainsmith/internal/observability"
)

var (
	configPath string
	quiet      bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "chainsmith",
	Short:         "Build multi-step prompts and compare them across target models",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Route all log output through the terminal mutex so it never
		// interleaves with the progress line.
		log.SetOutput(observability.NewTermWriter())
		if !quiet {
			observability.PrintBanner(cmd.ErrOrStderr())
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to the JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress the banner")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write structured events to stderr")
	rootCmd.AddCommand(runCmd, compareCmd, simulateCmd, targetsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "\033[91m[ FAIL ] %v\033[0m\n", err)
		os.Exit(1)
	}
}
