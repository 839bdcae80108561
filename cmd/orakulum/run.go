package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xcervi19/orakulum/internal/pipeline"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the batch pipeline over a directory of prompt files",
	Long: `Reads every .txt file in the input directory in name order, sends
each one through the chat session and writes the response next to it in
the output directory. Prompts whose output file already exists are
skipped, so an interrupted run can be resumed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(err)
		}
		if cmd.Flags().Changed("input") {
			cfg.InputDir, _ = cmd.Flags().GetString("input")
		}
		if cmd.Flags().Changed("output") {
			cfg.OutputDir, _ = cmd.Flags().GetString("output")
		}
		applySessionFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			fail(err)
		}

		sess, err := buildSession(cfg)
		if err != nil {
			fail(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner := pipeline.NewRunner(sess, cfg.InputDir, cfg.OutputDir, cfg.PromptDelay)
		summary, err := runner.Run(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Done: %d prompts, %d successful, %d failed, %d skipped\n",
			summary.Total, summary.Successful, summary.Failed, summary.Skipped)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("input", "", "Directory of prompt .txt files (overrides config)")
	runCmd.Flags().String("output", "", "Directory for response files (overrides config)")
	addSessionFlags(runCmd)
}
