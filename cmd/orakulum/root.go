package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orakulum",
	Short: "Orakulum drives a browser chat session through the screen",
	Long: `Orakulum automates a browser-based chat assistant by looking at the
screen: it finds the input box, the send button and the copy button by
template matching, types prompts, waits for generation to finish and
collects the responses. It can run a batch of prompt files or expand a
structured screen document into a tree of follow-up prompts.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "Settings.ini", "Path to the Settings.ini configuration file")
}
