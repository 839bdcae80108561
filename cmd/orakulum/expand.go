package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xcervi19/orakulum/internal/database"
	"github.com/xcervi19/orakulum/internal/expand"
)

// expandCmd represents the expand command
var expandCmd = &cobra.Command{
	Use:   "expand <screen.json>",
	Short: "Expand a screen document into a tree of prompts and run them",
	Long: `Loads a structured screen document, expands its sections, prompts
and tool hooks into concrete jobs, runs each job through the chat
session and feeds every parsed response back into the expander. The
traversal is breadth-first and stops at the configured depth ceiling.
With --db the whole conversation tree is recorded in SQLite.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(err)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			fail(fmt.Errorf("failed to read screen document: %w", err))
		}
		doc, err := expand.ParseScreen(data)
		if err != nil {
			fail(err)
		}

		applySessionFlags(cmd, cfg)
		applyTraversalFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			fail(err)
		}

		sess, err := buildSession(cfg)
		if err != nil {
			fail(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		traversal := expand.NewTraversal(doc, expand.NewExpander(cfg.Fanout), sess, cfg.MaxDepth)

		useDB, _ := cmd.Flags().GetBool("db")
		if useDB {
			db, err := database.Open(cfg.DatabasePath)
			if err != nil {
				fail(err)
			}
			defer db.Close()

			title, _ := cmd.Flags().GetString("title")
			if title == "" {
				title = filepath.Base(args[0])
			}
			transcript, err := database.NewTranscript(db, title)
			if err != nil {
				fail(err)
			}
			traversal = traversal.WithRecorder(transcript)
		}

		results, err := traversal.Run(ctx)
		if err != nil {
			fail(err)
		}

		pruned := 0
		for _, res := range results {
			if res.Pruned {
				pruned++
			}
		}
		fmt.Printf("Traversal finished: %d jobs, %d pruned\n", len(results), pruned)
	},
}

func init() {
	rootCmd.AddCommand(expandCmd)

	expandCmd.Flags().Bool("db", false, "Record the conversation tree in SQLite")
	expandCmd.Flags().String("title", "", "Conversation title for the transcript (default: document name)")
	addSessionFlags(expandCmd)
	addTraversalFlags(expandCmd)
}
