package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xcervi19/orakulum/internal/transform"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean <dir>",
	Short: "Strip markdown artifacts from transformed JSON documents",
	Long: `Walks every .json node tree in the directory and removes leftover
markdown formatting from its text nodes. Files are rewritten in place.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := args[0]
		entries, err := os.ReadDir(dir)
		if err != nil {
			fail(err)
		}

		var names []string
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		cleaned := 0
		for _, name := range names {
			path := filepath.Join(dir, name)
			raw, err := os.ReadFile(path)
			if err != nil {
				fail(err)
			}
			data, err := transform.CleanDocument(raw)
			if err != nil {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", name, err)
				continue
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				fail(err)
			}
			cleaned++
		}
		fmt.Printf("Cleaned %d of %d files\n", cleaned, len(names))
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
