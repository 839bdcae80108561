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

// transformCmd represents the transform command
var transformCmd = &cobra.Command{
	Use:   "transform <dir>",
	Short: "Convert collected HTML responses into JSON node trees",
	Long: `Reads every parthtml*.txt file in the directory, parses the HTML
fragment inside and writes the typed JSON node tree alongside it with a
.json extension.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := args[0]
		entries, err := os.ReadDir(dir)
		if err != nil {
			fail(err)
		}

		var names []string
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasPrefix(name, "parthtml") || !strings.HasSuffix(name, ".txt") {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)

		converted := 0
		for _, name := range names {
			src := filepath.Join(dir, name)
			raw, err := os.ReadFile(src)
			if err != nil {
				fail(err)
			}
			data, err := transform.HTMLToJSON(string(raw))
			if err != nil {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", name, err)
				continue
			}
			dst := strings.TrimSuffix(src, ".txt") + ".json"
			if err := os.WriteFile(dst, data, 0644); err != nil {
				fail(err)
			}
			converted++
		}
		fmt.Printf("Converted %d of %d files\n", converted, len(names))
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)
}
