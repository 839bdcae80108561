package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xcervi19/orakulum/internal/input"
)

// positionCmd represents the position command
var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Print the mouse pointer position once per second",
	Long: `Continuously prints the pointer coordinates. Useful when capturing
new reference images: hover the element and read off its position.`,
	Run: func(cmd *cobra.Command, args []string) {
		interval, _ := cmd.Flags().GetDuration("interval")
		driver := input.NewSystemDriver(0, 0)
		for {
			x, y := driver.PointerPosition()
			fmt.Printf("x=%d y=%d\n", x, y)
			time.Sleep(interval)
		}
	},
}

func init() {
	rootCmd.AddCommand(positionCmd)

	positionCmd.Flags().Duration("interval", time.Second, "Delay between position samples")
}
