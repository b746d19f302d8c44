package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hoodctl",
	Short: "Control Fjäråskupan kitchen extractor hoods over BLE",
	Long: `Command-line tool for Fjäråskupan kitchen extractor hoods:

- Scan and discover nearby hoods
- Set fan speed and light level
- Configure periodic venting and after-cooking runoff
- Reset grease and charcoal filter timers
- Show and monitor device state

Hoods are addressed by the hardware identifier shown by 'hoodctl scan'.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		// Print user-friendly error message
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(fanCmd)
	rootCmd.AddCommand(lightCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(ventingCmd)
	rootCmd.AddCommand(aftercookCmd)
	rootCmd.AddCommand(filterCmd)

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().String("keycode", "", "Device keycode (4 characters, factory default 1234)")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
