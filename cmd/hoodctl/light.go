package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/elupus/fjaraskupan-go/control"
	"github.com/elupus/fjaraskupan-go/hood"
)

// lightCmd represents the light command
var lightCmd = &cobra.Command{
	Use:   "light <address> <level>",
	Short: "Set light brightness",
	Long: `Set the hood light brightness.

Level ranges from 0 to 100 percent. Level 0 turns the light off; any other
level turns it on first if needed.`,
	Args: cobra.ExactArgs(2),
	RunE: runLight,
}

func runLight(cmd *cobra.Command, args []string) error {
	address := args[0]
	level, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid light level %q: must be a number between 0 and %d", args[1], hood.MaxDimLevel)
	}
	// Validate the range before connecting
	if _, err := hood.FormatDim(level); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, cleanup := commandContext(cfg.ConnectTimeout)
	defer cleanup()

	progress := NewProgressPrinter(fmt.Sprintf("Setting light to %d%%", level), "Connecting", "Processing results", "Failed")
	progress.Start()
	defer progress.Stop()

	_, err = control.WithDevice(ctx, address, sessionOptions(cfg), logger, progress.Callback(),
		func(dev *hood.Device) (struct{}, error) {
			// Fetch current state so the on/off toggle is only sent when needed
			if _, err := dev.Update(); err != nil {
				return struct{}{}, err
			}
			return struct{}{}, dev.SendDim(level)
		})
	if err != nil {
		return err
	}

	if level == 0 {
		fmt.Println("Light turned off")
	} else {
		fmt.Printf("Light set to %d%%\n", level)
	}
	return nil
}
