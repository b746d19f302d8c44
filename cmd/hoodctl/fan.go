package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/elupus/fjaraskupan-go/control"
	"github.com/elupus/fjaraskupan-go/hood"
)

// fanCmd represents the fan command
var fanCmd = &cobra.Command{
	Use:   "fan <address> <speed>",
	Short: "Set fan speed",
	Long: `Set the hood fan speed.

Speed ranges from 0 to 8, where 0 stops the fan entirely.`,
	Args: cobra.ExactArgs(2),
	RunE: runFan,
}

func runFan(cmd *cobra.Command, args []string) error {
	address := args[0]
	speed, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid fan speed %q: must be a number between 0 and %d", args[1], hood.MaxFanSpeed)
	}
	// Validate the range before connecting
	if _, err := hood.FormatFanSpeed(speed); err != nil {
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

	progress := NewProgressPrinter(fmt.Sprintf("Setting fan speed to %d", speed), "Connecting", "Processing results", "Failed")
	progress.Start()
	defer progress.Stop()

	_, err = control.WithDevice(ctx, address, sessionOptions(cfg), logger, progress.Callback(),
		func(dev *hood.Device) (struct{}, error) {
			return struct{}{}, dev.SendFanSpeed(speed)
		})
	if err != nil {
		return err
	}

	if speed == 0 {
		fmt.Println("Fan stopped")
	} else {
		fmt.Printf("Fan speed set to %d\n", speed)
	}
	return nil
}
