package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/elupus/fjaraskupan-go/control"
	"github.com/elupus/fjaraskupan-go/hood"
)

// ventingCmd represents the venting command
var ventingCmd = &cobra.Command{
	Use:   "venting <address> <minutes>",
	Short: "Configure periodic venting",
	Long: `Configure the periodic venting interval in minutes.

The hood runs the fan briefly every interval to refresh the air. Minutes
range from 0 to 59, where 0 disables periodic venting.`,
	Args: cobra.ExactArgs(2),
	RunE: runVenting,
}

func runVenting(cmd *cobra.Command, args []string) error {
	address := args[0]
	minutes, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid venting interval %q: must be a number between 0 and %d", args[1], hood.MaxPeriodicVenting)
	}
	// Validate the range before connecting
	if _, err := hood.FormatPeriodicVenting(minutes); err != nil {
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

	progress := NewProgressPrinter("Configuring periodic venting", "Connecting", "Processing results", "Failed")
	progress.Start()
	defer progress.Stop()

	_, err = control.WithDevice(ctx, address, sessionOptions(cfg), logger, progress.Callback(),
		func(dev *hood.Device) (struct{}, error) {
			return struct{}{}, dev.SendPeriodicVenting(minutes)
		})
	if err != nil {
		return err
	}

	if minutes == 0 {
		fmt.Println("Periodic venting disabled")
	} else {
		fmt.Printf("Periodic venting set to %d minutes\n", minutes)
	}
	return nil
}
