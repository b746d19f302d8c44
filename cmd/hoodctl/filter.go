package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elupus/fjaraskupan-go/control"
	"github.com/elupus/fjaraskupan-go/hood"
)

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter <address> <reset-grease|reset-charcoal|enable-carbon>",
	Short: "Manage filter reminders",
	Long: `Manage the hood filter reminders.

Actions:
  reset-grease    reset the grease filter cleaning reminder
  reset-charcoal  reset the charcoal filter replacement reminder
  enable-carbon   tell the hood a carbon filter is installed`,
	Args: cobra.ExactArgs(2),
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	address := args[0]

	var command, message string
	switch args[1] {
	case "reset-grease":
		command = hood.CommandResetGreaseFilter
		message = "Grease filter reminder reset"
	case "reset-charcoal":
		command = hood.CommandResetCharcoalFilter
		message = "Charcoal filter reminder reset"
	case "enable-carbon":
		command = hood.CommandActivateCarbonFilter
		message = "Carbon filter enabled"
	default:
		return fmt.Errorf("invalid action %q: must be reset-grease, reset-charcoal or enable-carbon", args[1])
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

	progress := NewProgressPrinter("Updating filter settings", "Connecting", "Processing results", "Failed")
	progress.Start()
	defer progress.Stop()

	_, err = control.WithDevice(ctx, address, sessionOptions(cfg), logger, progress.Callback(),
		func(dev *hood.Device) (struct{}, error) {
			return struct{}{}, dev.SendCommand(command)
		})
	if err != nil {
		return err
	}

	fmt.Println(message)
	return nil
}
