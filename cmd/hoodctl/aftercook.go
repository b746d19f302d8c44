package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/elupus/fjaraskupan-go/control"
	"github.com/elupus/fjaraskupan-go/hood"
)

// aftercookCmd represents the aftercook command
var aftercookCmd = &cobra.Command{
	Use:   "aftercook <address> <on|auto|off|strength>",
	Short: "Control the after-cooking fan run",
	Long: `Control the after-cooking fan run, which keeps the fan running for a
while after cooking is done.

Modes:
  on        start a manual after-cooking run
  auto      start an automatic after-cooking run (stops the fan first)
  off       cancel the after-cooking run
  strength  a number from 0 to 8 setting the manual run fan strength`,
	Args: cobra.ExactArgs(2),
	RunE: runAfterCook,
}

func runAfterCook(cmd *cobra.Command, args []string) error {
	address := args[0]
	mode := args[1]

	// Resolve the mode up front so range errors surface before connecting
	var action func(*hood.Device) error
	var message string
	switch mode {
	case "on":
		action = func(dev *hood.Device) error { return dev.SendCommand(hood.CommandAfterCookingManual) }
		message = "After-cooking run started"
	case "auto":
		action = func(dev *hood.Device) error { return dev.SendCommand(hood.CommandAfterCookingAuto) }
		message = "Automatic after-cooking run started"
	case "off":
		action = func(dev *hood.Device) error { return dev.SendCommand(hood.CommandAfterCookingOff) }
		message = "After-cooking run cancelled"
	default:
		strength, err := strconv.Atoi(mode)
		if err != nil {
			return fmt.Errorf("invalid mode %q: must be on, auto, off or a strength between 0 and %d", mode, hood.MaxFanSpeed)
		}
		if _, err := hood.FormatAfterCookingStrength(strength); err != nil {
			return err
		}
		action = func(dev *hood.Device) error { return dev.SendAfterCooking(strength) }
		message = fmt.Sprintf("After-cooking strength set to %d", strength)
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

	progress := NewProgressPrinter("Configuring after-cooking", "Connecting", "Processing results", "Failed")
	progress.Start()
	defer progress.Stop()

	_, err = control.WithDevice(ctx, address, sessionOptions(cfg), logger, progress.Callback(),
		func(dev *hood.Device) (struct{}, error) {
			return struct{}{}, action(dev)
		})
	if err != nil {
		return err
	}

	fmt.Println(message)
	return nil
}
