package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elupus/fjaraskupan-go/control"
	"github.com/elupus/fjaraskupan-go/hood"
	"github.com/elupus/fjaraskupan-go/pkg/config"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <address>",
	Short: "Show hood state",
	Long: `Connect to a hood and display its current state.

With --monitor the connection stays open and state changes are printed as
the hood reports them, until interrupted with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

var (
	statusFormat  string
	statusMonitor bool
)

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "", "Output format (table, json)")
	statusCmd.Flags().BoolVarP(&statusMonitor, "monitor", "m", false, "Keep the connection open and print state changes")
}

func runStatus(cmd *cobra.Command, args []string) error {
	address := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if statusFormat != "" {
		cfg.OutputFormat = statusFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := configureLogger(cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	// Monitor mode runs until interrupted, so only bound the connect phase
	timeout := cfg.ConnectTimeout
	if statusMonitor {
		timeout = 0
	}
	ctx, cleanup := commandContext(timeout)
	defer cleanup()

	progress := NewProgressPrinter("Reading hood state", "Connecting", "Processing results", "Failed")
	progress.Start()
	defer progress.Stop()

	if statusMonitor {
		return runMonitor(ctx, address, cfg, logger, progress)
	}

	state, err := control.WithDevice(ctx, address, sessionOptions(cfg), logger, progress.Callback(),
		func(dev *hood.Device) (hood.State, error) {
			return dev.Update()
		})
	if err != nil {
		return err
	}
	return displayState(state, cfg.OutputFormat)
}

func runMonitor(ctx context.Context, address string, cfg *config.Config, logger *logrus.Logger, progress *ProgressPrinter) error {
	_, err := control.WithDevice(ctx, address, sessionOptions(cfg), logger, progress.Callback(),
		func(dev *hood.Device) (struct{}, error) {
			state, err := dev.Update()
			if err != nil {
				return struct{}{}, err
			}
			progress.Stop()
			if err := displayState(state, cfg.OutputFormat); err != nil {
				return struct{}{}, err
			}

			updates := make(chan hood.State, 16)
			if err := dev.SubscribeState(func(s hood.State) {
				select {
				case updates <- s:
				default:
				}
			}); err != nil {
				return struct{}{}, err
			}

			for {
				select {
				case <-ctx.Done():
					return struct{}{}, nil
				case <-dev.Disconnected():
					fmt.Println("Device disconnected")
					return struct{}{}, nil
				case s := <-updates:
					fmt.Printf("--- %s ---\n", time.Now().Format(time.RFC3339))
					if err := displayState(s, cfg.OutputFormat); err != nil {
						return struct{}{}, err
					}
				}
			}
		})
	return err
}

func displayState(state hood.State, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(state)
	}
	return displayStateTable(state)
}

func displayStateTable(state hood.State) error {
	on := color.New(color.FgGreen).Sprint("on")
	off := color.New(color.FgRed).Sprint("off")
	onOff := func(b bool) string {
		if b {
			return on
		}
		return off
	}
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}

	var base io.Writer = os.Stdout
	w := tabwriter.NewWriter(base, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Fan speed\t%d\n", state.FanSpeed)
	fmt.Fprintf(w, "Light\t%s\n", onOff(state.LightOn))
	fmt.Fprintf(w, "Light level\t%d%%\n", state.DimLevel)
	fmt.Fprintf(w, "After cooking\t%s\n", onOff(state.AfterCookingOn))
	fmt.Fprintf(w, "After cooking strength\t%d\n", state.AfterCookingFanSpeed)
	fmt.Fprintf(w, "Periodic venting\t%s\n", onOff(state.PeriodicVentingOn))
	fmt.Fprintf(w, "Periodic venting interval\t%dm\n", state.PeriodicVenting)
	fmt.Fprintf(w, "Grease filter full\t%s\n", yesNo(state.GreaseFilterFull))
	fmt.Fprintf(w, "Carbon filter full\t%s\n", yesNo(state.CarbonFilterFull))
	fmt.Fprintf(w, "Carbon filter available\t%s\n", yesNo(state.CarbonFilterAvailable))
	if state.RSSI != 0 {
		fmt.Fprintf(w, "RSSI\t%d dBm\n", state.RSSI)
	}
	return w.Flush()
}
