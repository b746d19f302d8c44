package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elupus/fjaraskupan-go/pkg/config"
	"github.com/elupus/fjaraskupan-go/scanner"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for kitchen hoods",
	Long: `Scan for and display Fjäråskupan kitchen hoods in the vicinity.

Hoods announce their full state over BLE advertisements, so the scan also
shows current fan speed, light level and periodic venting without
connecting. Use --all to list every BLE device seen, not just hoods.`,
	RunE: runScan,
}

var (
	scanDuration    time.Duration
	scanFormat      string
	scanAll         bool
	scanAllowList   []string
	scanNoDuplicate bool
	scanWatch       bool
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 0, "Scan duration (0 uses the configured default)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "", "Output format (table, json)")
	scanCmd.Flags().BoolVarP(&scanAll, "all", "a", false, "Show all BLE devices, not just hoods")
	scanCmd.Flags().StringSliceVar(&scanAllowList, "allow", nil, "Only show devices with these addresses")
	scanCmd.Flags().BoolVar(&scanNoDuplicate, "no-duplicates", false, "Filter duplicate advertisements (disables live state updates)")
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "Continuously scan and update results")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if scanFormat != "" {
		cfg.OutputFormat = scanFormat
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

	duration := cfg.ScanDuration
	if scanDuration > 0 {
		duration = scanDuration
	}
	// Watch mode scans until interrupted unless a duration was given
	if scanWatch && scanDuration == 0 {
		duration = 0
	}

	s, err := scanner.NewScanner(logger)
	if err != nil {
		return fmt.Errorf("failed to create BLE scanner: %w", err)
	}

	opts := &scanner.ScanOptions{
		Duration:        duration,
		DuplicateFilter: scanNoDuplicate,
		All:             scanAll,
		AllowList:       scanAllowList,
	}

	if scanWatch {
		return runWatchMode(s, opts, cfg, logger)
	}
	return runSingleScan(s, opts, cfg, logger)
}

func runSingleScan(s *scanner.Scanner, opts *scanner.ScanOptions, cfg *config.Config, logger *logrus.Logger) error {
	ctx, cleanup := commandContext(0) // scanner applies its own duration timeout
	defer cleanup()

	progress := NewCountdownProgressPrinter("Scanning for hoods", "Scanning", opts.Duration, "Processing results")
	progress.Start()
	defer progress.Stop()

	devices, err := s.Scan(ctx, opts, progress.Callback())
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("scan failed")
		return err
	}
	return displayDevices(devices, cfg.OutputFormat)
}

func runWatchMode(s *scanner.Scanner, opts *scanner.ScanOptions, cfg *config.Config, logger *logrus.Logger) error {
	ctx, cleanup := commandContext(0)
	defer cleanup()

	// The select loop below is the sole owner of this map. The scan goroutine
	// hands its final snapshot over the channel instead of touching it.
	devices := make(map[string]scanner.DeviceEntry)

	type scanResult struct {
		devices map[string]scanner.DeviceEntry
		err     error
	}
	scanDone := make(chan scanResult, 1)
	go func() {
		final, err := s.Scan(ctx, opts, nil)
		scanDone <- scanResult{devices: final, err: err}
	}()

	redraw := func() error {
		clearScreen()
		return displayDevices(devices, cfg.OutputFormat)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return redraw()

		case res := <-scanDone:
			for addr, entry := range res.devices {
				if _, seen := devices[addr]; !seen {
					devices[addr] = entry
				}
			}
			if res.err != nil && !errors.Is(res.err, context.Canceled) {
				logger.WithError(res.err).Error("scan failed")
				return res.err
			}
			return redraw()

		case <-ticker.C:
			if err := redraw(); err != nil {
				return err
			}

		case ev := <-s.Events():
			devices[ev.Device.Address] = scanner.DeviceEntry{
				Device:   ev.Device,
				LastSeen: ev.Timestamp,
			}
		}
	}
}

func displayDevices(devices map[string]scanner.DeviceEntry, format string) error {
	if len(devices) == 0 {
		fmt.Println("No devices discovered")
		return nil
	}

	entries := make([]scanner.DeviceEntry, 0, len(devices))
	for _, e := range devices {
		entries = append(entries, e)
	}
	// Hoods first, then by name
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Device, entries[j].Device
		if a.IsHood != b.IsHood {
			return a.IsHood
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Address < b.Address
	})

	if format == "json" {
		infos := make([]scanner.DeviceInfo, len(entries))
		for i, e := range entries {
			infos[i] = e.Device
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	}
	return displayDeviceTable(entries)
}

func displayDeviceTable(entries []scanner.DeviceEntry) error {
	hoodName := color.New(color.FgGreen)

	var base io.Writer = os.Stdout
	w := tabwriter.NewWriter(base, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRSSI\tSPEED\tLIGHT\tVENTING\tLAST SEEN")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, e := range entries {
		dev := e.Device
		name := dev.Name
		if name == "" {
			name = "(unknown)"
		}
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		if dev.IsHood {
			name = hoodName.Sprint(name)
		}

		speed, light, venting := "-", "-", "-"
		if dev.IsHood {
			speed = fmt.Sprintf("%d", dev.State.FanSpeed)
			light = formatLight(dev.State.LightOn, dev.State.DimLevel)
			venting = formatVenting(dev.State.PeriodicVentingOn, dev.State.PeriodicVenting)
		}

		lastSeen := time.Since(e.LastSeen).Truncate(time.Second)

		fmt.Fprintf(w, "%s\t%s\t%d dBm\t%s\t%s\t%s\t%s ago\n",
			name, dev.Address, dev.RSSI, speed, light, venting, lastSeen)
	}
	return w.Flush()
}

func formatLight(on bool, dim int) string {
	if !on {
		return "off"
	}
	return fmt.Sprintf("%d%%", dim)
}

func formatVenting(on bool, minutes int) string {
	if !on {
		return "off"
	}
	return fmt.Sprintf("%dm", minutes)
}

func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}
