// Package scanner discovers Fjäråskupan hoods over BLE. Discovered devices
// are tracked in a concurrent registry and exposed both as a final snapshot
// and as a live event stream with drop-oldest semantics.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"

	"github.com/elupus/fjaraskupan-go/hood"
	"github.com/elupus/fjaraskupan-go/internal/device"
	"github.com/elupus/fjaraskupan-go/internal/device/goble"
	"github.com/elupus/fjaraskupan-go/internal/ringchan"
)

// BackendFactory creates the BLE scanning backend (overridden in tests)
var BackendFactory = func() (device.Scanner, error) {
	return goble.NewScanner()
}

// ProgressCallback is called when the scan phase changes
type ProgressCallback func(phase string)

// DeviceEventType marks if the device was newly discovered or updated
type DeviceEventType int

const (
	EventNew DeviceEventType = iota
	EventUpdated
)

// DeviceInfo is a snapshot of a discovered hood
type DeviceInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	RSSI        int        `json:"rssi"`
	Connectable bool       `json:"connectable"`
	Services    []string   `json:"services,omitempty"`
	State       hood.State `json:"state"`
	IsHood      bool       `json:"is_hood"`
}

// DeviceEntry pairs a device snapshot with the time it was last seen
type DeviceEntry struct {
	Device   DeviceInfo
	LastSeen time.Time
}

// DeviceEvent reports a discovery or an update of a tracked device
type DeviceEvent struct {
	Type      DeviceEventType
	Device    DeviceInfo
	Timestamp time.Time
}

// ScanOptions configures scanning behavior
type ScanOptions struct {
	Duration        time.Duration
	DuplicateFilter bool
	All             bool // include devices that do not match the hood signature
	AllowList       []string
}

// DefaultScanOptions returns default scanning options
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		Duration:        10 * time.Second,
		DuplicateFilter: false,
	}
}

// Scanner handles hood discovery
type Scanner struct {
	devices *hashmap.Map[string, *DeviceEntry]
	events  *ringchan.RingChannel[DeviceEvent]
	logger  *logrus.Logger

	scanOptions *ScanOptions
}

// NewScanner creates a new hood scanner
func NewScanner(logger *logrus.Logger) (*Scanner, error) {
	if logger == nil {
		logger = logrus.New()
	}

	return &Scanner{
		events: ringchan.New[DeviceEvent](100),
		logger: logger,
	}, nil
}

// Scan performs BLE discovery with the provided options and returns the
// devices seen, keyed by address.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions, progressCallback ProgressCallback) (map[string]DeviceEntry, error) {
	s.devices = hashmap.New[string, *DeviceEntry]()

	if opts == nil {
		opts = DefaultScanOptions()
	}
	if progressCallback == nil {
		progressCallback = func(string) {} // No-op callback
	}

	s.logger.WithField("duration", opts.Duration).Info("Starting BLE scan...")
	progressCallback("Scanning")

	backend, err := BackendFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE scanner: %w", err)
	}

	s.scanOptions = opts
	defer func() {
		s.scanOptions = nil
	}()

	scanCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	err = backend.Scan(scanCtx, !opts.DuplicateFilter, s.handleAdvertisement)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	s.logger.WithField("device_count", s.devices.Len()).Info("BLE scan completed")
	progressCallback("Processing results")

	devices := make(map[string]DeviceEntry, s.devices.Len())
	s.devices.Range(func(key string, value *DeviceEntry) bool {
		devices[key] = *value
		return true
	})

	return devices, nil
}

// handleAdvertisement updates an existing entry or adds a new device
func (s *Scanner) handleAdvertisement(adv device.Advertisement) {
	if !s.shouldIncludeDevice(adv, s.scanOptions) {
		return
	}

	address := adv.Addr()
	now := time.Now()

	entry, existing := s.devices.Get(address)
	if !existing {
		entry, existing = s.devices.GetOrInsert(address, &DeviceEntry{})
	}

	info := snapshotFromAdvertisement(adv, entry.Device.State)
	entry.Device = info
	entry.LastSeen = now

	event := DeviceEvent{
		Device:    info,
		Timestamp: now,
	}

	if existing {
		event.Type = EventUpdated
	} else {
		s.logger.WithFields(logrus.Fields{
			"device":  info.Name,
			"address": info.Address,
			"rssi":    info.RSSI,
		}).Info("Discovered new device")
		event.Type = EventNew
	}

	s.events.Send(event)
}

// snapshotFromAdvertisement builds a DeviceInfo, carrying the previously
// parsed state forward so range-check fallbacks keep working.
func snapshotFromAdvertisement(adv device.Advertisement, prev hood.State) DeviceInfo {
	isHood := hood.DeviceFilter(adv)

	state := prev
	if isHood {
		if updated, err := prev.UpdateFromManufacturerData(adv.ManufacturerData()); err == nil {
			state = updated
		}
		state.RSSI = adv.RSSI()
	}

	return DeviceInfo{
		Address:     adv.Addr(),
		Name:        adv.LocalName(),
		RSSI:        adv.RSSI(),
		Connectable: adv.Connectable(),
		Services:    device.NormalizeUUIDs(adv.Services()),
		State:       state,
		IsHood:      isHood,
	}
}

// shouldIncludeDevice applies the hood signature and allow filters
func (s *Scanner) shouldIncludeDevice(adv device.Advertisement, opts *ScanOptions) bool {
	if opts == nil {
		return true
	}

	if len(opts.AllowList) > 0 {
		allowed := false
		for _, a := range opts.AllowList {
			if adv.Addr() == a {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if !opts.All && !hood.DeviceFilter(adv) {
		return false
	}

	return true
}

// Events returns a read-only channel of device events
func (s *Scanner) Events() <-chan DeviceEvent {
	return s.events.C()
}
