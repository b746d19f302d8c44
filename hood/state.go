package hood

import (
	"bytes"
	"fmt"
	"strconv"
)

// State is a snapshot of everything a hood reports about itself
type State struct {
	LightOn               bool `json:"light_on"`
	AfterCookingFanSpeed  int  `json:"after_cooking_fan_speed"`
	AfterCookingOn        bool `json:"after_cooking_on"`
	CarbonFilterAvailable bool `json:"carbon_filter_available"`
	FanSpeed              int  `json:"fan_speed"`
	GreaseFilterFull      bool `json:"grease_filter_full"`
	CarbonFilterFull      bool `json:"carbon_filter_full"`
	DimLevel              int  `json:"dim_level"`
	PeriodicVenting       int  `json:"periodic_venting"`
	PeriodicVentingOn     bool `json:"periodic_venting_on"`
	RSSI                  int  `json:"rssi"`
}

// characteristicPayloadLength is keycode (4) + status fields (11)
const characteristicPayloadLength = 15

// manufacturerDataLength is the announce prefix (8) + status fields (7)
const manufacturerDataLength = 15

// UpdateFromCharacteristic returns a copy of s updated from a TX
// characteristic payload. The payload is ASCII positional and still carries
// the keycode prefix; callers are expected to have verified it.
func (s State) UpdateFromCharacteristic(data []byte) (State, error) {
	if len(data) < characteristicPayloadLength {
		return s, fmt.Errorf("characteristic payload too short: %d bytes", len(data))
	}

	fanSpeed, err := strconv.Atoi(string(data[4:5]))
	if err != nil {
		return s, fmt.Errorf("invalid fan speed field %q: %w", data[4:5], err)
	}
	dimLevel, err := strconv.Atoi(string(data[10:13]))
	if err != nil {
		return s, fmt.Errorf("invalid dim level field %q: %w", data[10:13], err)
	}
	periodicVenting, err := strconv.Atoi(string(data[13:15]))
	if err != nil {
		return s, fmt.Errorf("invalid periodic venting field %q: %w", data[13:15], err)
	}

	s.FanSpeed = fanSpeed
	s.LightOn = data[5] == 'L'
	s.AfterCookingOn = data[6] == 'N'
	s.CarbonFilterAvailable = data[7] == 'C'
	s.GreaseFilterFull = data[8] == 'F'
	s.CarbonFilterFull = data[9] == 'K'
	s.DimLevel = rangeCheckDim(dimLevel, s.DimLevel)
	s.PeriodicVenting = rangeCheckPeriod(periodicVenting, s.PeriodicVenting)
	return s, nil
}

// UpdateFromManufacturerData returns a copy of s updated from broadcast
// manufacturer data, including the full announce prefix.
func (s State) UpdateFromManufacturerData(data []byte) (State, error) {
	if !HasAnnouncePrefix(data) {
		return s, fmt.Errorf("missing announce prefix in manufacturer data %q", data)
	}
	if len(data) < manufacturerDataLength {
		return s, fmt.Errorf("manufacturer data too short: %d bytes", len(data))
	}

	lightOn := bitTest(data[10], 0)
	dimLevel := rangeCheckDim(int(data[13]), s.DimLevel)
	// Some firmwares briefly report the light as on while dimming down to
	// off. Suppress the transition when the dim level dropped at the same
	// time.
	if lightOn && !s.LightOn && dimLevel < s.DimLevel {
		lightOn = false
	}

	s.FanSpeed = int(data[8])
	s.AfterCookingFanSpeed = int(data[9])
	s.LightOn = lightOn
	s.AfterCookingOn = bitTest(data[10], 1)
	s.PeriodicVentingOn = bitTest(data[10], 2)
	s.GreaseFilterFull = bitTest(data[11], 0)
	s.CarbonFilterFull = bitTest(data[11], 1)
	s.CarbonFilterAvailable = bitTest(data[11], 2)
	s.DimLevel = dimLevel
	s.PeriodicVenting = rangeCheckPeriod(int(data[14]), s.PeriodicVenting)
	return s, nil
}

// HasAnnouncePrefix reports whether data is a hood broadcast
func HasAnnouncePrefix(data []byte) bool {
	return bytes.HasPrefix(data, AnnouncePrefix)
}

func rangeCheckDim(value int, fallback int) int {
	if value >= 0 && value <= MaxDimLevel {
		return value
	}
	return fallback
}

func rangeCheckPeriod(value int, fallback int) int {
	if value >= 0 && value <= MaxPeriodicVenting {
		return value
	}
	return fallback
}

func bitTest(data byte, bit uint) bool {
	return data&(1<<bit) != 0
}
