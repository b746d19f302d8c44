package hood

import (
	"encoding/binary"
	"fmt"
)

// GATT identity of the hood's control service
const (
	ServiceUUID          = "77a2bd49-1e5a-4961-bba1-21f34fa4bc7b"
	CharacteristicRX     = "23123e0a-1ad6-43a6-96ac-06f57995330d"
	CharacteristicTX     = "68ecc82c-928d-4af0-aa60-0d578ffb35f7"
	CharacteristicConfig = "3e06fdc2-f432-404f-b321-dfa909f5c12c"
)

// DeviceName is the advertised local name of the hood
const DeviceName = "COOKERHOOD_FJAR"

// AnnouncePrefix starts every manufacturer data broadcast. The first two
// bytes double as the (unregistered) company identifier.
var AnnouncePrefix = []byte("HOODFJAR")

// CompanyID is the manufacturer identifier derived from the announce prefix
var CompanyID = binary.LittleEndian.Uint16(AnnouncePrefix[0:2])

// CommandLength is the fixed length of every command string, excluding the keycode
const CommandLength = 8

// DefaultKeycode is the factory keycode prefixed to every command
var DefaultKeycode = []byte("1234")

// Fixed commands
const (
	CommandStopFan              = "Luft-Aus"
	CommandLightOnOff           = "Kochfeld"
	CommandResetGreaseFilter    = "ResFett-"
	CommandResetCharcoalFilter  = "ResKohle"
	CommandAfterCookingManual   = "Nachlauf"
	CommandAfterCookingAuto     = "NachlAut"
	CommandAfterCookingOff      = "NachlAus"
	CommandActivateCarbonFilter = "coal-ava"
)

// Parameterized command formats
const (
	commandFormatFanSpeed             = "-Luft-%d-"
	commandFormatDim                  = "-Dim%03d-"
	commandFormatPeriodicVenting      = "Period%02d"
	commandFormatAfterCookingStrength = "Nachla-%d"
)

// Value ranges accepted by the device
const (
	MaxFanSpeed        = 8
	MaxDimLevel        = 100
	MaxPeriodicVenting = 59
)

// RangeError reports a command parameter outside the device's accepted range
type RangeError struct {
	Param    string
	Value    int
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range %d..%d", e.Param, e.Value, e.Min, e.Max)
}

// FormatFanSpeed returns the command setting a numbered fan speed.
// Speed 0 maps to the dedicated stop command.
func FormatFanSpeed(speed int) (string, error) {
	if speed < 0 || speed > MaxFanSpeed {
		return "", &RangeError{Param: "fan speed", Value: speed, Min: 0, Max: MaxFanSpeed}
	}
	if speed == 0 {
		return CommandStopFan, nil
	}
	return fmt.Sprintf(commandFormatFanSpeed, speed), nil
}

// FormatDim returns the command dimming the light to a percentage
func FormatDim(level int) (string, error) {
	if level < 0 || level > MaxDimLevel {
		return "", &RangeError{Param: "dim level", Value: level, Min: 0, Max: MaxDimLevel}
	}
	return fmt.Sprintf(commandFormatDim, level), nil
}

// FormatPeriodicVenting returns the command setting the periodic venting
// interval in minutes. 0 disables periodic venting.
func FormatPeriodicVenting(minutes int) (string, error) {
	if minutes < 0 || minutes > MaxPeriodicVenting {
		return "", &RangeError{Param: "periodic venting", Value: minutes, Min: 0, Max: MaxPeriodicVenting}
	}
	return fmt.Sprintf(commandFormatPeriodicVenting, minutes), nil
}

// FormatAfterCookingStrength returns the command setting the manual
// after-cooking fan strength.
func FormatAfterCookingStrength(speed int) (string, error) {
	if speed < 0 || speed > MaxFanSpeed {
		return "", &RangeError{Param: "after cooking strength", Value: speed, Min: 0, Max: MaxFanSpeed}
	}
	return fmt.Sprintf(commandFormatAfterCookingStrength, speed), nil
}
