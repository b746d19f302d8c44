package hood

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFanSpeed(t *testing.T) {
	// GOAL: Verify fan speed commands format correctly and speed 0 maps to the stop command
	//
	// TEST SCENARIO: Format speeds 0..8 → speed 0 yields Luft-Aus, others yield -Luft-N-

	cmd, err := FormatFanSpeed(0)
	require.NoError(t, err)
	assert.Equal(t, CommandStopFan, cmd, "speed 0 MUST map to the stop command")

	for speed := 1; speed <= MaxFanSpeed; speed++ {
		cmd, err := FormatFanSpeed(speed)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("-Luft-%d-", speed), cmd)
	}

	_, err = FormatFanSpeed(-1)
	assert.Error(t, err, "negative speed MUST be rejected")
	_, err = FormatFanSpeed(9)
	assert.Error(t, err, "speed above maximum MUST be rejected")
}

func TestFormatDim(t *testing.T) {
	// GOAL: Verify dim commands use a zero-padded three digit level
	//
	// TEST SCENARIO: Format levels across the range → -DimNNN-, out of range rejected

	tests := []struct {
		level    int
		expected string
	}{
		{0, "-Dim000-"},
		{5, "-Dim005-"},
		{50, "-Dim050-"},
		{100, "-Dim100-"},
	}
	for _, tt := range tests {
		cmd, err := FormatDim(tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, cmd)
	}

	_, err := FormatDim(-1)
	assert.Error(t, err)
	_, err = FormatDim(101)
	assert.Error(t, err)
}

func TestFormatPeriodicVenting(t *testing.T) {
	// GOAL: Verify periodic venting commands use a zero-padded two digit interval
	//
	// TEST SCENARIO: Format intervals across the range → PeriodNN, out of range rejected

	tests := []struct {
		minutes  int
		expected string
	}{
		{0, "Period00"},
		{7, "Period07"},
		{59, "Period59"},
	}
	for _, tt := range tests {
		cmd, err := FormatPeriodicVenting(tt.minutes)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, cmd)
	}

	_, err := FormatPeriodicVenting(-1)
	assert.Error(t, err)
	_, err = FormatPeriodicVenting(60)
	assert.Error(t, err)
}

func TestFormatAfterCookingStrength(t *testing.T) {
	// GOAL: Verify after-cooking strength commands format correctly
	//
	// TEST SCENARIO: Format strengths across the range → Nachla-N, out of range rejected

	cmd, err := FormatAfterCookingStrength(0)
	require.NoError(t, err)
	assert.Equal(t, "Nachla-0", cmd)

	cmd, err = FormatAfterCookingStrength(8)
	require.NoError(t, err)
	assert.Equal(t, "Nachla-8", cmd)

	_, err = FormatAfterCookingStrength(9)
	assert.Error(t, err)
}

func TestCommandLength(t *testing.T) {
	// GOAL: Verify every command the device accepts is exactly eight ASCII bytes
	//
	// TEST SCENARIO: Collect fixed commands and formatted commands across their
	// ranges → all have the wire length

	commands := []string{
		CommandStopFan,
		CommandLightOnOff,
		CommandResetGreaseFilter,
		CommandResetCharcoalFilter,
		CommandAfterCookingManual,
		CommandAfterCookingAuto,
		CommandAfterCookingOff,
		CommandActivateCarbonFilter,
	}
	for speed := 0; speed <= MaxFanSpeed; speed++ {
		cmd, err := FormatFanSpeed(speed)
		require.NoError(t, err)
		commands = append(commands, cmd)

		cmd, err = FormatAfterCookingStrength(speed)
		require.NoError(t, err)
		commands = append(commands, cmd)
	}
	for level := 0; level <= MaxDimLevel; level++ {
		cmd, err := FormatDim(level)
		require.NoError(t, err)
		commands = append(commands, cmd)
	}
	for minutes := 0; minutes <= MaxPeriodicVenting; minutes++ {
		cmd, err := FormatPeriodicVenting(minutes)
		require.NoError(t, err)
		commands = append(commands, cmd)
	}

	for _, cmd := range commands {
		assert.Len(t, cmd, CommandLength, "command %q MUST be %d bytes", cmd, CommandLength)
	}
}

func TestRangeError(t *testing.T) {
	// GOAL: Verify range errors carry the offending parameter and bounds
	//
	// TEST SCENARIO: Trigger a range error → message names parameter, value and range

	_, err := FormatFanSpeed(12)
	require.Error(t, err)

	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "fan speed", rangeErr.Param)
	assert.Equal(t, 12, rangeErr.Value)
	assert.Equal(t, "fan speed 12 out of range 0..8", err.Error())
}
