package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanCmd_ArgumentValidation(t *testing.T) {
	// GOAL: Verify fan command rejects bad arguments before touching the radio
	//
	// TEST SCENARIO: Missing args, non-numeric and out-of-range speeds → errors

	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: []string{"fan"}},
		{name: "missing speed", args: []string{"fan", "AA:BB:CC:DD:EE:FF"}},
		{name: "non-numeric speed", args: []string{"fan", "AA:BB:CC:DD:EE:FF", "fast"}},
		{name: "speed too high", args: []string{"fan", "AA:BB:CC:DD:EE:FF", "9"}},
		{name: "negative speed", args: []string{"fan", "AA:BB:CC:DD:EE:FF", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.AddCommand(fanCmd)

			_, err := executeCommand(cmd, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestFanCmd_Help(t *testing.T) {
	// GOAL: Verify fan command documents its argument range
	//
	// TEST SCENARIO: Execute fan --help → output explains speed 0 stops the fan

	cmd := &cobra.Command{}
	cmd.AddCommand(fanCmd)

	output, err := executeCommand(cmd, "fan", "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "0 to 8")
	assert.Contains(t, output, "stops the fan")
}
