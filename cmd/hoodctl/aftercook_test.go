package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterCookCmd_ArgumentValidation(t *testing.T) {
	// GOAL: Verify aftercook command rejects unknown modes before touching the radio
	//
	// TEST SCENARIO: Missing args, unknown modes and out-of-range strengths → errors

	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: []string{"aftercook"}},
		{name: "missing mode", args: []string{"aftercook", "AA:BB:CC:DD:EE:FF"}},
		{name: "unknown mode", args: []string{"aftercook", "AA:BB:CC:DD:EE:FF", "maybe"}},
		{name: "strength too high", args: []string{"aftercook", "AA:BB:CC:DD:EE:FF", "9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.AddCommand(aftercookCmd)

			_, err := executeCommand(cmd, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestAfterCookCmd_UnknownModeMessage(t *testing.T) {
	// GOAL: Verify the error for an unknown mode names the accepted values
	//
	// TEST SCENARIO: Execute with mode "maybe" → error lists on, auto, off and range

	cmd := &cobra.Command{}
	cmd.AddCommand(aftercookCmd)

	_, err := executeCommand(cmd, "aftercook", "AA:BB:CC:DD:EE:FF", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be on, auto, off or a strength")
}

func TestAfterCookCmd_Help(t *testing.T) {
	// GOAL: Verify aftercook command documents its modes
	//
	// TEST SCENARIO: Execute aftercook --help → output lists each mode

	cmd := &cobra.Command{}
	cmd.AddCommand(aftercookCmd)

	output, err := executeCommand(cmd, "aftercook", "--help")
	require.NoError(t, err)
	for _, mode := range []string{"on", "auto", "off", "strength"} {
		assert.Contains(t, output, mode)
	}
}
