package goble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCharacteristic_RejectsBadUUIDs(t *testing.T) {
	// GOAL: Verify characteristic lookup validates its UUIDs before touching
	// the discovered GATT tree
	//
	// TEST SCENARIO: Empty service or characteristic UUID → validation error

	c := &Client{}

	_, err := c.GetCharacteristic("", "68ecc82c-928d-4af0-aa60-0d578ffb35f7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")

	_, err = c.GetCharacteristic("77a2bd49-1e5a-4961-bba1-21f34fa4bc7b", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestSubscribe_RejectsBadUUIDs(t *testing.T) {
	// GOAL: Verify subscribe goes through the same UUID validation as lookup
	//
	// TEST SCENARIO: Empty UUIDs → validation error before any backend call

	c := &Client{}

	err := c.Subscribe("", "", func([]byte) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}
