package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/elupus/fjaraskupan-go/internal/device"
)

// FormatUserError converts low-level errors into messages suitable for
// terminal output. Unrecognized errors pass through unchanged.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off. Enable Bluetooth and try again."
	case errors.Is(err, device.ErrNotConnected):
		return "Device is not connected. It may be out of range or powered off."
	case errors.Is(err, device.ErrAlreadyConnected):
		return "Device is already connected by another process."
	case errors.Is(err, device.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "Operation timed out. The hood may be out of range - move closer and try again."
	}

	var notFound *device.NotFoundError
	if errors.As(err, &notFound) {
		return fmt.Sprintf("%s. Verify the address with 'hoodctl scan'.", notFound.Error())
	}

	return err.Error()
}
