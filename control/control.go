// Package control runs operations against a single hood with the
// connection lifecycle managed automatically.
package control

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elupus/fjaraskupan-go/hood"
)

// ProgressCallback is called when the operation phase changes
type ProgressCallback func(phase string)

// Options defines options for a device session
type Options struct {
	ConnectTimeout  time.Duration
	DisconnectDelay time.Duration
	Keycode         []byte
}

// Callback processes a connected hood and produces output of type R
type Callback[R any] func(*hood.Device) (R, error)

// NewDevice creates device handles. Tests replace it with a factory that
// injects a fake transport.
var NewDevice = hood.NewDevice

// WithDevice connects to the hood at address, executes the callback with the
// connected handle, and releases the connection afterwards. The callback
// receives the connected device and can return any result type R along with
// an error. An optional progressCallback reports connection progress.
func WithDevice[R any](ctx context.Context, address string, opts *Options, logger *logrus.Logger, progressCallback ProgressCallback, callback Callback[R]) (R, error) {
	var zero R
	if opts == nil {
		opts = &Options{ConnectTimeout: hood.DefaultConnectTimeout}
	}
	if logger == nil {
		logger = logrus.New()
	}
	if progressCallback == nil {
		progressCallback = func(string) {} // No-op callback
	}

	deviceOpts := []hood.Option{
		hood.WithLogger(logger),
		hood.WithDisconnectDelay(opts.DisconnectDelay),
	}
	if opts.ConnectTimeout > 0 {
		deviceOpts = append(deviceOpts, hood.WithConnectTimeout(opts.ConnectTimeout))
	}
	if len(opts.Keycode) > 0 {
		deviceOpts = append(deviceOpts, hood.WithKeycode(opts.Keycode))
	}

	dev := NewDevice(address, deviceOpts...)

	progressCallback("Connecting")

	release, err := dev.Connect(ctx)
	if err != nil {
		progressCallback("Failed")
		return zero, err
	}
	progressCallback("Connected")

	defer func() {
		release()
		if err := dev.Close(); err != nil {
			logger.WithError(err).Error("failed to disconnect device")
		}
	}()

	progressCallback("Processing results")

	return callback(dev)
}
