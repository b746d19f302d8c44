package hood

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elupus/fjaraskupan-go/internal/device"
	"github.com/elupus/fjaraskupan-go/internal/device/goble"
)

const (
	// DefaultDisconnectDelay keeps the link up briefly after the last
	// scope releases it, so bursts of commands reuse one connection.
	DefaultDisconnectDelay = 5 * time.Second

	// DefaultConnectTimeout bounds dialing plus profile discovery
	DefaultConnectTimeout = 30 * time.Second

	// DefaultWriteTimeout bounds a single command write
	DefaultWriteTimeout = 5 * time.Second
)

// Device is a handle to one hood. It owns at most one underlying BLE link
// and mirrors the device state locally, updating the mirror optimistically
// after each successful write.
//
// All methods are safe for concurrent use; commands serialize on an
// internal mutex so there is a single in-flight command per handle.
type Device struct {
	address string
	keycode []byte
	logger  *logrus.Logger

	dialer          device.Dialer
	connectTimeout  time.Duration
	disconnectDelay time.Duration
	writeTimeout    time.Duration

	mu              sync.Mutex
	state           State
	client          device.Client
	clientCount     int
	disconnectTimer *time.Timer
}

// Option configures a Device handle
type Option func(*Device)

// WithKeycode overrides the factory keycode sent before every command
func WithKeycode(keycode []byte) Option {
	return func(d *Device) { d.keycode = keycode }
}

// WithDisconnectDelay sets how long the link stays up after the last
// connection scope is released. 0 disconnects immediately.
func WithDisconnectDelay(delay time.Duration) Option {
	return func(d *Device) { d.disconnectDelay = delay }
}

// WithConnectTimeout sets the dial timeout
func WithConnectTimeout(timeout time.Duration) Option {
	return func(d *Device) { d.connectTimeout = timeout }
}

// WithLogger sets the logger used by the handle
func WithLogger(logger *logrus.Logger) Option {
	return func(d *Device) { d.logger = logger }
}

// WithDialer replaces the BLE dialer. Used by tests to substitute a fake
// transport.
func WithDialer(dialer device.Dialer) Option {
	return func(d *Device) { d.dialer = dialer }
}

// NewDevice creates a handle for the hood at the given address
func NewDevice(address string, opts ...Option) *Device {
	d := &Device{
		address:         address,
		keycode:         DefaultKeycode,
		logger:          logrus.New(),
		connectTimeout:  DefaultConnectTimeout,
		disconnectDelay: DefaultDisconnectDelay,
		writeTimeout:    DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.dialer == nil {
		logger := d.logger
		d.dialer = func(ctx context.Context, address string, connOpts *device.ConnectOptions) (device.Client, error) {
			return goble.Dial(ctx, address, connOpts, logger)
		}
	}
	return d
}

// Address returns the hardware address this handle controls
func (d *Device) Address() string {
	return d.address
}

// State returns the current state mirror
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Connect acquires the shared link, dialing if no connection exists yet.
// The returned release function must be called when the caller is done;
// the link is torn down (after the configured delay) once the last holder
// releases it. Release is idempotent.
func (d *Device) Connect(ctx context.Context) (release func(), err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disconnectTimer != nil {
		d.disconnectTimer.Stop()
		d.disconnectTimer = nil
	}

	if d.client == nil {
		client, err := d.dialer(ctx, d.address, &device.ConnectOptions{ConnectTimeout: d.connectTimeout})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to hood %s: %w", d.address, err)
		}
		d.client = client
	} else {
		d.logger.WithField("address", d.address).Debug("Connection reused")
	}
	d.clientCount++

	var once sync.Once
	return func() { once.Do(d.release) }, nil
}

func (d *Device) release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.clientCount--
	if d.clientCount > 0 {
		return
	}

	if d.disconnectDelay > 0 {
		d.disconnectTimer = time.AfterFunc(d.disconnectDelay, func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			d.disconnectTimer = nil
			d.disconnectLocked()
		})
		return
	}
	d.disconnectLocked()
}

// Close cancels any pending delayed disconnect and tears down the link
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disconnectTimer != nil {
		d.disconnectTimer.Stop()
		d.disconnectTimer = nil
	}
	return d.disconnectLocked()
}

func (d *Device) disconnectLocked() error {
	if d.client == nil {
		return nil
	}
	d.logger.WithField("address", d.address).Debug("Disconnecting")
	err := d.client.Disconnect()
	d.client = nil
	if err != nil {
		return fmt.Errorf("failed to disconnect from hood %s: %w", d.address, err)
	}
	return nil
}

// SendCommand writes a raw command to the hood. The command must be exactly
// CommandLength ASCII characters; the keycode is prefixed automatically.
func (d *Device) SendCommand(cmd string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendCommandLocked(cmd)
}

func (d *Device) sendCommandLocked(cmd string) error {
	if len(cmd) != CommandLength {
		return fmt.Errorf("command %q must be exactly %d characters", cmd, CommandLength)
	}
	if d.client == nil {
		return device.ErrNotConnected
	}

	char, err := d.client.GetCharacteristic(ServiceUUID, CharacteristicRX)
	if err != nil {
		return err
	}

	payload := make([]byte, 0, len(d.keycode)+len(cmd))
	payload = append(payload, d.keycode...)
	payload = append(payload, cmd...)

	d.logger.WithFields(logrus.Fields{
		"address": d.address,
		"command": cmd,
	}).Debug("Sending command")

	if err := char.Write(payload, true, d.writeTimeout); err != nil {
		return fmt.Errorf("failed to write command %q: %w", cmd, err)
	}

	// Mirror the effect of commands whose outcome is known without a read
	switch cmd {
	case CommandStopFan:
		d.state.FanSpeed = 0
	case CommandLightOnOff:
		d.state.LightOn = !d.state.LightOn
	case CommandAfterCookingManual:
		d.state.AfterCookingOn = true
	case CommandAfterCookingAuto:
		d.state.AfterCookingOn = true
		d.state.AfterCookingFanSpeed = 0
	}
	return nil
}

// SendFanSpeed sets a numbered fan speed. Speed 0 stops the fan.
func (d *Device) SendFanSpeed(speed int) error {
	cmd, err := FormatFanSpeed(speed)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.sendCommandLocked(cmd); err != nil {
		return err
	}
	d.state.FanSpeed = speed
	return nil
}

// SendDim dims the light to a percentage, toggling the light on or off
// first when the target crosses zero.
func (d *Device) SendDim(level int) error {
	cmd, err := FormatDim(level)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.LightOn != (level > 0) {
		if err := d.sendCommandLocked(CommandLightOnOff); err != nil {
			return err
		}
	}
	if err := d.sendCommandLocked(cmd); err != nil {
		return err
	}
	d.state.DimLevel = level
	d.state.LightOn = level > 0
	return nil
}

// SendPeriodicVenting sets the periodic venting interval in minutes
func (d *Device) SendPeriodicVenting(minutes int) error {
	cmd, err := FormatPeriodicVenting(minutes)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.sendCommandLocked(cmd); err != nil {
		return err
	}
	d.state.PeriodicVenting = minutes
	return nil
}

// SendAfterCooking sets the manual after-cooking fan strength
func (d *Device) SendAfterCooking(speed int) error {
	cmd, err := FormatAfterCookingStrength(speed)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.sendCommandLocked(cmd); err != nil {
		return err
	}
	d.state.AfterCookingFanSpeed = speed
	return nil
}

// Update reads the RX characteristic and refreshes the state mirror
func (d *Device) Update() (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return d.state, device.ErrNotConnected
	}

	char, err := d.client.GetCharacteristic(ServiceUUID, CharacteristicRX)
	if err != nil {
		return d.state, err
	}

	data, err := char.Read(d.writeTimeout)
	if err != nil {
		return d.state, fmt.Errorf("failed to update device state: %w", err)
	}

	d.handleCharacteristicLocked(data)
	return d.state, nil
}

// HandleCharacteristic updates the state mirror from a TX characteristic
// payload, typically delivered through a notification.
func (d *Device) HandleCharacteristic(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handleCharacteristicLocked(data)
}

func (d *Device) handleCharacteristicLocked(data []byte) {
	d.logger.WithField("data", fmt.Sprintf("%q", data)).Debug("Characteristic callback")

	if len(data) < len(d.keycode) || string(data[:len(d.keycode)]) != string(d.keycode) {
		d.logger.WithField("data", fmt.Sprintf("%q", data)).Warn("Wrong keycode in data")
		return
	}

	state, err := d.state.UpdateFromCharacteristic(data)
	if err != nil {
		d.logger.WithError(err).Warn("Failed to parse characteristic data")
		return
	}
	d.state = state
}

// HandleAdvertisement updates the state mirror from broadcast manufacturer
// data seen while scanning. Non-hood advertisements are ignored.
func (d *Device) HandleAdvertisement(adv device.Advertisement) {
	d.HandleManufacturerData(adv.ManufacturerData(), adv.RSSI())
}

// HandleManufacturerData updates the state mirror from raw manufacturer
// data, including the announce prefix.
func (d *Device) HandleManufacturerData(data []byte, rssi int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.state.UpdateFromManufacturerData(data)
	if err != nil {
		d.logger.WithError(err).Debug("Ignoring manufacturer data")
		return
	}
	state.RSSI = rssi
	d.state = state

	d.logger.WithField("state", fmt.Sprintf("%+v", state)).Debug("Detection callback result")
}

// SubscribeState subscribes to TX characteristic notifications and invokes
// handler with the refreshed state after each one. Requires an acquired
// connection; the subscription ends when the link is torn down.
func (d *Device) SubscribeState(handler func(State)) error {
	d.mu.Lock()
	client := d.client
	d.mu.Unlock()

	if client == nil {
		return device.ErrNotConnected
	}

	return client.Subscribe(ServiceUUID, CharacteristicTX, func(data []byte) {
		d.HandleCharacteristic(data)
		handler(d.State())
	})
}

// Disconnected exposes the link-loss channel of the underlying connection.
// Returns a closed channel when no connection is held.
func (d *Device) Disconnected() <-chan struct{} {
	d.mu.Lock()
	client := d.client
	d.mu.Unlock()

	if client == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return client.Disconnected()
}
