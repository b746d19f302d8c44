package goble

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/elupus/fjaraskupan-go/internal/device"
	"github.com/elupus/fjaraskupan-go/internal/groutine"
)

const (
	// DefaultConnectTimeout bounds dialing plus profile discovery
	DefaultConnectTimeout = 30 * time.Second
)

// Client is a live GATT connection built on go-ble. Services and
// characteristics are stored in discovery order.
type Client struct {
	address string
	client  ble.Client
	logger  *logrus.Logger

	// writeMutex serializes GATT writes; go-ble clients are not safe for
	// concurrent write requests on some backends.
	writeMutex sync.Mutex
	connMutex  sync.RWMutex
	connected  bool

	services *orderedmap.OrderedMap[string, *Service]
}

// Service represents a discovered GATT service and its characteristics
type Service struct {
	uuid            string
	characteristics *orderedmap.OrderedMap[string, *Characteristic]
}

func (s *Service) UUID() string { return s.uuid }

func (s *Service) Characteristics() []device.Characteristic {
	result := make([]device.Characteristic, 0, s.characteristics.Len())
	for pair := s.characteristics.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// Characteristic wraps a go-ble characteristic handle with timeout-bounded
// read and write operations.
type Characteristic struct {
	uuid    string
	bleChar *ble.Characteristic
	client  *Client
}

func (c *Characteristic) UUID() string { return c.uuid }

// Read reads the characteristic value. The timeout bounds the blocking
// go-ble call; 0 falls back to DefaultConnectTimeout.
func (c *Characteristic) Read(timeout time.Duration) ([]byte, error) {
	cli := c.client.bleClient()
	if cli == nil {
		return nil, device.ErrNotConnected
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	groutine.Go(nil, "goble-read-"+device.ShortenUUID(c.uuid), func(context.Context) {
		data, err := cli.ReadCharacteristic(c.bleChar)
		done <- result{data, err}
	})

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to read characteristic %s: %w", c.uuid, device.NormalizeError(r.err))
		}
		return r.data, nil
	case <-time.After(effectiveTimeout(timeout)):
		return nil, fmt.Errorf("read characteristic %s: %w", c.uuid, device.ErrTimeout)
	}
}

// Write writes data to the characteristic, optionally waiting for an ACK.
func (c *Characteristic) Write(data []byte, withResponse bool, timeout time.Duration) error {
	cli := c.client.bleClient()
	if cli == nil {
		return device.ErrNotConnected
	}

	done := make(chan error, 1)
	groutine.Go(nil, "goble-write-"+device.ShortenUUID(c.uuid), func(context.Context) {
		c.client.writeMutex.Lock()
		defer c.client.writeMutex.Unlock()
		done <- cli.WriteCharacteristic(c.bleChar, data, !withResponse)
	})

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to write characteristic %s: %w", c.uuid, device.NormalizeError(err))
		}
		return nil
	case <-time.After(effectiveTimeout(timeout)):
		return fmt.Errorf("write characteristic %s: %w", c.uuid, device.ErrTimeout)
	}
}

func effectiveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultConnectTimeout
	}
	return timeout
}

// Dial connects to the peripheral at address and discovers its GATT profile.
// The returned Client is ready for characteristic operations.
func Dial(ctx context.Context, address string, opts *device.ConnectOptions, logger *logrus.Logger) (device.Client, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if opts == nil {
		opts = &device.ConnectOptions{ConnectTimeout: DefaultConnectTimeout}
	}

	dev, err := DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", device.NormalizeError(err))
	}
	ble.SetDefaultDevice(dev)

	connCtx, cancel := context.WithTimeout(ctx, effectiveTimeout(opts.ConnectTimeout))
	defer cancel()

	logger.WithFields(logrus.Fields{
		"address": address,
		"timeout": opts.ConnectTimeout,
	}).Info("Connecting to BLE device...")

	cli, err := ble.Dial(connCtx, ble.NewAddr(address))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", address, device.NormalizeError(err))
	}

	logger.WithField("address", address).Debug("Discovering services and characteristics...")
	profile, err := cli.DiscoverProfile(true)
	if err != nil {
		if cancelErr := cli.CancelConnection(); cancelErr != nil {
			logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection during profile discovery failure")
		}
		return nil, fmt.Errorf("failed to discover profile: %w", device.NormalizeError(err))
	}

	c := &Client{
		address:   address,
		client:    cli,
		logger:    logger,
		connected: true,
		services:  orderedmap.New[string, *Service](),
	}

	totalChars := 0
	for _, bleSvc := range profile.Services {
		svcUUID := device.NormalizeUUID(bleSvc.UUID.String())
		svc, ok := c.services.Get(svcUUID)
		if !ok {
			svc = &Service{
				uuid:            svcUUID,
				characteristics: orderedmap.New[string, *Characteristic](),
			}
			c.services.Set(svcUUID, svc)
		}

		for _, bleChar := range bleSvc.Characteristics {
			charUUID := device.NormalizeUUID(bleChar.UUID.String())
			logger.WithFields(logrus.Fields{
				"service_uuid": svcUUID,
				"char_uuid":    charUUID,
			}).Debug("Found characteristic UUID")
			svc.characteristics.Set(charUUID, &Characteristic{
				uuid:    charUUID,
				bleChar: bleChar,
				client:  c,
			})
			totalChars++
		}
	}

	logger.WithFields(logrus.Fields{
		"address":         address,
		"services":        c.services.Len(),
		"characteristics": totalChars,
	}).Info("BLE device connected successfully")

	return c, nil
}

// bleClient returns the underlying go-ble client, or nil once disconnected
func (c *Client) bleClient() ble.Client {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()
	if !c.connected {
		return nil
	}
	return c.client
}

func (c *Client) Address() string { return c.address }

// Services returns all discovered GATT services in discovery order
func (c *Client) Services() []device.Service {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	result := make([]device.Service, 0, c.services.Len())
	for pair := c.services.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// GetCharacteristic retrieves a characteristic by service and characteristic
// UUID. Both UUIDs are validated and normalized for consistent lookup.
// Returns a NotFoundError if the service or characteristic is not found.
func (c *Client) GetCharacteristic(service, char string) (device.Characteristic, error) {
	ch, err := c.getOwnCharacteristic(service, char)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Subscribe registers a notification handler for the given characteristic
func (c *Client) Subscribe(service, char string, handler func(data []byte)) error {
	ch, err := c.getOwnCharacteristic(service, char)
	if err != nil {
		return err
	}

	cli := c.bleClient()
	if cli == nil {
		return device.ErrNotConnected
	}

	if err := cli.Subscribe(ch.bleChar, false, func(data []byte) {
		handler(data)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to characteristic %s: %w", ch.uuid, device.NormalizeError(err))
	}

	c.logger.WithFields(logrus.Fields{
		"serviceUUID": service,
		"charUUID":    char,
	}).Info("Subscribed to characteristic notifications")
	return nil
}

// Unsubscribe removes the notification subscription for the characteristic.
// Both notify and indicate modes are attempted; the call fails only if both do.
func (c *Client) Unsubscribe(service, char string) error {
	ch, err := c.getOwnCharacteristic(service, char)
	if err != nil {
		return err
	}

	cli := c.bleClient()
	if cli == nil {
		return device.ErrNotConnected
	}

	err1 := cli.Unsubscribe(ch.bleChar, false) // notify
	err2 := cli.Unsubscribe(ch.bleChar, true)  // indicate
	if err1 != nil && err2 != nil {
		return fmt.Errorf("failed to unsubscribe from characteristic %s: notify=%v, indicate=%v", ch.uuid, err1, err2)
	}
	return nil
}

func (c *Client) getOwnCharacteristic(service, char string) (*Characteristic, error) {
	uuids, err := device.ValidateUUID(service, char)
	if err != nil {
		return nil, err
	}

	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	svc, ok := c.services.Get(uuids[0])
	if !ok {
		return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{service}}
	}
	ch, ok := svc.characteristics.Get(uuids[1])
	if !ok {
		return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{service, char}}
	}
	return ch, nil
}

// Disconnected returns a channel that closes when the backend reports the
// link was lost.
func (c *Client) Disconnected() <-chan struct{} {
	cli := c.bleClient()
	if cli == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return cli.Disconnected()
}

// Disconnect tears down the GATT connection. Safe to call more than once.
func (c *Client) Disconnect() error {
	c.connMutex.Lock()
	if !c.connected {
		c.connMutex.Unlock()
		c.logger.Debug("Disconnect called but already disconnected")
		return nil
	}
	cli := c.client
	c.connected = false
	c.connMutex.Unlock()

	err := cli.CancelConnection()
	if err != nil {
		c.logger.WithField("error", err).Warn("BLE device disconnected with errors")
		return device.NormalizeError(err)
	}
	c.logger.Info("BLE device disconnected successfully")
	return nil
}
