package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/elupus/fjaraskupan-go/internal/device"
)

// FakeCharacteristic is a device.Characteristic backed by in-memory data.
// Writes are recorded for later inspection.
type FakeCharacteristic struct {
	uuid string

	mu       sync.Mutex
	readData []byte
	readErr  error
	writeErr error
	writes   [][]byte
}

func NewFakeCharacteristic(uuid string) *FakeCharacteristic {
	return &FakeCharacteristic{uuid: uuid}
}

// SetReadData sets the payload returned by Read
func (c *FakeCharacteristic) SetReadData(data []byte) *FakeCharacteristic {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readData = data
	return c
}

// SetReadError makes Read fail with err
func (c *FakeCharacteristic) SetReadError(err error) *FakeCharacteristic {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
	return c
}

// SetWriteError makes Write fail with err
func (c *FakeCharacteristic) SetWriteError(err error) *FakeCharacteristic {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
	return c
}

// Writes returns a copy of every payload written so far
func (c *FakeCharacteristic) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

func (c *FakeCharacteristic) UUID() string { return c.uuid }

func (c *FakeCharacteristic) Read(timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}
	data := make([]byte, len(c.readData))
	copy(data, c.readData)
	return data, nil
}

func (c *FakeCharacteristic) Write(data []byte, withResponse bool, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	c.writes = append(c.writes, stored)
	return nil
}

var _ device.Characteristic = (*FakeCharacteristic)(nil)

// FakeService groups fake characteristics under a service UUID
type FakeService struct {
	uuid  string
	chars []*FakeCharacteristic
}

func NewFakeService(uuid string, chars ...*FakeCharacteristic) *FakeService {
	return &FakeService{uuid: uuid, chars: chars}
}

func (s *FakeService) UUID() string { return s.uuid }

func (s *FakeService) Characteristics() []device.Characteristic {
	out := make([]device.Characteristic, len(s.chars))
	for i, c := range s.chars {
		out[i] = c
	}
	return out
}

var _ device.Service = (*FakeService)(nil)

// FakeClient is an in-memory device.Client. Notification handlers registered
// through Subscribe can be driven with Notify.
type FakeClient struct {
	address  string
	services []*FakeService

	mu            sync.Mutex
	subscriptions map[string]func([]byte)
	disconnected  chan struct{}
	closeOnce     sync.Once
	Disconnects   int
}

func NewFakeClient(address string, services ...*FakeService) *FakeClient {
	return &FakeClient{
		address:       address,
		services:      services,
		subscriptions: make(map[string]func([]byte)),
		disconnected:  make(chan struct{}),
	}
}

func (c *FakeClient) Address() string { return c.address }

func (c *FakeClient) Services() []device.Service {
	out := make([]device.Service, len(c.services))
	for i, s := range c.services {
		out[i] = s
	}
	return out
}

func (c *FakeClient) GetCharacteristic(service, char string) (device.Characteristic, error) {
	for _, s := range c.services {
		if s.uuid != service {
			continue
		}
		for _, ch := range s.chars {
			if ch.uuid == char {
				return ch, nil
			}
		}
		return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{char}}
	}
	return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{service}}
}

func (c *FakeClient) Subscribe(service, char string, handler func(data []byte)) error {
	if _, err := c.GetCharacteristic(service, char); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[subscriptionKey(service, char)] = handler
	return nil
}

func (c *FakeClient) Unsubscribe(service, char string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, subscriptionKey(service, char))
	return nil
}

// Notify delivers a notification payload to the subscribed handler, if any
func (c *FakeClient) Notify(service, char string, data []byte) {
	c.mu.Lock()
	handler := c.subscriptions[subscriptionKey(service, char)]
	c.mu.Unlock()
	if handler != nil {
		handler(data)
	}
}

func (c *FakeClient) Disconnected() <-chan struct{} { return c.disconnected }

func (c *FakeClient) Disconnect() error {
	c.mu.Lock()
	c.Disconnects++
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.disconnected) })
	return nil
}

var _ device.Client = (*FakeClient)(nil)

func subscriptionKey(service, char string) string {
	return fmt.Sprintf("%s/%s", service, char)
}

// FakeDialer returns a device.Dialer handing out the given client and
// recording how many times it was invoked.
func FakeDialer(client *FakeClient, dials *int) device.Dialer {
	return func(ctx context.Context, address string, opts *device.ConnectOptions) (device.Client, error) {
		if dials != nil {
			*dials++
		}
		return client, nil
	}
}
