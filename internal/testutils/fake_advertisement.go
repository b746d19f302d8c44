// Package testutils provides fakes and assertion helpers shared by the
// package test suites.
package testutils

import (
	"context"

	"github.com/elupus/fjaraskupan-go/internal/device"
)

// FakeAdvertisement is a configurable device.Advertisement for tests.
// The fluent With* methods return the same instance for chaining.
type FakeAdvertisement struct {
	name        string
	address     string
	rssi        int
	services    []string
	manufData   []byte
	connectable bool
}

// NewFakeAdvertisement creates an advertisement with a connectable default
func NewFakeAdvertisement() *FakeAdvertisement {
	return &FakeAdvertisement{connectable: true}
}

func (a *FakeAdvertisement) WithName(name string) *FakeAdvertisement {
	a.name = name
	return a
}

func (a *FakeAdvertisement) WithAddress(addr string) *FakeAdvertisement {
	a.address = addr
	return a
}

func (a *FakeAdvertisement) WithRSSI(rssi int) *FakeAdvertisement {
	a.rssi = rssi
	return a
}

func (a *FakeAdvertisement) WithServices(uuids ...string) *FakeAdvertisement {
	a.services = append(a.services, uuids...)
	return a
}

func (a *FakeAdvertisement) WithManufacturerData(data []byte) *FakeAdvertisement {
	a.manufData = data
	return a
}

func (a *FakeAdvertisement) WithConnectable(c bool) *FakeAdvertisement {
	a.connectable = c
	return a
}

// device.Advertisement implementation

func (a *FakeAdvertisement) LocalName() string        { return a.name }
func (a *FakeAdvertisement) ManufacturerData() []byte { return a.manufData }
func (a *FakeAdvertisement) Services() []string       { return a.services }
func (a *FakeAdvertisement) Connectable() bool        { return a.connectable }
func (a *FakeAdvertisement) RSSI() int                { return a.rssi }
func (a *FakeAdvertisement) Addr() string             { return a.address }

var _ device.Advertisement = (*FakeAdvertisement)(nil)

// FakeScanner replays a fixed set of advertisements to the scan handler and
// then blocks until the context is cancelled, mimicking a radio backend.
type FakeScanner struct {
	Advertisements []device.Advertisement
	Err            error
}

func (s *FakeScanner) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	if s.Err != nil {
		return s.Err
	}
	for _, adv := range s.Advertisements {
		handler(adv)
	}
	<-ctx.Done()
	return ctx.Err()
}

var _ device.Scanner = (*FakeScanner)(nil)
