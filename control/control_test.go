package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/elupus/fjaraskupan-go/hood"
	"github.com/elupus/fjaraskupan-go/internal/device"
	"github.com/elupus/fjaraskupan-go/internal/testutils"
)

const testAddress = "AA:BB:CC:DD:EE:FF"

// ControlTestSuite routes device sessions through an in-memory transport
type ControlTestSuite struct {
	suite.Suite
	originalFactory func(string, ...hood.Option) *hood.Device
	rx              *testutils.FakeCharacteristic
	client          *testutils.FakeClient
	dials           int
	logger          *logrus.Logger
}

// SetupSuite runs once before all tests in the suite
func (s *ControlTestSuite) SetupSuite() {
	s.originalFactory = NewDevice
	s.logger = logrus.New()
	s.logger.SetLevel(logrus.PanicLevel)
}

// TearDownSuite runs once after all tests in the suite
func (s *ControlTestSuite) TearDownSuite() {
	NewDevice = s.originalFactory
}

// SetupTest runs before each test in the suite
func (s *ControlTestSuite) SetupTest() {
	s.rx = testutils.NewFakeCharacteristic(hood.CharacteristicRX)
	s.client = testutils.NewFakeClient(testAddress,
		testutils.NewFakeService(hood.ServiceUUID, s.rx))
	s.dials = 0
	NewDevice = func(address string, opts ...hood.Option) *hood.Device {
		opts = append(opts, hood.WithDialer(testutils.FakeDialer(s.client, &s.dials)))
		return hood.NewDevice(address, opts...)
	}
}

func (s *ControlTestSuite) TestWithDevice_RunsCallbackConnected() {
	// GOAL: Verify the session dials, runs the callback and tears down the link
	//
	// TEST SCENARIO: Send a command inside the callback → write reaches the
	// transport, link disconnected afterwards

	result, err := WithDevice(context.Background(), testAddress, nil, s.logger, nil,
		func(dev *hood.Device) (string, error) {
			return "done", dev.SendCommand(hood.CommandStopFan)
		})
	s.Require().NoError(err)
	s.Assert().Equal("done", result)
	s.Assert().Equal(1, s.dials)
	s.Require().Len(s.rx.Writes(), 1)
	s.Assert().Equal([]byte("1234Luft-Aus"), s.rx.Writes()[0])
	s.Assert().Equal(1, s.client.Disconnects, "session MUST disconnect when done")
}

func (s *ControlTestSuite) TestWithDevice_AppliesKeycodeOption() {
	// GOAL: Verify session options reach the device handle
	//
	// TEST SCENARIO: Session with keycode 4321 → write prefixed with it

	opts := &Options{
		ConnectTimeout: 5 * time.Second,
		Keycode:        []byte("4321"),
	}
	_, err := WithDevice(context.Background(), testAddress, opts, s.logger, nil,
		func(dev *hood.Device) (struct{}, error) {
			return struct{}{}, dev.SendCommand(hood.CommandLightOnOff)
		})
	s.Require().NoError(err)
	s.Require().Len(s.rx.Writes(), 1)
	s.Assert().Equal([]byte("4321Kochfeld"), s.rx.Writes()[0])
}

func (s *ControlTestSuite) TestWithDevice_ReportsPhases() {
	// GOAL: Verify the progress callback sees the session phases in order
	//
	// TEST SCENARIO: Successful session → Connecting, Connected, Processing results

	var phases []string
	_, err := WithDevice(context.Background(), testAddress, nil, s.logger,
		func(phase string) { phases = append(phases, phase) },
		func(dev *hood.Device) (struct{}, error) {
			return struct{}{}, nil
		})
	s.Require().NoError(err)
	s.Assert().Equal([]string{"Connecting", "Connected", "Processing results"}, phases)
}

func (s *ControlTestSuite) TestWithDevice_ConnectFailure() {
	// GOAL: Verify dial failures abort the session and report the failure phase
	//
	// TEST SCENARIO: Dialer fails → error returned, callback never runs,
	// last phase is Failed

	dialErr := errors.New("out of range")
	NewDevice = func(address string, opts ...hood.Option) *hood.Device {
		opts = append(opts, hood.WithDialer(
			func(ctx context.Context, address string, connOpts *device.ConnectOptions) (device.Client, error) {
				return nil, dialErr
			}))
		return hood.NewDevice(address, opts...)
	}

	var phases []string
	called := false
	_, err := WithDevice(context.Background(), testAddress, nil, s.logger,
		func(phase string) { phases = append(phases, phase) },
		func(dev *hood.Device) (struct{}, error) {
			called = true
			return struct{}{}, nil
		})
	s.Require().Error(err)
	s.Assert().ErrorIs(err, dialErr)
	s.Assert().False(called, "callback MUST NOT run without a connection")
	s.Assert().Equal("Failed", phases[len(phases)-1])
}

func (s *ControlTestSuite) TestWithDevice_CallbackError() {
	// GOAL: Verify callback errors propagate while the link is still released
	//
	// TEST SCENARIO: Callback fails → error returned, transport disconnected

	cbErr := errors.New("device rejected command")
	_, err := WithDevice(context.Background(), testAddress, nil, s.logger, nil,
		func(dev *hood.Device) (struct{}, error) {
			return struct{}{}, cbErr
		})
	s.Require().Error(err)
	s.Assert().ErrorIs(err, cbErr)
	s.Assert().Equal(1, s.client.Disconnects)
}

func TestControlSuite(t *testing.T) {
	suite.Run(t, new(ControlTestSuite))
}
