package hood

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/elupus/fjaraskupan-go/internal/device"
	"github.com/elupus/fjaraskupan-go/internal/testutils"
)

const testAddress = "AA:BB:CC:DD:EE:FF"

// DeviceTestSuite drives a Device handle against an in-memory BLE client
type DeviceTestSuite struct {
	suite.Suite
	rx     *testutils.FakeCharacteristic
	tx     *testutils.FakeCharacteristic
	client *testutils.FakeClient
	dials  int
	dev    *Device
}

// SetupTest runs before each test in the suite
func (s *DeviceTestSuite) SetupTest() {
	s.rx = testutils.NewFakeCharacteristic(CharacteristicRX)
	s.tx = testutils.NewFakeCharacteristic(CharacteristicTX)
	s.client = testutils.NewFakeClient(testAddress,
		testutils.NewFakeService(ServiceUUID, s.rx, s.tx))
	s.dials = 0
	s.dev = NewDevice(testAddress,
		WithDialer(testutils.FakeDialer(s.client, &s.dials)),
		WithDisconnectDelay(0))
}

func (s *DeviceTestSuite) connect() func() {
	release, err := s.dev.Connect(context.Background())
	s.Require().NoError(err, "connect MUST succeed")
	return release
}

func (s *DeviceTestSuite) TestSendCommand_PrefixesKeycode() {
	// GOAL: Verify every command write carries keycode plus command
	//
	// TEST SCENARIO: Send the light toggle → single write of "1234Kochfeld"

	release := s.connect()
	defer release()

	s.Require().NoError(s.dev.SendCommand(CommandLightOnOff))

	writes := s.rx.Writes()
	s.Require().Len(writes, 1, "exactly one write MUST be issued")
	s.Assert().Equal([]byte("1234Kochfeld"), writes[0])
}

func (s *DeviceTestSuite) TestSendCommand_CustomKeycode() {
	// GOAL: Verify a configured keycode replaces the factory default
	//
	// TEST SCENARIO: Handle with keycode 9999 sends a command → payload starts with 9999

	dev := NewDevice(testAddress,
		WithKeycode([]byte("9999")),
		WithDialer(testutils.FakeDialer(s.client, nil)),
		WithDisconnectDelay(0))
	release, err := dev.Connect(context.Background())
	s.Require().NoError(err)
	defer release()

	s.Require().NoError(dev.SendCommand(CommandStopFan))

	writes := s.rx.Writes()
	s.Require().Len(writes, 1)
	s.Assert().Equal([]byte("9999Luft-Aus"), writes[0])
}

func (s *DeviceTestSuite) TestSendCommand_RejectsWrongLength() {
	// GOAL: Verify commands of the wrong wire length never reach the device
	//
	// TEST SCENARIO: Send a short and a long command → errors, no writes

	release := s.connect()
	defer release()

	s.Assert().Error(s.dev.SendCommand("short"))
	s.Assert().Error(s.dev.SendCommand("far too long"))
	s.Assert().Empty(s.rx.Writes(), "invalid commands MUST NOT be written")
}

func (s *DeviceTestSuite) TestSendCommand_RequiresConnection() {
	// GOAL: Verify commands fail cleanly without an acquired connection
	//
	// TEST SCENARIO: Send without Connect → ErrNotConnected

	err := s.dev.SendCommand(CommandStopFan)
	s.Require().Error(err)
	s.Assert().ErrorIs(err, device.ErrNotConnected)
}

func (s *DeviceTestSuite) TestSendFanSpeed_MirrorsState() {
	// GOAL: Verify fan speed writes update the state mirror optimistically
	//
	// TEST SCENARIO: Set speed 3 then 0 → mirror follows, stop uses Luft-Aus

	release := s.connect()
	defer release()

	s.Require().NoError(s.dev.SendFanSpeed(3))
	s.Assert().Equal(3, s.dev.State().FanSpeed)

	s.Require().NoError(s.dev.SendFanSpeed(0))
	s.Assert().Equal(0, s.dev.State().FanSpeed)

	writes := s.rx.Writes()
	s.Require().Len(writes, 2)
	s.Assert().Equal([]byte("1234-Luft-3-"), writes[0])
	s.Assert().Equal([]byte("1234Luft-Aus"), writes[1])
}

func (s *DeviceTestSuite) TestSendDim_TogglesLightAcrossZero() {
	// GOAL: Verify dimming toggles the light on or off when crossing zero
	//
	// TEST SCENARIO: Light off, dim to 50 → toggle plus dim; dim to 20 → dim only;
	// dim to 0 → toggle plus dim

	release := s.connect()
	defer release()

	s.Require().NoError(s.dev.SendDim(50))
	s.Assert().True(s.dev.State().LightOn)
	s.Assert().Equal(50, s.dev.State().DimLevel)

	s.Require().NoError(s.dev.SendDim(20))

	s.Require().NoError(s.dev.SendDim(0))
	s.Assert().False(s.dev.State().LightOn)
	s.Assert().Equal(0, s.dev.State().DimLevel)

	writes := s.rx.Writes()
	s.Require().Len(writes, 5)
	s.Assert().Equal([]byte("1234Kochfeld"), writes[0])
	s.Assert().Equal([]byte("1234-Dim050-"), writes[1])
	s.Assert().Equal([]byte("1234-Dim020-"), writes[2])
	s.Assert().Equal([]byte("1234Kochfeld"), writes[3])
	s.Assert().Equal([]byte("1234-Dim000-"), writes[4])
}

func (s *DeviceTestSuite) TestSendCommand_LightToggleMirrorsState() {
	// GOAL: Verify the raw light toggle flips the mirrored light flag
	//
	// TEST SCENARIO: Toggle twice → light on, then off again

	release := s.connect()
	defer release()

	s.Require().NoError(s.dev.SendCommand(CommandLightOnOff))
	s.Assert().True(s.dev.State().LightOn)

	s.Require().NoError(s.dev.SendCommand(CommandLightOnOff))
	s.Assert().False(s.dev.State().LightOn)
}

func (s *DeviceTestSuite) TestSendCommand_AfterCookingMirrorsState() {
	// GOAL: Verify after-cooking commands update the mirror
	//
	// TEST SCENARIO: Manual run → on; automatic run → on with strength reset

	release := s.connect()
	defer release()

	s.Require().NoError(s.dev.SendAfterCooking(4))
	s.Assert().Equal(4, s.dev.State().AfterCookingFanSpeed)

	s.Require().NoError(s.dev.SendCommand(CommandAfterCookingManual))
	s.Assert().True(s.dev.State().AfterCookingOn)

	s.Require().NoError(s.dev.SendCommand(CommandAfterCookingAuto))
	s.Assert().True(s.dev.State().AfterCookingOn)
	s.Assert().Equal(0, s.dev.State().AfterCookingFanSpeed)
}

func (s *DeviceTestSuite) TestConnect_SharesSingleLink() {
	// GOAL: Verify overlapping connection scopes share one dialed link
	//
	// TEST SCENARIO: Connect twice, release both → one dial, disconnect only
	// after the last release

	release1 := s.connect()
	release2 := s.connect()
	s.Assert().Equal(1, s.dials, "second scope MUST reuse the link")

	release1()
	s.Assert().Equal(0, s.client.Disconnects, "link MUST survive while held")

	release2()
	s.Assert().Equal(1, s.client.Disconnects, "last release MUST disconnect")
}

func (s *DeviceTestSuite) TestConnect_ReleaseIsIdempotent() {
	// GOAL: Verify calling release twice does not double-release the link
	//
	// TEST SCENARIO: Two scopes, one released twice → link still held

	release1 := s.connect()
	release2 := s.connect()

	release1()
	release1()
	s.Assert().Equal(0, s.client.Disconnects, "double release MUST NOT tear down a held link")

	release2()
	s.Assert().Equal(1, s.client.Disconnects)
}

func (s *DeviceTestSuite) TestConnect_DelayedDisconnect() {
	// GOAL: Verify the link lingers for the configured delay and is reused
	//
	// TEST SCENARIO: Release with a delay, reconnect within it → no disconnect,
	// no second dial; Close tears down immediately

	dev := NewDevice(testAddress,
		WithDialer(testutils.FakeDialer(s.client, &s.dials)),
		WithDisconnectDelay(time.Minute))

	release, err := dev.Connect(context.Background())
	s.Require().NoError(err)
	release()
	s.Assert().Equal(0, s.client.Disconnects, "disconnect MUST be deferred")

	release, err = dev.Connect(context.Background())
	s.Require().NoError(err)
	s.Assert().Equal(1, s.dials, "reconnect within the delay MUST reuse the link")
	release()

	s.Require().NoError(dev.Close())
	s.Assert().Equal(1, s.client.Disconnects, "close MUST disconnect immediately")
}

func (s *DeviceTestSuite) TestUpdate_ReadsStatusCharacteristic() {
	// GOAL: Verify Update reads the status characteristic into the mirror
	//
	// TEST SCENARIO: Status payload with speed 4, light on, dim 050 → mirror updated

	s.rx.SetReadData([]byte("12344L____05000"))

	release := s.connect()
	defer release()

	state, err := s.dev.Update()
	s.Require().NoError(err)
	s.Assert().Equal(4, state.FanSpeed)
	s.Assert().True(state.LightOn)
	s.Assert().Equal(50, state.DimLevel)
}

func (s *DeviceTestSuite) TestHandleCharacteristic_RejectsWrongKeycode() {
	// GOAL: Verify payloads carrying a foreign keycode never update the mirror
	//
	// TEST SCENARIO: Payload prefixed 9999 → state unchanged

	s.dev.HandleCharacteristic([]byte("99998_____00000"))
	s.Assert().Equal(0, s.dev.State().FanSpeed)

	s.dev.HandleCharacteristic([]byte("12348_____00000"))
	s.Assert().Equal(8, s.dev.State().FanSpeed)
}

func (s *DeviceTestSuite) TestHandleManufacturerData_AttachesRSSI() {
	// GOAL: Verify broadcast updates carry the observed signal strength
	//
	// TEST SCENARIO: Broadcast with fan speed 2 at -60 dBm → mirror holds both

	s.dev.HandleManufacturerData([]byte("HOODFJAR\x02\x00\x00\x00\x00\x00\x00"), -60)

	state := s.dev.State()
	s.Assert().Equal(2, state.FanSpeed)
	s.Assert().Equal(-60, state.RSSI)
}

func (s *DeviceTestSuite) TestSubscribeState_DeliversUpdates() {
	// GOAL: Verify notification payloads refresh the mirror and reach the handler
	//
	// TEST SCENARIO: Subscribe, push a notification → handler sees parsed state

	release := s.connect()
	defer release()

	var received []State
	s.Require().NoError(s.dev.SubscribeState(func(state State) {
		received = append(received, state)
	}))

	s.client.Notify(ServiceUUID, CharacteristicTX, []byte("12345L____07512"))

	s.Require().Len(received, 1, "handler MUST be invoked per notification")
	s.Assert().Equal(5, received[0].FanSpeed)
	s.Assert().True(received[0].LightOn)
	s.Assert().Equal(75, received[0].DimLevel)
	s.Assert().Equal(12, received[0].PeriodicVenting)
}

func TestDeviceSuite(t *testing.T) {
	suite.Run(t, new(DeviceTestSuite))
}
