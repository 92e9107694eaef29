package ebitdo

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeEndpointSelection(t *testing.T) {
	for _, bootloader := range []bool{true, false} {
		m := newMockTransport()
		m.AddAck()
		ex := NewExchange(m, bootloader)

		_, err := ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_UPDATE_OK, nil, 0)
		require.NoError(t, err)

		in, out := Endpoints(bootloader)
		require.Len(t, m.writes, 1)
		assert.Equal(t, out, m.writes[0].ep)
		assert.Equal(t, []Endpoint{in}, m.reads)
	}

	in, out := Endpoints(true)
	assert.Equal(t, USB_BOOTLOADER_EP_IN, in)
	assert.Equal(t, USB_BOOTLOADER_EP_OUT, out)
	in, out = Endpoints(false)
	assert.Equal(t, USB_RUNTIME_EP_IN, in)
	assert.Equal(t, USB_RUNTIME_EP_OUT, out)
}

func TestExchangeSendFrame(t *testing.T) {
	m := newMockTransport()
	ex := NewExchange(m, true)

	require.NoError(t, ex.Send(PKT_TYPE_USER_CMD, PKT_CMD_GET_VERIFICATION_ID, 0, nil))
	require.Len(t, m.writes, 1)
	frame := m.writes[0].frame
	require.Len(t, frame, FrameSize)
	assert.Equal(t, []byte{0x05, 0x00, 0x1a, 0x01, 0x00, 0x00, 0x00, 0x00}, frame[:HeaderSize])
	assert.Empty(t, m.reads)
}

func TestExchangeTimeout(t *testing.T) {
	m := newMockTransport()
	ex := NewExchange(m, true)
	require.NoError(t, ex.Send(PKT_TYPE_USER_CMD, PKT_CMD_GET_VERIFICATION_ID, 0, nil))
	assert.Equal(t, USB_TIMEOUT, m.lastTimeout)

	ex = NewExchange(m, true, WithTimeout(250*time.Millisecond))
	require.NoError(t, ex.Send(PKT_TYPE_USER_CMD, PKT_CMD_GET_VERIFICATION_ID, 0, nil))
	assert.Equal(t, 250*time.Millisecond, m.lastTimeout)

	// non-positive values keep the default
	ex = NewExchange(m, true, WithTimeout(0))
	require.NoError(t, ex.Send(PKT_TYPE_USER_CMD, PKT_CMD_GET_VERIFICATION_ID, 0, nil))
	assert.Equal(t, USB_TIMEOUT, m.lastTimeout)
}

func TestExchangeNak(t *testing.T) {
	m := newMockTransport()
	m.AddResponse(ackFrame(PKT_CMD_NAK))
	ex := NewExchange(m, true)

	_, err := ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_UPDATE_DATA, []byte{1, 2}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtocol))
	assert.Contains(t, err.Error(), "nak")
}

func TestExchangeSizeMismatch(t *testing.T) {
	m := newMockTransport()
	m.AddResponse(bootloaderVersionFrame(201))
	ex := NewExchange(m, true)

	_, err := ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_GET_VERSION, nil, 8)
	assert.True(t, errors.Is(err, ErrSizeMismatch))
}

func TestExchangeAnyLength(t *testing.T) {
	m := newMockTransport()
	m.AddResponse(verificationIDFrame([]uint32{1, 2}))
	ex := NewExchange(m, true)

	buf, err := ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_GET_VERIFICATION_ID, 0, nil, 0)
	require.NoError(t, err)
	assert.Len(t, buf, 8)
}

func TestExchangeUnexpectedResponse(t *testing.T) {
	m := newMockTransport()
	m.AddResponse(make([]byte, FrameSize))
	ex := NewExchange(m, true)

	// all zero: user-cmd with subtype fw-update-data, matches nothing
	_, err := ex.Receive(0)
	assert.True(t, errors.Is(err, ErrUnexpectedResponse))
}

func TestExchangeTransportErrors(t *testing.T) {
	m := newMockTransport()
	m.writeErr = mockError("libusb: pipe error")
	ex := NewExchange(m, true)

	_, err := ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_UPDATE_OK, nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Contains(t, err.Error(), "send to")
	assert.Empty(t, m.reads, "no read after a failed write")

	te := &TransportError{}
	require.True(t, errors.As(err, &te))
	assert.Equal(t, USB_BOOTLOADER_EP_OUT, te.Endpoint)

	m = newMockTransport()
	m.readErr = errTimeout
	ex = NewExchange(m, false)

	_, err = ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_GET_VERSION, 0, nil, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, errTimeout))
	assert.Contains(t, err.Error(), "retrieve from")
}

func TestExchangeOversizedPayload(t *testing.T) {
	m := newMockTransport()
	ex := NewExchange(m, true)

	err := ex.Send(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_UPDATE_DATA, make([]byte, MaxPayloadSize+1))
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Empty(t, m.writes)
}

func TestExchangeVerboseDump(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	m := newMockTransport()
	m.AddAck()
	ex := NewExchange(m, true, WithVerbose(true), WithLogger(logger))
	assert.True(t, ex.Verbose())

	_, err := ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_UPDATE_OK, nil, 0)
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Message, "->DEVICE")
	assert.Equal(t, "fw-update-ok", entries[0].Data["cmd"])
	assert.Contains(t, entries[1].Message, "<-DEVICE")
	assert.Equal(t, "ack", entries[1].Data["cmd"])

	hook.Reset()
	ex = NewExchange(m, true, WithLogger(logger))
	require.NoError(t, ex.Send(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_UPDATE_OK, nil))
	assert.Empty(t, hook.AllEntries())
}

func TestExchangeAckWhereDataExpected(t *testing.T) {
	m := newMockTransport()
	m.AddAck()
	ex := NewExchange(m, false)

	buf, err := ex.Receive(4)
	assert.Nil(t, buf)
	assert.True(t, errors.Is(err, ErrSizeMismatch))

	// a nak is still reported as such
	m.AddResponse(ackFrame(PKT_CMD_NAK))
	_, err = ex.Receive(4)
	assert.True(t, errors.Is(err, ErrProtocol))
}

func TestExchangeShortRead(t *testing.T) {
	m := newMockTransport()
	m.AddResponse(ackFrame(PKT_CMD_ACK)[:HeaderSize-1])
	ex := NewExchange(m, true)

	_, err := ex.Receive(0)
	assert.True(t, errors.Is(err, ErrSizeMismatch))

	// declared payload reaches past the bytes actually read
	m.AddResponse(bootloaderVersionFrame(201)[:HeaderSize+2])
	_, err = ex.Receive(4)
	assert.True(t, errors.Is(err, ErrSizeMismatch))
}
