package ebitdo

import (
	"encoding/binary"
	"time"
)

type mockWrite struct {
	ep    Endpoint
	frame []byte
}

// mockTransport records every written frame and replays scripted responses.
type mockTransport struct {
	writes    []mockWrite
	reads     []Endpoint
	responses [][]byte
	respIdx   int

	writeErr    error
	failWriteAt int // 1-based, 0 disables
	readErr     error
	lastTimeout time.Duration
}

func newMockTransport() *mockTransport {
	return &mockTransport{}
}

func (m *mockTransport) Write(ep Endpoint, frame []byte, timeout time.Duration) error {
	m.lastTimeout = timeout
	m.writes = append(m.writes, mockWrite{ep: ep, frame: append([]byte(nil), frame...)})
	if m.writeErr != nil && (m.failWriteAt == 0 || m.failWriteAt == len(m.writes)) {
		return m.writeErr
	}
	return nil
}

func (m *mockTransport) Read(ep Endpoint, buf []byte, timeout time.Duration) (int, error) {
	m.lastTimeout = timeout
	m.reads = append(m.reads, ep)
	if m.readErr != nil {
		return 0, m.readErr
	}
	if m.respIdx >= len(m.responses) {
		return 0, errTimeout
	}
	rsp := m.responses[m.respIdx]
	m.respIdx++
	return copy(buf, rsp), nil
}

func (m *mockTransport) AddResponse(frame []byte) {
	m.responses = append(m.responses, frame)
}

func (m *mockTransport) AddAck() {
	m.AddResponse(ackFrame(PKT_CMD_ACK))
}

type mockError string

func (e mockError) Error() string { return string(e) }

const errTimeout = mockError("libusb: timeout")

type mockDescriptor struct {
	vid, pid     uint16
	manufacturer string
	err          error
}

func (d *mockDescriptor) VendorID() uint16  { return d.vid }
func (d *mockDescriptor) ProductID() uint16 { return d.pid }
func (d *mockDescriptor) Manufacturer() (string, error) {
	return d.manufacturer, d.err
}

func ackFrame(cmd PktCmd) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = 5
	frame[1] = byte(PKT_TYPE_USER_CMD)
	frame[2] = byte(PKT_CMD_UPDATE_FIRMWARE_DATA)
	binary.LittleEndian.PutUint16(frame[3:], 1)
	frame[5] = byte(cmd)
	return frame
}

func runtimeVersionFrame(version uint32) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = byte(PKT_CMD_GET_VERSION_RESPONSE)
	binary.LittleEndian.PutUint32(frame[1:], version)
	return frame
}

func bootloaderVersionFrame(version uint32) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = 11
	frame[1] = byte(PKT_TYPE_USER_CMD)
	frame[2] = byte(PKT_CMD_UPDATE_FIRMWARE_DATA)
	binary.LittleEndian.PutUint16(frame[3:], 7)
	frame[5] = byte(PKT_CMD_FW_GET_VERSION)
	binary.LittleEndian.PutUint16(frame[6:], 4)
	binary.LittleEndian.PutUint32(frame[8:], version)
	return frame
}

func verificationIDFrame(words []uint32) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = byte(len(words)*4 + 4)
	frame[1] = byte(PKT_TYPE_USER_CMD)
	frame[2] = byte(PKT_CMD_VERIFICATION_ID)
	binary.LittleEndian.PutUint16(frame[3:], uint16(len(words)*4))
	for i, w := range words {
		binary.LittleEndian.PutUint32(frame[5+4*i:], w)
	}
	return frame
}

func testSerial() []uint32 {
	return []uint32{0x11111110, 0x22222221, 0x33333332, 4, 5, 6, 7, 8, 9}
}

func testImage(version uint32, payload []byte) []byte {
	data := make([]byte, FirmwareHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(data[0:], version)
	binary.LittleEndian.PutUint32(data[4:], 0x08005000)
	binary.LittleEndian.PutUint32(data[8:], uint32(len(payload)))
	copy(data[FirmwareHeaderSize:], payload)
	return data
}
