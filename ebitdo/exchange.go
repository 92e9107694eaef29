package ebitdo

import (
	"encoding/hex"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Exchange pairs requests with responses over a Transport. The channel has
// no multiplexing, a response always belongs to the most recent request, so
// an Exchange must only be driven from one goroutine.
type Exchange struct {
	transport  Transport
	bootloader bool
	epIn       Endpoint
	epOut      Endpoint
	config     config
}

func NewExchange(t Transport, bootloader bool, opts ...Option) *Exchange {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ex := &Exchange{
		transport:  t,
		bootloader: bootloader,
		config:     cfg,
	}
	ex.epIn, ex.epOut = Endpoints(bootloader)
	return ex
}

func (ex *Exchange) IsBootloader() bool {
	return ex.bootloader
}

func (ex *Exchange) Verbose() bool {
	return ex.config.verbose
}

func (ex *Exchange) Logger() log.FieldLogger {
	return ex.config.logger
}

func (ex *Exchange) dump(direction string, raw []byte, p *Packet) {
	if !ex.config.verbose {
		return
	}
	ex.config.logger.WithFields(log.Fields{
		"pkt_len":     p.PktLen,
		"pkt_type":    p.Type.String(),
		"cmd_subtype": p.Subtype.String(),
		"cmd_len":     p.CmdLen,
		"cmd":         p.Cmd.String(),
		"payload_len": p.PayloadLen,
	}).Debugf("%s\n%s", direction, hex.Dump(raw))
}

// Send writes a single request frame to the OUT endpoint of the current mode.
func (ex *Exchange) Send(typ PktType, subtype PktCmd, cmd PktCmd, payload []byte) (err error) {
	p, err := Encode(typ, subtype, cmd, payload)
	if err != nil {
		return err
	}
	frame, err := p.ToWire()
	if err != nil {
		return err
	}

	ex.dump("->DEVICE", frame[:int(p.PktLen)+1], p)

	if err = ex.transport.Write(ex.epOut, frame, ex.config.timeout); err != nil {
		return &TransportError{Op: "send to", Endpoint: ex.epOut, Err: err}
	}
	return nil
}

// Receive reads one frame from the IN endpoint and returns its payload. If
// expected is non-zero the payload length has to match it, which an
// acknowledge frame never does. Acknowledge frames fail with ErrProtocol
// unless they carry PKT_CMD_ACK.
func (ex *Exchange) Receive(expected int) (payload []byte, err error) {
	frame := make([]byte, FrameSize)
	n, err := ex.transport.Read(ex.epIn, frame, ex.config.timeout)
	if err != nil {
		return nil, &TransportError{Op: "retrieve from", Endpoint: ex.epIn, Err: err}
	}

	if n < HeaderSize {
		return nil, errors.Wrapf(ErrSizeMismatch, "short read, got %d bytes, header needs %d", n, HeaderSize)
	}

	if ex.config.verbose {
		p := Packet{}
		if p.FromWire(frame) == nil {
			ex.dump("<-DEVICE", frame[:n], &p)
		}
	}

	rsp, err := Classify(frame[:n])
	if err != nil {
		return nil, err
	}

	switch rsp.Kind {
	case RESPONSE_ACK:
		if rsp.Packet.Cmd != PKT_CMD_ACK {
			return nil, errors.Wrapf(ErrProtocol, "write failed, got %s", rsp.Packet.Cmd)
		}
		if expected != 0 {
			return nil, errors.Wrapf(ErrSizeMismatch, "outbuf size wrong, expected %d got ack without payload", expected)
		}
		return rsp.Payload, nil
	default:
		if expected != 0 && len(rsp.Payload) != expected {
			return nil, errors.Wrapf(ErrSizeMismatch, "outbuf size wrong for %s, expected %d got %d", rsp.Kind, expected, len(rsp.Payload))
		}
		return rsp.Payload, nil
	}
}

// Transact sends a request and reads its response. There is no retry, a
// failed exchange fails the caller.
func (ex *Exchange) Transact(typ PktType, subtype PktCmd, cmd PktCmd, payload []byte, expected int) ([]byte, error) {
	if err := ex.Send(typ, subtype, cmd, payload); err != nil {
		return nil, err
	}
	return ex.Receive(expected)
}
