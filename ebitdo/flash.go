package ebitdo

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const ChunkSize = 32

type Status int

const (
	STATUS_IDLE Status = iota
	STATUS_WRITING
)

func (s Status) String() string {
	switch s {
	case STATUS_IDLE:
		return "idle"
	case STATUS_WRITING:
		return "writing"
	}
	return fmt.Sprintf("unknown status %d", int(s))
}

// Progress is reported while flashing. Written and Total count payload
// bytes.
type Progress struct {
	Status  Status
	Written uint32
	Total   uint32
}

func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Written) / float64(p.Total)
}

type ProgressCallback func(Progress)

// FlashFirmware writes fw to a device in bootloader mode. Steps are not
// retried; if one fails the device is left mid-update and the whole sequence
// has to be started again.
func FlashFirmware(ex *Exchange, s *Session, fw *Firmware, progress ProgressCallback) (err error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	if !s.IsBootloader || !ex.IsBootloader() {
		return ErrNotBootloader
	}
	if !fw.Valid() {
		return errors.Wrap(ErrImageTooSmall, "firmware was not loaded with ParseFirmware")
	}
	code, err := EncodeID(s.Serial)
	if err != nil {
		return err
	}

	logger := ex.Logger()
	payload := fw.Payload()
	total := uint32(len(payload))

	// set up the firmware header
	progress(Progress{Status: STATUS_WRITING, Total: total})
	if _, err = ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_UPDATE_HEADER, fw.HeaderBytes(), 0); err != nil {
		return &FlashError{Step: ErrHeaderRejected, Err: err}
	}

	// flash the firmware in 32 byte blocks
	for i, chunk := range lo.Chunk(payload, ChunkSize) {
		offset := uint32(i * ChunkSize)
		if ex.Verbose() {
			logger.Debugf("writing %d bytes to %#04x of %#04x", len(chunk), offset, total)
		}
		progress(Progress{Status: STATUS_WRITING, Written: offset, Total: total})
		if _, err = ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_UPDATE_DATA, chunk, 0); err != nil {
			return &FlashError{Step: ErrChunkWriteFailed, Offset: offset, Err: err}
		}
	}

	// mark as complete
	progress(Progress{Status: STATUS_WRITING, Written: total, Total: total})

	// The device never acknowledges the encode ID, reading here would only
	// time out.
	if err = ex.Send(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_SET_ENCODE_ID, EncodeIDToWire(code)); err != nil {
		return &FlashError{Step: ErrEncodeIDFailed, Err: err}
	}

	if _, err = ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_UPDATE_OK, nil, 0); err != nil {
		return &FlashError{Step: ErrFinalizeFailed, Err: err}
	}

	logger.Infof("Firmware written, %d bytes (crc %#04x)", total, fw.CRC)
	progress(Progress{Status: STATUS_IDLE, Written: total, Total: total})
	return nil
}

// IsStepFailure reports whether err was raised by one of the flashing steps
// (as opposed to a precondition).
func IsStepFailure(err error) bool {
	var fe *FlashError
	return errors.As(err, &fe)
}
