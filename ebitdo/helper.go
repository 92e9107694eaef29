package ebitdo

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const EncodeIDWords = 3

var appKeyIndex = [16]uint32{
	0x186976e5, 0xcac67acd, 0x38f27fee, 0x0a4948f1,
	0xb75b7753, 0x1f8ffa5c, 0xbff8cf43, 0xc4936167,
	0x92bd03f0, 0x5573c6ed, 0x57d8845b, 0x827197ac,
	0xb91901c9, 0x3917edfe, 0xbcd6344f, 0xcf9e23b5,
}

// EncodeID derives the commit code from the first three words of the
// verification ID.
func EncodeID(serial []uint32) (code [EncodeIDWords]uint32, err error) {
	if len(serial) < EncodeIDWords {
		return code, errors.Wrapf(ErrSizeMismatch, "verification ID has %d words, need %d", len(serial), EncodeIDWords)
	}
	for i := range code {
		code[i] = serial[i] ^ appKeyIndex[serial[i]&0x0f]
	}
	return code, nil
}

func EncodeIDToWire(code [EncodeIDWords]uint32) []byte {
	payload := make([]byte, 4*EncodeIDWords)
	for i, c := range code {
		binary.LittleEndian.PutUint32(payload[4*i:], c)
	}
	return payload
}
