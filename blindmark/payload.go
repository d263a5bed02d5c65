// Package blindmark implements the bit protocol for the invisible
// watermark channel: a self-describing payload of MAGIC ‖ LENGTH ‖ DATA
// bits, the password→seed derivation, the capacity math, and an adapter
// to the frequency-domain codec that carries the bits.
//
// The payload layout, MSB first:
//
//	MAGIC   32 bits  fixed tag "NCAT"
//	LENGTH  32 bits  big-endian byte count of DATA
//	DATA    8·n bits UTF-8 text, n ≤ 500
//
// The total bit length is not recoverable from a carrier image; callers
// must record the value reported at embed time and supply it for
// extraction.
package blindmark

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/yyyoichi/bitstream-go"
)

const (
	// MagicTag validates extracted payloads. A mismatch almost always
	// means a wrong password rather than data corruption.
	MagicTag = "NCAT"

	// HeaderBits is the fixed MAGIC+LENGTH prefix size.
	HeaderBits = 64

	// PayloadLimit is the maximum DATA size in bytes.
	PayloadLimit = 500
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrCapacityExceeded = errors.New("message exceeds image capacity")

	// ErrCorruptPayload is the base class for every decode failure.
	ErrCorruptPayload = errors.New("corrupt watermark payload")

	// ErrNoWatermark refines ErrCorruptPayload for magic-tag mismatches:
	// the password is wrong or the image carries no watermark.
	ErrNoWatermark = fmt.Errorf("%w: wrong password or no watermark", ErrCorruptPayload)
	ErrBadLength   = fmt.Errorf("%w: implausible length field", ErrCorruptPayload)
	ErrTruncated   = fmt.Errorf("%w: truncated bit buffer", ErrCorruptPayload)
	ErrInvalidText = fmt.Errorf("%w: payload is not valid UTF-8", ErrCorruptPayload)
)

// Encode converts text into the embeddable bit sequence.
// The result is HeaderBits + 8·len(text) bits long, MSB first.
func Encode(text string) ([]bool, error) {
	data := []byte(text)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: watermark text is empty", ErrInvalidInput)
	}
	if len(data) > PayloadLimit {
		return nil, fmt.Errorf("%w: text is %d bytes, limit %d", ErrCapacityExceeded, len(data), PayloadLimit)
	}

	buf := make([]byte, 0, HeaderBits/8+len(data))
	buf = append(buf, MagicTag...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	buf = append(buf, data...)

	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, b := range buf {
		w.Write8(0, 8, b)
	}
	r := bitstream.NewBitReader(w.Data(), 0, 0)
	bits := make([]bool, len(buf)*8)
	for i := range bits {
		bits[i], _ = r.ReadBitAt(i)
	}
	return bits, nil
}

// Decode reassembles the text from an extracted bit sequence. It never
// interprets data bits without first validating the header: a magic
// mismatch yields ErrNoWatermark, a length outside (0, PayloadLimit]
// yields ErrBadLength, and a buffer shorter than the declared payload
// yields ErrTruncated. All of these wrap ErrCorruptPayload.
func Decode(bits []bool) (string, error) {
	if len(bits) < HeaderBits {
		return "", fmt.Errorf("%w: %d bits, need at least %d", ErrTruncated, len(bits), HeaderBits)
	}

	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, v := range bits {
		w.WriteBool(v)
	}
	r := bitstream.NewBitReader(w.Data(), 0, 0)
	r.SetBits(len(bits))

	// Read8R addresses 8-bit blocks, so byte i lives at block i.
	header := make([]byte, 8)
	for i := range header {
		header[i] = r.Read8R(8, i)
	}
	if string(header[:4]) != MagicTag {
		return "", ErrNoWatermark
	}
	length := int(binary.BigEndian.Uint32(header[4:8]))
	if length <= 0 || length > PayloadLimit {
		return "", fmt.Errorf("%w: %d", ErrBadLength, length)
	}
	if want := HeaderBits + length*8; len(bits) < want {
		return "", fmt.Errorf("%w: expected %d bits, got %d", ErrTruncated, want, len(bits))
	}

	data := make([]byte, length)
	for i := range data {
		data[i] = r.Read8R(8, HeaderBits/8+i)
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidText
	}
	return string(data), nil
}

// Capacity reports the number of payload bits an image of the given
// pixel dimensions can carry: one bit per 64 pixels.
func Capacity(width, height int) int {
	return width * height / 64
}

// MaxTextBytes reports the largest DATA size embeddable in an image of
// the given dimensions, after the fixed header and the protocol limit.
func MaxTextBytes(width, height int) int {
	n := (Capacity(width, height) - HeaderBits) / 8
	if n < 0 {
		n = 0
	}
	if n > PayloadLimit {
		n = PayloadLimit
	}
	return n
}
