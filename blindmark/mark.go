package blindmark

import (
	"math/rand"

	"github.com/yyyoichi/bitstream-go"
	watermark "github.com/yyyoichi/watermark_zero"
)

var (
	_ watermark.EmbedMark   = (*seededMark)(nil)
	_ watermark.ExtractMark = (*seededMark)(nil)
	_ watermark.MarkDecoder = (*markDecoder)(nil)
)

// seededMark carries payload bits through the frequency-domain codec in
// a deterministically permuted order. The permutation is keyed by the
// password seed, so an extraction with the wrong seed reassembles
// garbage and fails the payload's magic check. It also spreads the
// fixed header across the carrier instead of concentrating it in the
// first blocks.
type seededMark struct {
	bits []bool
	// perm[i] is the payload position carried at embed position i.
	perm []int
}

func newSeededMark(bits []bool, seed int64) *seededMark {
	return &seededMark{
		bits: bits,
		perm: rand.New(rand.NewSource(seed)).Perm(len(bits)),
	}
}

func (m *seededMark) Len() int {
	return len(m.bits)
}

func (m *seededMark) ExtractSize() int {
	return len(m.bits)
}

func (m *seededMark) GetBit(at int) float64 {
	if m.bits[m.perm[at%len(m.bits)]] {
		return 1
	}
	return 0
}

func (m *seededMark) NewDecoder(extracted []bool) watermark.MarkDecoder {
	bits := make([]bool, len(m.perm))
	for i, p := range m.perm {
		if i < len(extracted) {
			bits[p] = extracted[i]
		}
	}
	return &markDecoder{bits: bits}
}

type markDecoder struct {
	bits []bool
}

func (d *markDecoder) DecodeToBools() []bool {
	return d.bits
}

func (d *markDecoder) DecodeToBytes() []byte {
	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, v := range d.bits {
		w.WriteBool(v)
	}
	r := bitstream.NewBitReader(w.Data(), 0, 0)
	r.SetBits(len(d.bits))
	out := make([]byte, len(d.bits)/8)
	for i := range out {
		out[i] = r.Read8R(8, i)
	}
	return out
}

func (d *markDecoder) DecodeToString() string {
	return string(d.DecodeToBytes())
}
