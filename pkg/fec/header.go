package fec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	"PhyChain/pkg/modem"
)

const (
	HeaderSize   = 16
	HeaderCopies = 2
	BodyOffset   = HeaderSize * HeaderCopies

	flagInterleave = 1 << 0
	// copies differing in more bytes than this are not searched
	maxMergePositions = 8
)

var (
	magic    = [3]byte{'B', 'L', 'K'}
	crc8     = modem.CRC8Checker{Poly: modem.CRC8Poly}
	errCRC   = errors.New("header checksum mismatch")
	errMagic = errors.New("bad header magic")
)

type Header struct {
	Params
	Length int
}

// HeaderSource tells which rule recovered the header.
type HeaderSource int

const (
	SourcePrimary HeaderSource = iota
	SourceSecondary
	SourceMerged
	SourceUnverified
	SourceDefault
)

func (s HeaderSource) String() string {
	switch s {
	case SourcePrimary:
		return "primary"
	case SourceSecondary:
		return "secondary"
	case SourceMerged:
		return "merged"
	case SourceUnverified:
		return "unverified"
	case SourceDefault:
		return "default"
	}
	return fmt.Sprintf("HeaderSource(%d)", int(s))
}

func (h Header) MarshalBinary() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if h.Length < 0 || uint64(h.Length) > uint64(^uint32(0)) {
		return nil, &modem.ConfigurationError{Field: "payload_length", Value: fmt.Sprint(h.Length)}
	}

	b := make([]byte, HeaderSize)
	copy(b, magic[:])
	b[3] = byte(h.Codec)
	binary.BigEndian.PutUint32(b[4:8], uint32(h.Length))
	binary.BigEndian.PutUint32(b[8:12], uint32(h.BlockSize))
	b[12] = byte(h.Strategy)
	b[13] = byte(h.Level)
	if h.Interleave {
		b[14] |= flagInterleave
	}
	b[15] = crc8.Sum(b[:15])
	return b, nil
}

// parseHeader decodes one copy. Field ranges are always checked, the
// checksum only when verify is set.
func parseHeader(b []byte, verify bool) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header truncated to %d bytes", len(b))
	}
	if b[0] != magic[0] || b[1] != magic[1] || b[2] != magic[2] {
		return Header{}, errMagic
	}
	if verify && !crc8.Check(b[:15], b[15]) {
		return Header{}, errCRC
	}
	if b[14]&^flagInterleave != 0 {
		return Header{}, fmt.Errorf("unknown header flags %#x", b[14])
	}

	h := Header{
		Params: Params{
			Codec:      CodecID(b[3]),
			BlockSize:  int(binary.BigEndian.Uint32(b[8:12])),
			Strategy:   Strategy(b[12]),
			Level:      int(b[13]),
			Interleave: b[14]&flagInterleave != 0,
		},
		Length: int(binary.BigEndian.Uint32(b[4:8])),
	}
	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// recoverHeader tries, in order: a copy that verifies, a merge of both
// copies, a copy with sane fields but a bad checksum. Every candidate must
// also be plausible for the body length.
func recoverHeader(framed []byte) (Header, HeaderSource) {
	bodyLen := max(0, len(framed)-BodyOffset)
	var copies [][]byte
	for i := 0; i < HeaderCopies && len(framed) >= (i+1)*HeaderSize; i++ {
		copies = append(copies, framed[i*HeaderSize:(i+1)*HeaderSize])
	}

	for i, c := range copies {
		if h, err := parseHeader(c, true); err == nil && plausible(h, bodyLen) {
			return h, HeaderSource(i)
		}
	}
	if len(copies) == HeaderCopies {
		if h, ok := mergeHeaders(copies[0], copies[1]); ok && plausible(h, bodyLen) {
			return h, SourceMerged
		}
	}
	for _, c := range copies {
		if h, err := parseHeader(c, false); err == nil && plausible(h, bodyLen) {
			return h, SourceUnverified
		}
	}
	return Header{}, SourceDefault
}

// mergeHeaders keeps the bytes both copies agree on and searches every
// mix of the disagreeing ones for a copy that verifies.
func mergeHeaders(a, b []byte) (Header, bool) {
	var diff []int
	for i := 0; i < HeaderSize; i++ {
		if a[i] != b[i] {
			diff = append(diff, i)
		}
	}
	if len(diff) == 0 || len(diff) > maxMergePositions {
		return Header{}, false
	}

	candidate := make([]byte, HeaderSize)
	copy(candidate, a)
	// fewer bytes taken from b first
	for weight := 1; weight <= len(diff); weight++ {
		for mask := 1; mask < 1<<len(diff); mask++ {
			if bits.OnesCount(uint(mask)) != weight {
				continue
			}
			for k, pos := range diff {
				if mask&(1<<k) != 0 {
					candidate[pos] = b[pos]
				} else {
					candidate[pos] = a[pos]
				}
			}
			if h, err := parseHeader(candidate, true); err == nil {
				return h, true
			}
		}
	}
	return Header{}, false
}

// plausible rejects headers announcing more than twice the received body.
func plausible(h Header, bodyLen int) bool {
	return BodySize(h) <= 2*bodyLen
}

// defaultHeader is used when no copy survives. The payload length is
// inferred from the body.
func defaultHeader(bodyLen int) Header {
	h := Header{Params: DefaultParams()}
	h.Length = bodyLen / h.Level
	return h
}
