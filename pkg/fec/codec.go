package fec

import (
	"fmt"
	"log"
)

// Debug enables per-frame tracing on the standard logger.
var Debug = false

func debugLog(format string, args ...any) {
	if Debug {
		log.Printf(format, args...)
	}
}

// Encode frames payload: the header twice, then the protected blocks.
func Encode(payload []byte, p Params) ([]byte, error) {
	h := Header{Params: p, Length: len(payload)}
	hdr, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, BodyOffset+BodySize(h))
	for i := 0; i < HeaderCopies; i++ {
		out = append(out, hdr...)
	}

	if p.Strategy == StrategyRepetition {
		out = encodeRepetition(out, payload, p)
	} else if out, err = encodeShards(out, payload, p); err != nil {
		return nil, fmt.Errorf("encode %v: %w", p.Strategy, err)
	}

	debugLog("[FEC] framed %d payload bytes into %d bytes (%v, level %d, interleave %v)\n",
		len(payload), len(out), p.Strategy, p.Level, p.Interleave)
	return out, nil
}

// BodySize is the number of bytes following the headers.
func BodySize(h Header) int {
	if h.Strategy == StrategyRepetition {
		return numBlocks(h.Length, h.BlockSize) * h.BlockSize * h.Level
	}
	coder, err := newGroupCoder(h.Params)
	if err != nil {
		return 0
	}
	shards := coder.dataShards() + coder.parityShards()
	return numGroups(h.Length, h.Params, coder) * shards * (h.BlockSize + shardTrailer)
}

// Decode recovers a best effort payload. It never fails; everything that
// went wrong is reported in the diagnostics.
func Decode(framed []byte) ([]byte, Diagnostics) {
	var d Diagnostics

	var body []byte
	if len(framed) > BodyOffset {
		body = framed[BodyOffset:]
	}

	h, source := recoverHeader(framed)
	d.HeaderSource = source
	switch source {
	case SourceDefault:
		h = defaultHeader(len(body))
		d.HeaderFallback = true
		d.warn(fmt.Errorf("%w: no usable header copy, assuming defaults", ErrFraming))
	case SourceUnverified:
		d.warn(fmt.Errorf("%w: %v", ErrFraming, errCRC))
	}
	d.Header = h

	if expected := BodySize(h); len(body) < expected {
		d.MissingBytes = expected - len(body)
		d.warn(fmt.Errorf("%w: body truncated by %d bytes", ErrFraming, d.MissingBytes))
	}

	var payload []byte
	if h.Strategy == StrategyRepetition {
		payload = decodeRepetition(body, h, &d)
	} else {
		payload = decodeShards(body, h, &d)
	}

	if d.UnresolvedBytes > 0 {
		d.warn(fmt.Errorf("%w: %d of %d", ErrUnresolvedBytes, d.UnresolvedBytes, h.Length))
	}
	debugLog("[FEC] header %v, %d unresolved, %d/%d shards repaired\n",
		source, d.UnresolvedBytes, d.RepairedShards, d.CorruptShards)
	return payload, d
}
