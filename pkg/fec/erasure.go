package fec

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/klauspost/reedsolomon"
)

// every shard on the wire is followed by the CRC-32 of its content
const shardTrailer = 4

var errTooManyErasures = errors.New("too many erased shards")

// groupCoder protects a group of equal sized data shards with parity
// shards. Erased shards are nil when passed to reconstruct.
type groupCoder interface {
	dataShards() int
	parityShards() int
	encode(shards [][]byte) error
	reconstruct(shards [][]byte) error
}

func newGroupCoder(p Params) (groupCoder, error) {
	switch p.Strategy {
	case StrategyXOR:
		return xorCoder{data: p.Level}, nil
	case StrategyReedSolomon:
		enc, err := reedsolomon.New(RSDataShards, p.Level)
		if err != nil {
			return nil, err
		}
		return rsCoder{enc: enc, parity: p.Level}, nil
	}
	return nil, errors.New("no group coder for " + p.Strategy.String())
}

type xorCoder struct {
	data int
}

func (x xorCoder) dataShards() int   { return x.data }
func (x xorCoder) parityShards() int { return 1 }

func (x xorCoder) encode(shards [][]byte) error {
	parity := shards[x.data]
	clear(parity)
	for _, s := range shards[:x.data] {
		for i := range s {
			parity[i] ^= s[i]
		}
	}
	return nil
}

func (x xorCoder) reconstruct(shards [][]byte) error {
	missing, width := -1, 0
	for i, s := range shards {
		if s == nil {
			if missing >= 0 {
				return errTooManyErasures
			}
			missing = i
		} else {
			width = len(s)
		}
	}
	if missing < 0 {
		return nil
	}

	rebuilt := make([]byte, width)
	for i, s := range shards {
		if i == missing {
			continue
		}
		for j := range s {
			rebuilt[j] ^= s[j]
		}
	}
	shards[missing] = rebuilt
	return nil
}

type rsCoder struct {
	enc    reedsolomon.Encoder
	parity int
}

func (r rsCoder) dataShards() int   { return RSDataShards }
func (r rsCoder) parityShards() int { return r.parity }

func (r rsCoder) encode(shards [][]byte) error {
	return r.enc.Encode(shards)
}

func (r rsCoder) reconstruct(shards [][]byte) error {
	return r.enc.ReconstructData(shards)
}

func numGroups(length int, p Params, coder groupCoder) int {
	return numBlocks(numBlocks(length, p.BlockSize), coder.dataShards())
}

func encodeShards(dst, payload []byte, p Params) ([]byte, error) {
	coder, err := newGroupCoder(p)
	if err != nil {
		return nil, err
	}
	data := coder.dataShards()
	total := data + coder.parityShards()

	for g := 0; g < numGroups(len(payload), p, coder); g++ {
		shards := make([][]byte, total)
		for s := range shards {
			if s < data {
				shards[s] = paddedBlock(payload, g*data+s, p.BlockSize)
			} else {
				shards[s] = make([]byte, p.BlockSize)
			}
		}
		if err := coder.encode(shards); err != nil {
			return nil, err
		}

		rows := make([][]byte, total)
		for s, shard := range shards {
			row := make([]byte, 0, p.BlockSize+shardTrailer)
			row = append(row, shard...)
			rows[s] = binary.BigEndian.AppendUint32(row, crc32.ChecksumIEEE(shard))
		}
		dst = appendRows(dst, rows, p.Interleave)
	}
	return dst, nil
}

func decodeShards(body []byte, h Header, d *Diagnostics) []byte {
	bs := h.BlockSize
	coder, err := newGroupCoder(h.Params)
	if err != nil {
		d.warn(err)
		d.UnresolvedBytes += h.Length
		return make([]byte, h.Length)
	}
	data := coder.dataShards()
	total := data + coder.parityShards()
	width := bs + shardTrailer

	groups := numGroups(h.Length, h.Params, coder)
	out := make([]byte, 0, groups*data*bs)
	for g := 0; g < groups; g++ {
		rows, complete := splitRows(codeword(body, g, total*width), total, width, h.Interleave)

		shards := make([][]byte, total)
		var erased []int
		for s, row := range rows {
			content := row[:bs]
			if complete[s] && crc32.ChecksumIEEE(content) == binary.BigEndian.Uint32(row[bs:]) {
				shards[s] = content
				continue
			}
			d.CorruptShards++
			if s < data {
				erased = append(erased, s)
			}
		}

		if len(erased) > 0 {
			if err := coder.reconstruct(shards); err != nil {
				debugLog("[FEC] group %d: %v\n", g, err)
				for _, s := range erased {
					shards[s] = rows[s][:bs]
					d.UnresolvedBytes += payloadBytesIn(h, g*data+s)
				}
			} else {
				d.RepairedShards += len(erased)
			}
		}
		for _, s := range shards[:data] {
			out = append(out, s...)
		}
	}
	return out[:h.Length]
}

// payloadBytesIn counts the non-padding bytes of block i.
func payloadBytesIn(h Header, i int) int {
	return max(0, min(h.BlockSize, h.Length-i*h.BlockSize))
}
