package fec

import (
	"fmt"
	"strings"

	"PhyChain/pkg/modem"
)

// CodecID names the image format of the payload.
type CodecID byte

const (
	CodecJPEG    CodecID = 'J'
	CodecPNG     CodecID = 'P'
	CodecUnknown CodecID = 'X'
)

func (c CodecID) Valid() bool {
	return c == CodecJPEG || c == CodecPNG || c == CodecUnknown
}

func (c CodecID) String() string {
	switch c {
	case CodecJPEG:
		return "jpeg"
	case CodecPNG:
		return "png"
	case CodecUnknown:
		return "unknown"
	}
	return fmt.Sprintf("CodecID(%#x)", byte(c))
}

func ParseCodecID(name string) (CodecID, error) {
	switch strings.ToLower(name) {
	case "jpeg", "jpg":
		return CodecJPEG, nil
	case "png":
		return CodecPNG, nil
	case "", "unknown":
		return CodecUnknown, nil
	}
	return 0, &modem.ConfigurationError{Field: "codec", Value: name}
}

type Strategy uint8

const (
	StrategyRepetition Strategy = iota
	StrategyXOR
	StrategyReedSolomon
)

var strategyNames = [...]string{"repetition", "xor", "reedsolomon"}

func (s Strategy) Valid() bool {
	return s <= StrategyReedSolomon
}

func (s Strategy) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
	return strategyNames[s]
}

func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return StrategyRepetition, nil
	}
	for i, s := range strategyNames {
		if s == n {
			return Strategy(i), nil
		}
	}
	return 0, &modem.ConfigurationError{Field: "strategy", Value: name}
}

const (
	DefaultBlockSize = 1024
	DefaultLevel     = 2
	MaxBlockSize     = 1 << 24
	MaxLevel         = 255

	// RSDataShards is the number of blocks per Reed-Solomon group.
	RSDataShards = 4
	maxRSShards  = 256
)

// Params configures framing. Level is the replica count for repetition,
// the blocks per parity shard for xor and the parity shard count for
// reedsolomon.
type Params struct {
	Codec      CodecID
	BlockSize  int
	Strategy   Strategy
	Level      int
	Interleave bool
}

func DefaultParams() Params {
	return Params{
		Codec:     CodecUnknown,
		BlockSize: DefaultBlockSize,
		Strategy:  StrategyRepetition,
		Level:     DefaultLevel,
	}
}

func (p Params) Validate() error {
	switch {
	case !p.Codec.Valid():
		return &modem.ConfigurationError{Field: "codec", Value: p.Codec.String()}
	case p.BlockSize < 1 || p.BlockSize > MaxBlockSize:
		return &modem.ConfigurationError{Field: "block_size", Value: fmt.Sprint(p.BlockSize)}
	case !p.Strategy.Valid():
		return &modem.ConfigurationError{Field: "strategy", Value: p.Strategy.String()}
	case p.Level < 1 || p.Level > MaxLevel:
		return &modem.ConfigurationError{Field: "fec_level", Value: fmt.Sprint(p.Level)}
	case p.Strategy == StrategyReedSolomon && RSDataShards+p.Level > maxRSShards:
		return &modem.ConfigurationError{Field: "fec_level", Value: fmt.Sprint(p.Level)}
	}
	return nil
}
