package layers

import "PhyChain/pkg/modem"

type Encoder struct {
	ofdm *ofdm
}

// encode pads bits with zeros to a whole number of symbols and maps them.
// The pad count stays with the caller.
func (e *Encoder) encode(bits []uint8, s modem.Scheme) ([]complex128, int) {
	bps := s.BitsPerSymbol()
	pad := (bps - len(bits)%bps) % bps

	padded := make([]uint8, len(bits)+pad)
	copy(padded, bits)

	symbols, err := modem.Modulate(padded, s)
	if err != nil {
		// padded is a whole number of symbols
		panic(err)
	}
	return symbols, pad
}
