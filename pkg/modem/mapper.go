package modem

import "fmt"

func Modulate(bits []uint8, s Scheme) ([]complex128, error) {
	if !s.Valid() {
		return nil, &ConfigurationError{Field: "modulation", Value: s.String()}
	}
	bps := s.BitsPerSymbol()
	if len(bits)%bps != 0 {
		return nil, fmt.Errorf("modulate %v: %d bits is not a multiple of %d", s, len(bits), bps)
	}

	table := Constellation(s)
	symbols := make([]complex128, len(bits)/bps)
	for i := range symbols {
		idx := 0
		for _, b := range bits[i*bps : (i+1)*bps] {
			idx = idx<<1 | int(b&1)
		}
		symbols[i] = table.Points[idx]
	}
	return symbols, nil
}

// Demodulate makes a hard decision per symbol. An unknown scheme yields
// no bits.
func Demodulate(symbols []complex128, s Scheme) []uint8 {
	if !s.Valid() {
		return nil
	}
	table := Constellation(s)
	bps := s.BitsPerSymbol()
	bits := make([]uint8, 0, len(symbols)*bps)
	for _, z := range symbols {
		idx, _ := table.Nearest(z)
		bits = appendIndexBits(bits, idx, bps)
	}
	return bits
}

func appendIndexBits(bits []uint8, idx, bps int) []uint8 {
	for k := bps - 1; k >= 0; k-- {
		bits = append(bits, uint8(idx>>k)&1)
	}
	return bits
}
