package modem

// BytesToBits expands data MSB first.
func BytesToBits(data []byte) []uint8 {
	bits := make([]uint8, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>i)&1)
		}
	}
	return bits
}

// BitsToBytes packs bits MSB first. A trailing partial byte is zero filled.
func BitsToBytes(bits []uint8) []byte {
	data := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b&1 == 1 {
			data[i/8] |= 1 << (7 - i%8)
		}
	}
	return data
}

// CountBitErrors compares the common prefix and counts every bit present in
// only one of the inputs as an error.
func CountBitErrors(a, b []uint8) int {
	n := min(len(a), len(b))
	errs := max(len(a), len(b)) - n
	for i := 0; i < n; i++ {
		if a[i]&1 != b[i]&1 {
			errs++
		}
	}
	return errs
}
