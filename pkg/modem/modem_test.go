package modem

import (
	"crypto/rand"
	"errors"
	"math"
	"math/bits"
	"math/cmplx"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	EXPECTED_TOTAL_BITS = 4800
	TOLERANCE           = 1e-9
)

var ALL_SCHEMES = []Scheme{BPSK, QPSK, QAM16, QAM64, QAM256}

func randomBits(t *testing.T, n int) []uint8 {
	t.Helper()
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		t.Fatal(err)
	}
	for i := range buf {
		buf[i] &= 1
	}
	return buf
}

func TestQPSKMapping(t *testing.T) {
	symbols, err := Modulate([]uint8{1, 0, 1, 1}, QPSK)
	if err != nil {
		t.Fatal(err)
	}
	s := 1 / math.Sqrt2
	expected := []complex128{complex(-s, s), complex(-s, -s)}
	if len(symbols) != len(expected) {
		t.Fatalf("expected %d symbols, got %d", len(expected), len(symbols))
	}
	for i := range expected {
		if cmplx.Abs(symbols[i]-expected[i]) > TOLERANCE {
			t.Errorf("symbol %d: expected %v, got %v", i, expected[i], symbols[i])
		}
	}
	if diff := cmp.Diff([]uint8{1, 0, 1, 1}, Demodulate(symbols, QPSK)); diff != "" {
		t.Errorf("demodulated bits mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	input := randomBits(t, EXPECTED_TOTAL_BITS)
	for _, s := range ALL_SCHEMES {
		t.Run(s.String(), func(t *testing.T) {
			symbols, err := Modulate(input, s)
			if err != nil {
				t.Fatal(err)
			}
			if len(symbols) != EXPECTED_TOTAL_BITS/s.BitsPerSymbol() {
				t.Errorf("expected %d symbols, got %d", EXPECTED_TOTAL_BITS/s.BitsPerSymbol(), len(symbols))
			}
			if diff := cmp.Diff(input, Demodulate(symbols, s)); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnitEnergy(t *testing.T) {
	for _, s := range ALL_SCHEMES {
		table := Constellation(s)
		if len(table.Points) != s.Order() {
			t.Errorf("%v: expected %d points, got %d", s, s.Order(), len(table.Points))
		}
		if e := table.Energy(); math.Abs(e-1) > TOLERANCE {
			t.Errorf("%v: expected unit energy, got %f", s, e)
		}
	}
}

func TestGrayNeighbours(t *testing.T) {
	for _, s := range ALL_SCHEMES[1:] {
		points := Constellation(s).Points
		dmin := math.Inf(1)
		for i := range points {
			for j := i + 1; j < len(points); j++ {
				dmin = min(dmin, cmplx.Abs(points[i]-points[j]))
			}
		}
		for i := range points {
			for j := i + 1; j < len(points); j++ {
				if math.Abs(cmplx.Abs(points[i]-points[j])-dmin) < TOLERANCE {
					if n := bits.OnesCount(uint(i ^ j)); n != 1 {
						t.Errorf("%v: neighbours %d and %d differ in %d bits", s, i, j, n)
					}
				}
			}
		}
	}
}

func TestNearestTieBreak(t *testing.T) {
	idx, _ := Constellation(BPSK).Nearest(0)
	if idx != 0 {
		t.Errorf("expected tie to resolve to index 0, got %d", idx)
	}
	idx, _ = Constellation(QPSK).Nearest(0)
	if idx != 0 {
		t.Errorf("expected tie to resolve to index 0, got %d", idx)
	}
}

func TestModulateBadLength(t *testing.T) {
	if _, err := Modulate([]uint8{1, 0, 1}, QAM16); err == nil {
		t.Error("expected an error for a partial symbol")
	}
}

func TestUnknownScheme(t *testing.T) {
	if _, err := Modulate([]uint8{1}, Scheme(7)); err == nil {
		t.Error("expected an error for an unknown scheme")
	}
	if bits := Demodulate([]complex128{1, -1}, Scheme(7)); bits != nil {
		t.Errorf("expected no bits for an unknown scheme, got %v", bits)
	}
}

func TestParseScheme(t *testing.T) {
	tests := []struct {
		name     string
		expected Scheme
		ok       bool
	}{
		{"bpsk", BPSK, true},
		{"QPSK", QPSK, true},
		{"16qam", QAM16, true},
		{"64QAM", QAM64, true},
		{"256qam", QAM256, true},
		{"8psk", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseScheme(tt.name)
			if !tt.ok {
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Errorf("expected a configuration error, got %v", err)
				}
				return
			}
			if err != nil || s != tt.expected {
				t.Errorf("expected %v, got %v (%v)", tt.expected, s, err)
			}
		})
	}
}

func TestBitConversion(t *testing.T) {
	data := []byte("HELLO-5G")
	bits := BytesToBits(data)
	if len(bits) != 64 {
		t.Fatalf("expected 64 bits, got %d", len(bits))
	}
	if diff := cmp.Diff([]uint8{0, 1, 0, 0, 1, 0, 0, 0}, bits[:8]); diff != "" {
		t.Errorf("'H' should expand MSB first (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(data, BitsToBytes(bits)); diff != "" {
		t.Errorf("bytes mismatch (-want +got):\n%s", diff)
	}
	if n := CountBitErrors([]uint8{1, 0, 1, 1}, []uint8{1, 1, 1}); n != 2 {
		t.Errorf("expected 2 bit errors, got %d", n)
	}
}

func TestCRC8(t *testing.T) {
	c := CRC8Checker{Poly: CRC8Poly}
	if sum := c.Sum([]byte("123456789")); sum != 0xF4 {
		t.Errorf("expected 0xF4, got %#x", sum)
	}
	if !c.Check([]byte{}, 0) {
		t.Error("empty input should have a zero checksum")
	}
}
