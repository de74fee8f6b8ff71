package modem

import (
	"math"
	"math/cmplx"
	"sync"
)

// Table is an immutable constellation. Point i carries the bit pattern of i,
// MSB first.
type Table struct {
	Scheme Scheme
	Points []complex128
}

var (
	tables     [len(schemeNames)]*Table
	tablesOnce [len(schemeNames)]sync.Once
)

func Constellation(s Scheme) *Table {
	tablesOnce[s].Do(func() {
		tables[s] = buildTable(s)
	})
	return tables[s]
}

func buildTable(s Scheme) *Table {
	bps := s.BitsPerSymbol()
	points := make([]complex128, 1<<bps)

	if s == BPSK {
		points[0], points[1] = 1, -1
		return &Table{Scheme: s, Points: points}
	}

	// square QAM: the high half of the bits picks the in-phase level,
	// the low half the quadrature level, each Gray coded
	half := bps / 2
	levels := pamLevels(1 << half)
	mask := 1<<half - 1
	var power float64
	for i := range points {
		p := complex(levels[i>>half], levels[i&mask])
		points[i] = p
		power += real(p)*real(p) + imag(p)*imag(p)
	}

	scale := 1 / math.Sqrt(power/float64(len(points)))
	for i := range points {
		points[i] *= complex(scale, 0)
	}
	return &Table{Scheme: s, Points: points}
}

// pamLevels maps every Gray label to its amplitude. Label 0 sits on the
// most positive level and neighbouring levels differ in one bit.
func pamLevels(order int) []float64 {
	levels := make([]float64, order)
	for i := 0; i < order; i++ {
		gray := i ^ (i >> 1)
		levels[gray] = float64(order - 1 - 2*i)
	}
	return levels
}

// Nearest returns the closest point by Euclidean distance. Ties go to the
// lowest index.
func (t *Table) Nearest(z complex128) (int, complex128) {
	best := 0
	bestDist := math.Inf(1)
	for i, p := range t.Points {
		d := p - z
		dist := real(d)*real(d) + imag(d)*imag(d)
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best, t.Points[best]
}

// Energy is the mean of |p|^2 over the table.
func (t *Table) Energy() float64 {
	var e float64
	for _, p := range t.Points {
		a := cmplx.Abs(p)
		e += a * a
	}
	return e / float64(len(t.Points))
}
