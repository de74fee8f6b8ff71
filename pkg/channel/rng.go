package channel

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// NewRand returns the generator handle every model draws from.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// complexGaussian draws n samples of CN(0, variance).
func complexGaussian(rng *rand.Rand, variance float64, n int) []complex128 {
	out := make([]complex128, n)
	if variance <= 0 {
		return out
	}
	dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(variance / 2), Src: rng}
	for i := range out {
		re := dist.Rand()
		im := dist.Rand()
		out[i] = complex(re, im)
	}
	return out
}
