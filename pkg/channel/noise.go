package channel

import (
	"math"

	"golang.org/x/exp/rand"
)

// NoiseVariance is the complex noise power for a unit power signal.
// An infinite SNR is noiseless.
func NoiseVariance(snrDB float64) float64 {
	if math.IsInf(snrDB, 1) {
		return 0
	}
	return math.Pow(10, -snrDB/10)
}

func addNoise(signal []complex128, snrDB float64, rng *rand.Rand) ([]complex128, float64) {
	variance := NoiseVariance(snrDB)
	noise := complexGaussian(rng, variance, len(signal))
	out := make([]complex128, len(signal))
	for i, s := range signal {
		out[i] = s + noise[i]
	}
	return out, variance
}
