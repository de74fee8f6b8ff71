package channel

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"PhyChain/pkg/modem"

	"golang.org/x/exp/rand"
)

type Kind int

const (
	KindAWGN Kind = iota
	KindRayleigh
	KindRician
	KindFrequencySelective
)

var kindNames = [...]string{"awgn", "rayleigh", "rician", "frequency_selective"}

func (k Kind) String() string {
	if k < KindAWGN || k > KindFrequencySelective {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

const DefaultRicianK = 1.0

var DefaultProfile = []float64{1, 0.5, 0.25}

// State is the realization applied by the last Apply call, handed to the
// receiver as perfect channel knowledge. Gains is nil for AWGN. Taps is set
// only for frequency selective channels.
type State struct {
	Kind          Kind
	Gains         []complex128
	Taps          []complex128
	NoiseVariance float64
}

type Model interface {
	Kind() Kind
	// Apply returns a new slice of len(symbols) samples.
	Apply(symbols []complex128, snrDB float64, rng *rand.Rand) ([]complex128, State)
	validate() error
}

type AWGN struct{}

type Rayleigh struct{}

// Rician has a line of sight component of power K/(K+1) at a fixed phase
// plus scattered power 1/(K+1).
type Rician struct {
	K     float64
	Phase float64
}

// FrequencySelective is a tapped delay line with one tap per sample of
// delay. Profile holds tap amplitudes and is normalized to unit power.
type FrequencySelective struct {
	Profile []float64
}

func ParseModel(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "awgn":
		return AWGN{}, nil
	case "rayleigh":
		return Rayleigh{}, nil
	case "rician":
		return Rician{K: DefaultRicianK}, nil
	case "frequency_selective", "frequency-selective":
		return FrequencySelective{Profile: DefaultProfile}, nil
	}
	return nil, &modem.ConfigurationError{Field: "channel", Value: name}
}

func Validate(m Model) error {
	if m == nil {
		return &modem.ConfigurationError{Field: "channel", Value: "<nil>"}
	}
	return m.validate()
}

func (AWGN) Kind() Kind { return KindAWGN }

func (AWGN) validate() error { return nil }

func (AWGN) Apply(symbols []complex128, snrDB float64, rng *rand.Rand) ([]complex128, State) {
	out, variance := addNoise(symbols, snrDB, rng)
	return out, State{Kind: KindAWGN, NoiseVariance: variance}
}

func (Rayleigh) Kind() Kind { return KindRayleigh }

func (Rayleigh) validate() error { return nil }

func (Rayleigh) Apply(symbols []complex128, snrDB float64, rng *rand.Rand) ([]complex128, State) {
	gains := complexGaussian(rng, 1, len(symbols))
	return applyFlat(KindRayleigh, symbols, gains, snrDB, rng)
}

func (Rician) Kind() Kind { return KindRician }

func (r Rician) validate() error {
	if r.K < 0 || math.IsNaN(r.K) || math.IsInf(r.K, 0) {
		return &modem.ConfigurationError{Field: "rician_k", Value: fmt.Sprint(r.K)}
	}
	return nil
}

func (r Rician) Apply(symbols []complex128, snrDB float64, rng *rand.Rand) ([]complex128, State) {
	los := cmplx.Rect(math.Sqrt(r.K/(r.K+1)), r.Phase)
	gains := complexGaussian(rng, 1/(r.K+1), len(symbols))
	for i := range gains {
		gains[i] += los
	}
	return applyFlat(KindRician, symbols, gains, snrDB, rng)
}

func applyFlat(kind Kind, symbols, gains []complex128, snrDB float64, rng *rand.Rand) ([]complex128, State) {
	faded := make([]complex128, len(symbols))
	for i, s := range symbols {
		faded[i] = s * gains[i]
	}
	out, variance := addNoise(faded, snrDB, rng)
	return out, State{Kind: kind, Gains: gains, NoiseVariance: variance}
}

func (FrequencySelective) Kind() Kind { return KindFrequencySelective }

func (f FrequencySelective) validate() error {
	if len(f.Profile) == 0 {
		return &modem.ConfigurationError{Field: "taps", Value: "[]"}
	}
	var power float64
	for _, a := range f.Profile {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return &modem.ConfigurationError{Field: "taps", Value: fmt.Sprint(f.Profile)}
		}
		power += a * a
	}
	if power == 0 {
		return &modem.ConfigurationError{Field: "taps", Value: fmt.Sprint(f.Profile)}
	}
	return nil
}

// Apply draws one tap vector for the whole call and keeps the first
// len(symbols) outputs of the linear convolution.
func (f FrequencySelective) Apply(symbols []complex128, snrDB float64, rng *rand.Rand) ([]complex128, State) {
	taps := f.drawTaps(rng)
	out, variance := addNoise(Convolve(symbols, taps), snrDB, rng)
	return out, State{Kind: KindFrequencySelective, Taps: taps, NoiseVariance: variance}
}

func (f FrequencySelective) drawTaps(rng *rand.Rand) []complex128 {
	var power float64
	for _, a := range f.Profile {
		power += a * a
	}
	norm := math.Sqrt(power)
	fading := complexGaussian(rng, 1, len(f.Profile))
	taps := make([]complex128, len(f.Profile))
	for k, a := range f.Profile {
		taps[k] = complex(a/norm, 0) * fading[k]
	}
	return taps
}

// Convolve is the causal convolution of x with h truncated to len(x).
func Convolve(x, h []complex128) []complex128 {
	y := make([]complex128, len(x))
	for n := range y {
		for k := 0; k < len(h) && k <= n; k++ {
			y[n] += h[k] * x[n-k]
		}
	}
	return y
}
