package layers

import (
	"fmt"
	"math"

	"PhyChain/pkg/channel"
	"PhyChain/pkg/modem"

	"gonum.org/v1/gonum/dsp/fourier"
)

// OFDMConfig describes a plain multicarrier waveform: Subcarriers data
// carriers split around an unused DC bin of an NFFT point transform, each
// symbol preceded by CyclicPrefix samples.
type OFDMConfig struct {
	NFFT         int
	Subcarriers  int
	CyclicPrefix int
}

var DefaultOFDM = OFDMConfig{NFFT: 64, Subcarriers: 48, CyclicPrefix: 16}

func (c OFDMConfig) validate(m channel.Model) error {
	switch {
	case c.NFFT < 4:
		return &modem.ConfigurationError{Field: "ofdm.nfft", Value: fmt.Sprint(c.NFFT)}
	case c.Subcarriers < 2 || c.Subcarriers%2 != 0 || c.Subcarriers >= c.NFFT:
		return &modem.ConfigurationError{Field: "ofdm.nsc", Value: fmt.Sprint(c.Subcarriers)}
	case c.CyclicPrefix < 0 || c.CyclicPrefix >= c.NFFT:
		return &modem.ConfigurationError{Field: "ofdm.cp", Value: fmt.Sprint(c.CyclicPrefix)}
	}
	if fs, ok := m.(channel.FrequencySelective); ok && c.CyclicPrefix < len(fs.Profile)-1 {
		return &modem.ConfigurationError{Field: "ofdm.cp", Value: fmt.Sprintf("%d (channel spans %d taps)", c.CyclicPrefix, len(fs.Profile))}
	}
	return nil
}

type ofdm struct {
	cfg      OFDMConfig
	fft      *fourier.CmplxFFT
	carriers []int
}

func newOFDM(cfg OFDMConfig) *ofdm {
	o := &ofdm{cfg: cfg}
	if cfg.NFFT > 0 {
		o.fft = fourier.NewCmplxFFT(cfg.NFFT)
	}
	half := cfg.Subcarriers / 2
	for k := 1; k <= half; k++ {
		o.carriers = append(o.carriers, k)
	}
	for k := cfg.NFFT - half; k < cfg.NFFT; k++ {
		o.carriers = append(o.carriers, k)
	}
	return o
}

func (o *ofdm) symbolLen() int {
	return o.cfg.NFFT + o.cfg.CyclicPrefix
}

// modulate spreads symbols over OFDM symbols with unit average sample
// power. Unused carriers of the last OFDM symbol stay zero.
func (o *ofdm) modulate(symbols []complex128) []complex128 {
	nsc, nfft, cp := o.cfg.Subcarriers, o.cfg.NFFT, o.cfg.CyclicPrefix
	count := (len(symbols) + nsc - 1) / nsc

	out := make([]complex128, 0, count*o.symbolLen())
	freq := make([]complex128, nfft)
	samples := make([]complex128, nfft)
	scale := complex(1/math.Sqrt(float64(nsc)), 0)
	for s := 0; s < count; s++ {
		clear(freq)
		for k, c := range o.carriers {
			if i := s*nsc + k; i < len(symbols) {
				freq[c] = symbols[i]
			}
		}
		o.fft.Sequence(samples, freq)
		for i := range samples {
			samples[i] *= scale
		}
		out = append(out, samples[nfft-cp:]...)
		out = append(out, samples...)
	}
	return out
}

// demodulate returns the first n carrier values. With taps set every
// carrier is zero-forced by the channel frequency response.
func (o *ofdm) demodulate(samples []complex128, n int, taps []complex128) []complex128 {
	nsc, nfft, cp := o.cfg.Subcarriers, o.cfg.NFFT, o.cfg.CyclicPrefix

	var response []complex128
	if taps != nil {
		h := make([]complex128, nfft)
		copy(h, taps)
		response = o.fft.Coefficients(nil, h)
	}

	out := make([]complex128, 0, n+nsc)
	freq := make([]complex128, nfft)
	scale := complex(math.Sqrt(float64(nsc))/float64(nfft), 0)
	for start := 0; start+o.symbolLen() <= len(samples) && len(out) < n; start += o.symbolLen() {
		o.fft.Coefficients(freq, samples[start+cp:start+o.symbolLen()])
		for _, c := range o.carriers {
			y := freq[c] * scale
			if response != nil {
				y /= response[c] + zfEpsilon
			}
			out = append(out, y)
		}
	}
	return out[:n]
}
