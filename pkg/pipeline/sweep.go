package pipeline

import (
	"fmt"
	"math"

	"PhyChain/pkg/async"
	"PhyChain/pkg/channel"
	"PhyChain/pkg/layers"
	"PhyChain/pkg/modem"

	"gonum.org/v1/gonum/stat"
)

type SweepConfig struct {
	Modulation string
	Channel    string
	Simplified bool
	SNRs       []float64
	Trials     int
	Bytes      int
	Seed       uint64
}

type SweepPoint struct {
	SNRdB   float64
	MeanBER float64
	StdBER  float64
	Trials  int
}

// SNRRange lists start, start+step, ... up to stop inclusive.
func SNRRange(start, stop, step float64) []float64 {
	if step <= 0 || stop < start {
		return []float64{start}
	}
	var snrs []float64
	n := int(math.Floor((stop-start)/step + 1e-9))
	for i := 0; i <= n; i++ {
		snrs = append(snrs, start+float64(i)*step)
	}
	return snrs
}

// Sweep measures the BER at every SNR over random payloads. Each point
// runs concurrently on its own transceiver seeded Seed+index, so results
// do not depend on scheduling.
func Sweep(cfg SweepConfig, opts ...layers.Option) ([]SweepPoint, error) {
	if cfg.Trials < 1 {
		return nil, &modem.ConfigurationError{Field: "trials", Value: fmt.Sprint(cfg.Trials)}
	}
	if cfg.Bytes < 1 {
		return nil, &modem.ConfigurationError{Field: "bytes", Value: fmt.Sprint(cfg.Bytes)}
	}

	points := make([]<-chan async.Result[SweepPoint], len(cfg.SNRs))
	for i, snr := range cfg.SNRs {
		snr := snr
		seed := cfg.Seed + uint64(i)
		points[i] = async.Try(func() (SweepPoint, error) {
			sys, err := layers.CreateSystem(cfg.Modulation, snr, cfg.Channel, cfg.Simplified,
				append(opts[:len(opts):len(opts)], layers.WithSeed(seed))...)
			if err != nil {
				return SweepPoint{}, err
			}
			return measure(sys, cfg, seed), nil
		})
	}
	results, err := async.Collect(points...)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func measure(sys *layers.PhysicalLayer, cfg SweepConfig, seed uint64) SweepPoint {
	payloads := channel.NewRand(^seed)
	data := make([]byte, cfg.Bytes)
	bers := make([]float64, cfg.Trials)
	for t := range bers {
		payloads.Read(data)
		_, bers[t] = sys.TransmitReceive(data)
	}

	mean, std := stat.MeanStdDev(bers, nil)
	if cfg.Trials == 1 {
		std = 0
	}
	debugLog("[Pipeline] sweep %.1f dB: BER %.3g ± %.2g\n", sys.SNRdB(), mean, std)
	return SweepPoint{SNRdB: sys.SNRdB(), MeanBER: mean, StdBER: std, Trials: cfg.Trials}
}
