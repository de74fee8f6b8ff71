package layers

import (
	"crypto/rand"
	"errors"
	"math"
	"testing"

	"PhyChain/pkg/channel"
	"PhyChain/pkg/modem"

	"github.com/google/go-cmp/cmp"
)

var (
	ALL_MODULATIONS = []string{"bpsk", "qpsk", "16qam", "64qam", "256qam"}
	ALL_CHANNELS    = []string{"awgn", "rayleigh", "rician", "frequency_selective"}
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestPhysicalLayerNoiseless(t *testing.T) {
	const PAYLOAD_SIZE = 600

	inputBytes := randomBytes(t, PAYLOAD_SIZE)
	for _, simplified := range []bool{true, false} {
		for _, modulation := range ALL_MODULATIONS {
			for _, channelType := range ALL_CHANNELS {
				name := modulation + "/" + channelType
				if !simplified {
					name += "/ofdm"
				}
				t.Run(name, func(t *testing.T) {
					physicalLayer, err := CreateSystem(modulation, math.Inf(1), channelType, simplified, WithSeed(7))
					if err != nil {
						t.Fatal(err)
					}
					output, ber := physicalLayer.TransmitReceive(inputBytes)
					if ber != 0 {
						t.Errorf("expected zero BER, got %g", ber)
					}
					if diff := cmp.Diff(inputBytes, output); diff != "" {
						t.Errorf("output mismatch (-want +got):\n%s", diff)
					}
				})
			}
		}
	}
}

func TestBERExcludesPadding(t *testing.T) {
	const SNR = 2

	// 7 bytes are 56 bits, not a multiple of 6
	inputBytes := randomBytes(t, 7)
	physicalLayer, err := CreateSystem("64qam", SNR, "awgn", true, WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	output, ber := physicalLayer.TransmitReceive(inputBytes)
	if len(output) != len(inputBytes) {
		t.Fatalf("expected %d bytes, got %d", len(inputBytes), len(output))
	}
	errs := modem.CountBitErrors(modem.BytesToBits(inputBytes), modem.BytesToBits(output))
	if expected := float64(errs) / 56; ber != expected {
		t.Errorf("expected BER %g, got %g", expected, ber)
	}
	if n := len(physicalLayer.LastTransmission().Sent); n != 10 {
		t.Errorf("expected 10 symbols, got %d", n)
	}
}

func TestBERDecreasesWithSNR(t *testing.T) {
	const PAYLOAD_SIZE = 20000

	inputBytes := make([]byte, PAYLOAD_SIZE)
	channel.NewRand(99).Read(inputBytes)

	physicalLayer, err := CreateSystem("qpsk", 0, "awgn", true, WithSeed(11))
	if err != nil {
		t.Fatal(err)
	}

	var bers []float64
	for _, snr := range []float64{0, 4, 8, 12} {
		if err := physicalLayer.SetSNRdB(snr); err != nil {
			t.Fatal(err)
		}
		_, ber := physicalLayer.TransmitReceive(inputBytes)
		bers = append(bers, ber)
	}
	t.Logf("BER: %v", bers)

	for i := 1; i < len(bers); i++ {
		if bers[i] > bers[i-1] {
			t.Errorf("BER rose from %g to %g", bers[i-1], bers[i])
		}
	}
	// Q(sqrt(10^0.4)) for Gray coded QPSK
	if theory := 0.0565; math.Abs(bers[1]-theory)/theory > 0.1 {
		t.Errorf("expected BER near %g at 4 dB, got %g", theory, bers[1])
	}
}

func TestSeededSystemsAgree(t *testing.T) {
	inputBytes := randomBytes(t, 256)
	a, _ := CreateSystem("16qam", 6, "rayleigh", true, WithSeed(5))
	b, _ := CreateSystem("16qam", 6, "rayleigh", true, WithSeed(5))

	outA, berA := a.TransmitReceive(inputBytes)
	outB, berB := b.TransmitReceive(inputBytes)
	if berA != berB {
		t.Errorf("expected equal BER, got %g and %g", berA, berB)
	}
	if diff := cmp.Diff(outA, outB); diff != "" {
		t.Errorf("outputs differ (-a +b):\n%s", diff)
	}
}

func TestEmptyInput(t *testing.T) {
	physicalLayer, err := CreateSystem("qpsk", 10, "awgn", true)
	if err != nil {
		t.Fatal(err)
	}
	output, ber := physicalLayer.TransmitReceive(nil)
	if len(output) != 0 || ber != 0 {
		t.Errorf("expected no output and zero BER, got %v %g", output, ber)
	}
}

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		make func() error
	}{
		{"modulation", func() error { _, err := CreateSystem("8psk", 10, "awgn", true); return err }},
		{"channel", func() error { _, err := CreateSystem("qpsk", 10, "nakagami", true); return err }},
		{"snr", func() error { _, err := CreateSystem("qpsk", math.NaN(), "awgn", true); return err }},
		{"subcarriers", func() error {
			_, err := CreateSystem("qpsk", 10, "awgn", false, WithOFDM(OFDMConfig{NFFT: 64, Subcarriers: 64, CyclicPrefix: 16}))
			return err
		}},
		{"cyclic prefix", func() error {
			_, err := CreateSystem("qpsk", 10, "frequency_selective", false, WithOFDM(OFDMConfig{NFFT: 64, Subcarriers: 48, CyclicPrefix: 1}))
			return err
		}},
		{"rician k", func() error {
			_, err := CreateSystem("qpsk", 10, "rician", true, WithModel(channel.Rician{K: -2}))
			return err
		}},
		{"set modulation", func() error {
			p, _ := CreateSystem("qpsk", 10, "awgn", true)
			return p.SetModulationType("1024qam")
		}},
		{"set channel", func() error {
			p, _ := CreateSystem("qpsk", 10, "awgn", true)
			return p.SetChannelType("")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfgErr *modem.ConfigurationError
			if err := tt.make(); !errors.As(err, &cfgErr) {
				t.Errorf("expected a configuration error, got %v", err)
			}
		})
	}
}

func TestMutators(t *testing.T) {
	physicalLayer, err := CreateSystem("bpsk", 10, "awgn", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := physicalLayer.SetModulationType("256QAM"); err != nil {
		t.Fatal(err)
	}
	if err := physicalLayer.SetChannelType("frequency_selective"); err != nil {
		t.Fatal(err)
	}
	if err := physicalLayer.SetChannelModel(channel.FrequencySelective{Profile: make([]float64, 40)}); err == nil {
		t.Error("expected an all-zero profile to be rejected")
	}
	if physicalLayer.Model().Kind() != channel.KindFrequencySelective || physicalLayer.Scheme() != modem.QAM256 {
		t.Errorf("unexpected state %v %v", physicalLayer.Scheme(), physicalLayer.Model().Kind())
	}

	long := make([]float64, 20)
	long[0] = 1
	if err := physicalLayer.SetChannelModel(channel.FrequencySelective{Profile: long}); err == nil {
		t.Error("expected a channel longer than the cyclic prefix to be rejected")
	}
	if _, ok := physicalLayer.Model().(channel.FrequencySelective); !ok {
		t.Error("rejected model should not replace the current one")
	}

	if err := physicalLayer.SetModulationType("1024qam"); err == nil {
		t.Error("expected an unknown modulation to be rejected")
	}
	if physicalLayer.Scheme() != modem.QAM256 {
		t.Errorf("rejected modulation replaced the scheme with %v", physicalLayer.Scheme())
	}
	if err := physicalLayer.SetSNRdB(math.NaN()); err == nil {
		t.Error("expected a NaN SNR to be rejected")
	}
	if physicalLayer.SNRdB() != 10 {
		t.Errorf("rejected SNR replaced the current one with %v", physicalLayer.SNRdB())
	}
	if out, _ := physicalLayer.TransmitReceive([]byte("still usable")); len(out) != 12 {
		t.Errorf("expected 12 bytes back, got %d", len(out))
	}
}

func TestDecisionFeedback(t *testing.T) {
	table := modem.Constellation(modem.QPSK)
	sent := []complex128{table.Points[0], table.Points[3], table.Points[1], table.Points[2]}
	taps := []complex128{complex(0.8, 0.1), 0.5, complex(0, -0.3)}

	equalized := decisionFeedback(channel.Convolve(sent, taps), taps, table)
	for i := range sent {
		if idx, _ := table.Nearest(equalized[i]); table.Points[idx] != sent[i] {
			t.Errorf("symbol %d: expected %v, got %v", i, sent[i], equalized[i])
		}
	}
}
