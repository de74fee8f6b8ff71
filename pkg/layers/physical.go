package layers

import (
	"fmt"
	"log"
	"math"

	"PhyChain/pkg/channel"
	"PhyChain/pkg/modem"

	"golang.org/x/exp/rand"
)

const DefaultSeed = 1

// Debug enables per-call tracing on the standard logger.
var Debug = false

func debugLog(format string, args ...any) {
	if Debug {
		log.Printf(format, args...)
	}
}

// PhysicalLayer carries bytes over a simulated channel. It owns its
// generator and is not safe for concurrent use.
type PhysicalLayer struct {
	scheme     modem.Scheme
	model      channel.Model
	snrDB      float64
	simplified bool

	encoder Encoder
	decoder Decoder

	rng  *rand.Rand
	last Transmission
}

// Transmission is a snapshot of the last TransmitReceive call, with the
// received symbols taken after equalization.
type Transmission struct {
	Sent     []complex128
	Received []complex128
	State    channel.State
}

type Option func(*PhysicalLayer) error

func WithSeed(seed uint64) Option {
	return func(p *PhysicalLayer) error {
		p.rng = channel.NewRand(seed)
		return nil
	}
}

// WithModel replaces the channel named in CreateSystem, e.g. to set the
// Rician K factor or a tap profile.
func WithModel(m channel.Model) Option {
	return func(p *PhysicalLayer) error {
		if err := channel.Validate(m); err != nil {
			return err
		}
		p.model = m
		return nil
	}
}

func WithOFDM(cfg OFDMConfig) Option {
	return func(p *PhysicalLayer) error {
		p.encoder.ofdm = newOFDM(cfg)
		p.decoder.ofdm = p.encoder.ofdm
		return nil
	}
}

// CreateSystem builds a transceiver from configuration names. Unknown
// names fail immediately with a *modem.ConfigurationError.
func CreateSystem(modulation string, snrDB float64, channelType string, simplified bool, opts ...Option) (*PhysicalLayer, error) {
	scheme, err := modem.ParseScheme(modulation)
	if err != nil {
		return nil, err
	}
	model, err := channel.ParseModel(channelType)
	if err != nil {
		return nil, err
	}

	p := &PhysicalLayer{
		scheme:     scheme,
		model:      model,
		simplified: simplified,
		rng:        channel.NewRand(DefaultSeed),
	}
	if err := p.SetSNRdB(snrDB); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if !simplified && p.encoder.ofdm == nil {
		p.encoder.ofdm = newOFDM(DefaultOFDM)
		p.decoder.ofdm = p.encoder.ofdm
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PhysicalLayer) check() error {
	if p.simplified {
		return nil
	}
	return p.encoder.ofdm.cfg.validate(p.model)
}

func (p *PhysicalLayer) Scheme() modem.Scheme { return p.scheme }

func (p *PhysicalLayer) Model() channel.Model { return p.model }

func (p *PhysicalLayer) SNRdB() float64 { return p.snrDB }

// Simplified reports whether symbols go through the channel directly
// instead of the multicarrier waveform.
func (p *PhysicalLayer) Simplified() bool { return p.simplified }

func (p *PhysicalLayer) SetModulationType(name string) error {
	scheme, err := modem.ParseScheme(name)
	if err != nil {
		return err
	}
	p.scheme = scheme
	return nil
}

func (p *PhysicalLayer) SetChannelType(name string) error {
	model, err := channel.ParseModel(name)
	if err != nil {
		return err
	}
	return p.SetChannelModel(model)
}

func (p *PhysicalLayer) SetChannelModel(m channel.Model) error {
	if err := channel.Validate(m); err != nil {
		return err
	}
	prev := p.model
	p.model = m
	if err := p.check(); err != nil {
		p.model = prev
		return err
	}
	return nil
}

func (p *PhysicalLayer) SetSNRdB(snr float64) error {
	if math.IsNaN(snr) || math.IsInf(snr, -1) {
		return &modem.ConfigurationError{Field: "snr_db", Value: fmt.Sprint(snr)}
	}
	p.snrDB = snr
	return nil
}

func (p *PhysicalLayer) Reseed(seed uint64) {
	p.rng = channel.NewRand(seed)
}

func (p *PhysicalLayer) LastTransmission() Transmission {
	return p.last
}

// TransmitReceive sends data through the chain and returns the received
// bytes with the bit error rate over the data bits. Padding added to fill
// the last symbol is not counted.
func (p *PhysicalLayer) TransmitReceive(data []byte) ([]byte, float64) {
	if len(data) == 0 {
		return []byte{}, 0
	}

	bits := modem.BytesToBits(data)
	symbols, pad := p.encoder.encode(bits, p.scheme)

	var received []complex128
	if p.simplified {
		rx, state := p.model.Apply(symbols, p.snrDB, p.rng)
		received = p.decoder.equalize(rx, state, p.scheme)
		p.last = Transmission{Sent: symbols, Received: received, State: state}
	} else {
		samples := p.encoder.ofdm.modulate(symbols)
		rx, state := p.model.Apply(samples, p.snrDB, p.rng)
		received = p.decoder.ofdm.demodulate(p.decoder.equalizeFlat(rx, state), len(symbols), state.Taps)
		p.last = Transmission{Sent: symbols, Received: received, State: state}
	}

	rxBits := modem.Demodulate(received, p.scheme)
	rxBits = rxBits[:len(rxBits)-pad]

	ber := float64(modem.CountBitErrors(bits, rxBits)) / float64(len(bits))
	debugLog("[Transceiver] %v over %v at %.1f dB: %d bytes, %d symbols, BER %.3g\n",
		p.scheme, p.model.Kind(), p.snrDB, len(data), len(symbols), ber)
	return modem.BitsToBytes(rxBits), ber
}
