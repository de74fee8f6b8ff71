package config

import (
	"image"
	"os"

	"PhyChain/pkg/channel"
	"PhyChain/pkg/fec"
	"PhyChain/pkg/layers"
	"PhyChain/pkg/pipeline"
	"PhyChain/pkg/recovery"

	"gopkg.in/yaml.v3"
)

type Config struct {
	System struct {
		Modulation  string    `yaml:"modulation"`
		Channel     string    `yaml:"channel"`
		SNRdB       float64   `yaml:"snr_db"`
		Simplified  bool      `yaml:"simplified"`
		Seed        uint64    `yaml:"seed"`
		RicianK     float64   `yaml:"rician_k"`
		RicianPhase float64   `yaml:"rician_phase"`
		Taps        []float64 `yaml:"taps"`

		OFDM struct {
			NFFT int `yaml:"nfft"`
			NSC  int `yaml:"nsc"`
			CP   int `yaml:"cp"`
		} `yaml:"ofdm"`
	} `yaml:"system"`

	Framing struct {
		BlockSize  int    `yaml:"block_size"`
		Strategy   string `yaml:"strategy"`
		FECLevel   int    `yaml:"fec_level"`
		Interleave bool   `yaml:"interleave"`
	} `yaml:"framing"`

	// Width and Height are the expected output size. Zero keeps the input
	// size, or the placeholder default when there is no input image.
	Image struct {
		Codec   string `yaml:"codec"`
		Quality int    `yaml:"quality"`
		Width   int    `yaml:"width"`
		Height  int    `yaml:"height"`
		// decoded payloads announcing more pixels fall back to the
		// placeholder
		MaxPixels int `yaml:"max_pixels"`
	} `yaml:"image"`

	Repair struct {
		BlackThreshold  uint8   `yaml:"black_threshold"`
		MinRegionArea   int     `yaml:"min_region_area"`
		MinDarkFraction float64 `yaml:"min_dark_fraction"`
	} `yaml:"repair"`

	Pipeline struct {
		Workers int `yaml:"workers"`
	} `yaml:"pipeline"`

	Metrics struct {
		Pushgateway string `yaml:"pushgateway"`
		Job         string `yaml:"job"`
	} `yaml:"metrics"`
}

// Default is the configuration used for every key a file leaves out.
func Default() *Config {
	var config Config

	config.System.Modulation = "qpsk"
	config.System.Channel = "awgn"
	config.System.SNRdB = 14
	config.System.Simplified = true
	config.System.Seed = layers.DefaultSeed
	config.System.RicianK = channel.DefaultRicianK
	config.System.Taps = append([]float64(nil), channel.DefaultProfile...)
	config.System.OFDM.NFFT = layers.DefaultOFDM.NFFT
	config.System.OFDM.NSC = layers.DefaultOFDM.Subcarriers
	config.System.OFDM.CP = layers.DefaultOFDM.CyclicPrefix

	config.Framing.BlockSize = fec.DefaultBlockSize
	config.Framing.Strategy = fec.StrategyRepetition.String()
	config.Framing.FECLevel = 3
	config.Framing.Interleave = true

	config.Image.Codec = "jpeg"
	config.Image.Quality = 90
	config.Image.MaxPixels = recovery.DefaultMaxPixels

	repair := recovery.DefaultRepairConfig()
	config.Repair.BlackThreshold = repair.BlackThreshold
	config.Repair.MinRegionArea = repair.MinRegionArea
	config.Repair.MinDarkFraction = repair.MinDarkFraction

	config.Pipeline.Workers = 4
	config.Metrics.Job = "phychain"
	return &config
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config := Default()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// CreatePhysicalLayer seeds the transceiver with the configured seed plus
// offset so parallel workers draw independent channels.
func CreatePhysicalLayer(config *Config, offset uint64) (*layers.PhysicalLayer, error) {
	model, err := channel.ParseModel(config.System.Channel)
	if err != nil {
		return nil, err
	}
	switch model.Kind() {
	case channel.KindRician:
		model = channel.Rician{K: config.System.RicianK, Phase: config.System.RicianPhase}
	case channel.KindFrequencySelective:
		model = channel.FrequencySelective{Profile: config.System.Taps}
	}

	return layers.CreateSystem(
		config.System.Modulation,
		config.System.SNRdB,
		config.System.Channel,
		config.System.Simplified,
		layers.WithModel(model),
		layers.WithSeed(config.System.Seed+offset),
		layers.WithOFDM(layers.OFDMConfig{
			NFFT:         config.System.OFDM.NFFT,
			Subcarriers:  config.System.OFDM.NSC,
			CyclicPrefix: config.System.OFDM.CP,
		}),
	)
}

func CreateCodec(config *Config) (recovery.ImageCodec, error) {
	return recovery.CodecByName(config.Image.Codec, config.Image.Quality)
}

func CreateFraming(config *Config) (fec.Params, error) {
	strategy, err := fec.ParseStrategy(config.Framing.Strategy)
	if err != nil {
		return fec.Params{}, err
	}
	params := fec.Params{
		Codec:      fec.CodecUnknown,
		BlockSize:  config.Framing.BlockSize,
		Strategy:   strategy,
		Level:      config.Framing.FECLevel,
		Interleave: config.Framing.Interleave,
	}
	return params, params.Validate()
}

func CreateDecoder(config *Config) *recovery.Decoder {
	decoder := recovery.NewDecoder()
	decoder.Repair = recovery.RepairConfig{
		BlackThreshold:  config.Repair.BlackThreshold,
		MinRegionArea:   config.Repair.MinRegionArea,
		MinDarkFraction: config.Repair.MinDarkFraction,
	}
	decoder.MaxPixels = config.Image.MaxPixels
	return decoder
}

func OutputSize(config *Config) image.Point {
	return image.Pt(config.Image.Width, config.Image.Height)
}

func CreatePipeline(config *Config, index int, metrics *pipeline.Metrics) (*pipeline.Pipeline, error) {
	system, err := CreatePhysicalLayer(config, uint64(index))
	if err != nil {
		return nil, err
	}
	codec, err := CreateCodec(config)
	if err != nil {
		return nil, err
	}
	framing, err := CreateFraming(config)
	if err != nil {
		return nil, err
	}

	return &pipeline.Pipeline{
		Codec:   codec,
		Framing: framing,
		System:  system,
		Decoder: CreateDecoder(config),
		Size:    OutputSize(config),
		Metrics: metrics,
	}, nil
}
