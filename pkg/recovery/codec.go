package recovery

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"PhyChain/pkg/fec"
	"PhyChain/pkg/modem"
)

// ImageCodec is the entropy coder the payload was produced with.
type ImageCodec interface {
	ID() fec.CodecID
	Encode(img image.Image) ([]byte, error)
	Decode(data []byte) (image.Image, error)
	DecodeConfig(data []byte) (image.Config, error)
}

type JPEG struct {
	Quality int
}

func (JPEG) ID() fec.CodecID { return fec.CodecJPEG }

func (c JPEG) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	quality := c.Quality
	if quality == 0 {
		quality = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (JPEG) Decode(data []byte) (image.Image, error) {
	return jpeg.Decode(bytes.NewReader(data))
}

func (JPEG) DecodeConfig(data []byte) (image.Config, error) {
	return jpeg.DecodeConfig(bytes.NewReader(data))
}

type PNG struct{}

func (PNG) ID() fec.CodecID { return fec.CodecPNG }

func (PNG) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (PNG) Decode(data []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}

func (PNG) DecodeConfig(data []byte) (image.Config, error) {
	return png.DecodeConfig(bytes.NewReader(data))
}

func CodecByName(name string, quality int) (ImageCodec, error) {
	id, err := fec.ParseCodecID(name)
	if err != nil {
		return nil, err
	}
	switch id {
	case fec.CodecJPEG:
		return JPEG{Quality: quality}, nil
	case fec.CodecPNG:
		return PNG{}, nil
	}
	return nil, &modem.ConfigurationError{Field: "codec", Value: name}
}
