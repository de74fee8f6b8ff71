package recovery

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"

	"PhyChain/pkg/fec"
)

var ErrDelegateDecode = errors.New("image decode failed")

// Debug enables tracing on the standard logger.
var Debug = false

func debugLog(format string, args ...any) {
	if Debug {
		log.Printf(format, args...)
	}
}

// DefaultMaxPixels bounds the dimensions a payload may announce before it
// is decoded, 4096x4096.
const DefaultMaxPixels = 1 << 24

// Decoder turns a possibly corrupted framed stream back into an image.
type Decoder struct {
	Codecs []ImageCodec
	Repair RepairConfig
	// payloads announcing more pixels are not decoded; zero means
	// DefaultMaxPixels
	MaxPixels int
}

// NewDecoder uses JPEG and PNG when no codec is given.
func NewDecoder(codecs ...ImageCodec) *Decoder {
	if len(codecs) == 0 {
		codecs = []ImageCodec{JPEG{}, PNG{}}
	}
	return &Decoder{Codecs: codecs, Repair: DefaultRepairConfig(), MaxPixels: DefaultMaxPixels}
}

type Result struct {
	Image       image.Image
	Success     bool
	Codec       fec.CodecID
	Diagnostics fec.Diagnostics
	Repair      RepairReport
	Err         error
}

// RawPixels is a decoded image as packed 8-bit RGB rows.
type RawPixels struct {
	Width  int
	Height int
	Pix    []uint8
}

// Decode never fails: when the header or the image cannot be recovered
// the result holds a gray placeholder of size and Success is false. A zero
// size keeps the decoded image as is.
func (d *Decoder) Decode(framed []byte, size image.Point) Result {
	payload, diag := fec.Decode(framed)
	res := Result{Codec: diag.Header.Codec, Diagnostics: diag}

	if diag.HeaderFallback {
		return d.fallback(res, size, diag.Err())
	}

	img, codec, err := d.decodePayload(payload, diag.Header.Codec)
	if err != nil {
		return d.fallback(res, size, errors.Join(diag.Err(), fmt.Errorf("%w: %w", ErrDelegateDecode, err)))
	}

	repaired, report := RepairDarkRegions(img, d.Repair)
	repaired, report.Resized = fitToSize(repaired, size)
	debugLog("[Recovery] decoded %v image, %d dark regions, repaired %v\n", codec.ID(), report.Regions, report.Applied)

	res.Image = repaired
	res.Codec = codec.ID()
	res.Repair = report
	res.Success = true
	res.Err = diag.Err()
	return res
}

func (d *Decoder) DecodeImage(framed []byte, size image.Point) (image.Image, Result) {
	res := d.Decode(framed, size)
	return res.Image, res
}

func (d *Decoder) DecodePixels(framed []byte, size image.Point) (RawPixels, Result) {
	res := d.Decode(framed, size)
	return toRawPixels(res.Image), res
}

// DecodeToSink writes the recovered image, or the placeholder, to w with
// the codec that decoded it. The error reports only encoding or writing
// failures.
func (d *Decoder) DecodeToSink(framed []byte, w io.Writer, size image.Point) (Result, error) {
	res := d.Decode(framed, size)

	var codec ImageCodec = PNG{}
	if res.Success {
		if c := d.codecFor(res.Codec); c != nil {
			codec = c
		}
	}
	data, err := codec.Encode(res.Image)
	if err != nil {
		return res, fmt.Errorf("encode %v: %w", codec.ID(), err)
	}
	if _, err := w.Write(data); err != nil {
		return res, err
	}
	return res, nil
}

// Verify reports whether framed carries an intact header and body and a
// payload the codec accepts.
func (d *Decoder) Verify(framed []byte) bool {
	payload, diag := fec.Decode(framed)
	switch {
	case diag.HeaderSource > fec.SourceMerged:
		return false
	case diag.MissingBytes > 0 || diag.UnresolvedBytes > 0:
		return false
	case diag.Header.Length == 0 || len(framed) < fec.BodyOffset+fec.BodySize(diag.Header):
		return false
	}

	for _, c := range d.candidates(diag.Header.Codec) {
		if d.checkConfig(c, payload) == nil {
			return true
		}
	}
	return false
}

// checkConfig reads the announced dimensions without decoding the pixels.
func (d *Decoder) checkConfig(c ImageCodec, payload []byte) error {
	cfg, err := c.DecodeConfig(payload)
	if err != nil {
		return fmt.Errorf("%v: %w", c.ID(), err)
	}
	limit := d.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(limit) {
		return fmt.Errorf("%v: %dx%d exceeds %d pixels", c.ID(), cfg.Width, cfg.Height, limit)
	}
	return nil
}

func (d *Decoder) fallback(res Result, size image.Point, err error) Result {
	debugLog("[Recovery] falling back to placeholder: %v\n", err)
	res.Image = Placeholder(size)
	res.Success = false
	res.Err = err
	return res
}

func (d *Decoder) codecFor(id fec.CodecID) ImageCodec {
	for _, c := range d.Codecs {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// candidates is the codec named by the header, or every codec when the
// header does not name a known one.
func (d *Decoder) candidates(id fec.CodecID) []ImageCodec {
	if c := d.codecFor(id); c != nil {
		return []ImageCodec{c}
	}
	return d.Codecs
}

func (d *Decoder) decodePayload(payload []byte, id fec.CodecID) (image.Image, ImageCodec, error) {
	cs := d.candidates(id)
	if len(cs) == 0 {
		return nil, nil, fmt.Errorf("no codec for %v", id)
	}
	var errs []error
	for _, c := range cs {
		if err := d.checkConfig(c, payload); err != nil {
			errs = append(errs, err)
			continue
		}
		img, err := c.Decode(payload)
		if err == nil {
			return img, c, nil
		}
		errs = append(errs, fmt.Errorf("%v: %w", c.ID(), err))
	}
	return nil, nil, errors.Join(errs...)
}

func toRawPixels(img image.Image) RawPixels {
	rgba := toRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	raw := RawPixels{Width: w, Height: h, Pix: make([]uint8, 0, w*h*3)}
	for i := 0; i < w*h; i++ {
		raw.Pix = append(raw.Pix, rgba.Pix[i*4:i*4+3]...)
	}
	return raw
}
