package pipeline

import (
	"fmt"
	"image"
	"log"

	"PhyChain/pkg/fec"
	"PhyChain/pkg/layers"
	"PhyChain/pkg/recovery"

	"github.com/google/uuid"
)

// Debug enables tracing on the standard logger.
var Debug = false

func debugLog(format string, args ...any) {
	if Debug {
		log.Printf(format, args...)
	}
}

// Pipeline sends one image through compression, framing, the channel and
// recovery. Size is the expected output size; zero means the input size.
type Pipeline struct {
	Codec   recovery.ImageCodec
	Framing fec.Params
	System  *layers.PhysicalLayer
	Decoder *recovery.Decoder
	Size    image.Point
	Metrics *Metrics
}

type Report struct {
	RunID            string
	BER              float64
	CompressedBytes  int
	FramedBytes      int
	CompressionRatio float64
	RecoveryRatio    float64
	Result           recovery.Result
}

// ProcessImage fails only when the image cannot be compressed or framed.
// Channel damage is reported in the Report.
func (p *Pipeline) ProcessImage(img image.Image) (Report, error) {
	payload, err := p.Codec.Encode(img)
	if err != nil {
		return Report{}, fmt.Errorf("encode image: %w", err)
	}

	params := p.Framing
	params.Codec = p.Codec.ID()
	framed, err := fec.Encode(payload, params)
	if err != nil {
		return Report{}, fmt.Errorf("frame payload: %w", err)
	}

	received, ber := p.System.TransmitReceive(framed)

	size := p.Size
	if size == (image.Point{}) {
		size = img.Bounds().Size()
	}
	res := p.Decoder.Decode(received, size)

	raw := size.X * size.Y * 3
	report := Report{
		RunID:            uuid.NewString(),
		BER:              ber,
		CompressedBytes:  len(payload),
		FramedBytes:      len(framed),
		CompressionRatio: float64(raw) / float64(max(1, len(payload))),
		RecoveryRatio:    recovery.RecoveryRatio(res.Image, size),
		Result:           res,
	}
	if !res.Success {
		report.RecoveryRatio = 0
	}

	if p.Metrics != nil {
		p.Metrics.observe(p.System.Scheme().String(), p.System.Model().Kind().String(), report)
	}
	debugLog("[Pipeline] %s: %d -> %d bytes, BER %.3g, success %v, recovery %.2f\n",
		report.RunID, len(payload), len(framed), ber, res.Success, report.RecoveryRatio)
	return report, nil
}
