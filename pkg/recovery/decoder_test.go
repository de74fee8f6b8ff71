package recovery

import (
	"bytes"
	"crypto/rand"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"PhyChain/pkg/fec"

	"github.com/google/go-cmp/cmp"
)

var FRAMING = fec.Params{BlockSize: 256, Strategy: fec.StrategyRepetition, Level: 3, Interleave: true}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(100 + x), G: uint8(100 + y), B: 180, A: 0xff})
		}
	}
	return img
}

func filled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func frame(t *testing.T, codec ImageCodec, img image.Image) []byte {
	t.Helper()
	payload, err := codec.Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	p := FRAMING
	p.Codec = codec.ID()
	framed, err := fec.Encode(payload, p)
	if err != nil {
		t.Fatal(err)
	}
	return framed
}

func isPlaceholder(img image.Image, size image.Point) bool {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds().Size() != size {
		return false
	}
	for i := 0; i < len(rgba.Pix); i += 4 {
		if rgba.Pix[i] != PlaceholderGray || rgba.Pix[i+1] != PlaceholderGray || rgba.Pix[i+2] != PlaceholderGray {
			return false
		}
	}
	return true
}

func TestDecodeIntact(t *testing.T) {
	source := gradient(64, 48)
	for _, codec := range []ImageCodec{PNG{}, JPEG{Quality: 95}} {
		t.Run(codec.ID().String(), func(t *testing.T) {
			res := NewDecoder().Decode(frame(t, codec, source), image.Pt(64, 48))
			if !res.Success || res.Err != nil {
				t.Fatalf("expected success, got %v", res.Err)
			}
			if res.Codec != codec.ID() || res.Repair.Applied || res.Repair.Resized {
				t.Errorf("unexpected result %+v", res)
			}
			if res.Image.Bounds().Size() != image.Pt(64, 48) {
				t.Errorf("unexpected size %v", res.Image.Bounds())
			}
		})
	}

	res := NewDecoder().Decode(frame(t, PNG{}, source), image.Pt(64, 48))
	if diff := cmp.Diff(source.Pix, res.Image.(*image.RGBA).Pix); diff != "" {
		t.Errorf("lossless round trip changed pixels (-want +got):\n%s", diff)
	}
}

func TestFallbackOnHeaderLoss(t *testing.T) {
	framed := frame(t, PNG{}, gradient(16, 16))
	clear(framed[:fec.BodyOffset])

	res := NewDecoder().Decode(framed, image.Pt(40, 30))
	if res.Success {
		t.Fatal("expected the placeholder")
	}
	if !isPlaceholder(res.Image, image.Pt(40, 30)) {
		t.Error("expected a 40x30 mid-gray image")
	}
	if !errors.Is(res.Err, fec.ErrFraming) || !res.Diagnostics.HeaderFallback {
		t.Errorf("expected a framing error, got %v", res.Err)
	}
}

func TestFallbackOnDelegateFailure(t *testing.T) {
	junk := make([]byte, 500)
	if _, err := rand.Read(junk); err != nil {
		t.Fatal(err)
	}
	p := FRAMING
	p.Codec = fec.CodecJPEG
	framed, err := fec.Encode(junk, p)
	if err != nil {
		t.Fatal(err)
	}

	decoder := NewDecoder()
	first := decoder.Decode(framed, image.Point{})
	second := decoder.Decode(framed, image.Point{})
	if first.Success || !errors.Is(first.Err, ErrDelegateDecode) {
		t.Fatalf("expected a delegate failure, got %v", first.Err)
	}
	if !isPlaceholder(first.Image, DefaultSize) {
		t.Error("expected a default sized placeholder")
	}
	if diff := cmp.Diff(first.Image.(*image.RGBA).Pix, second.Image.(*image.RGBA).Pix); diff != "" {
		t.Error("fallback is not deterministic")
	}
}

// setJPEGSize rewrites the dimensions in the baseline frame header.
func setJPEGSize(t *testing.T, data []byte, w, h uint16) {
	t.Helper()
	for i := 0; i+8 < len(data); i++ {
		if data[i] == 0xff && data[i+1] == 0xc0 {
			data[i+5], data[i+6] = byte(h>>8), byte(h)
			data[i+7], data[i+8] = byte(w>>8), byte(w)
			return
		}
	}
	t.Fatal("no SOF0 marker")
}

func TestOversizedDimensionsFallBack(t *testing.T) {
	payload, err := JPEG{}.Encode(gradient(32, 32))
	if err != nil {
		t.Fatal(err)
	}
	setJPEGSize(t, payload, 32767, 32767)
	p := FRAMING
	p.Codec = fec.CodecJPEG
	framed, err := fec.Encode(payload, p)
	if err != nil {
		t.Fatal(err)
	}

	decoder := NewDecoder()
	res := decoder.Decode(framed, image.Pt(32, 32))
	if res.Success || !errors.Is(res.Err, ErrDelegateDecode) {
		t.Fatalf("expected a delegate failure, got %v", res.Err)
	}
	if !isPlaceholder(res.Image, image.Pt(32, 32)) {
		t.Error("expected a 32x32 placeholder")
	}
	if decoder.Verify(framed) {
		t.Error("oversized payload should not verify")
	}
}

func TestMaxPixels(t *testing.T) {
	framed := frame(t, PNG{}, gradient(16, 16))
	decoder := NewDecoder()
	decoder.MaxPixels = 16 * 15
	if res := decoder.Decode(framed, image.Pt(16, 16)); res.Success {
		t.Error("expected 256 pixels to exceed a 240 pixel limit")
	}
	decoder.MaxPixels = 16 * 16
	if res := decoder.Decode(framed, image.Pt(16, 16)); !res.Success {
		t.Errorf("expected a 256 pixel image to decode, got %v", res.Err)
	}
}

func TestUnknownCodecTriesEach(t *testing.T) {
	payload, err := PNG{}.Encode(gradient(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	p := FRAMING
	p.Codec = fec.CodecUnknown
	framed, err := fec.Encode(payload, p)
	if err != nil {
		t.Fatal(err)
	}

	res := NewDecoder().Decode(framed, image.Pt(8, 8))
	if !res.Success || res.Codec != fec.CodecPNG {
		t.Errorf("expected a PNG decode, got %v %v", res.Codec, res.Err)
	}
}

func TestResizeToExpected(t *testing.T) {
	res := NewDecoder().Decode(frame(t, PNG{}, gradient(32, 32)), image.Pt(64, 64))
	if !res.Success || !res.Repair.Resized {
		t.Fatalf("expected a resized success, got %+v", res)
	}
	if res.Image.Bounds().Size() != image.Pt(64, 64) {
		t.Errorf("unexpected size %v", res.Image.Bounds())
	}
	if c := color.RGBAModel.Convert(res.Image.At(0, 0)).(color.RGBA); c != placeholderColor {
		t.Errorf("expected a gray border, got %v", c)
	}
}

func TestZeroSizeKeepsDecodedSize(t *testing.T) {
	res := NewDecoder().Decode(frame(t, PNG{}, gradient(32, 16)), image.Point{})
	if !res.Success || res.Repair.Resized {
		t.Fatalf("expected an unresized success, got %+v", res)
	}
	if res.Image.Bounds().Size() != image.Pt(32, 16) {
		t.Errorf("unexpected size %v", res.Image.Bounds())
	}
}

func TestDecodePixels(t *testing.T) {
	raw, res := NewDecoder().DecodePixels(frame(t, PNG{}, gradient(10, 6)), image.Pt(10, 6))
	if !res.Success {
		t.Fatal(res.Err)
	}
	if raw.Width != 10 || raw.Height != 6 || len(raw.Pix) != 10*6*3 {
		t.Errorf("unexpected raw pixels %dx%d with %d bytes", raw.Width, raw.Height, len(raw.Pix))
	}
	if raw.Pix[3] != 101 || raw.Pix[5] != 180 {
		t.Errorf("unexpected pixel (1, 0): %v", raw.Pix[3:6])
	}
}

func TestDecodeToSink(t *testing.T) {
	var buf bytes.Buffer
	res, err := NewDecoder().DecodeToSink([]byte("not a frame"), &buf, image.Pt(12, 12))
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Error("expected the placeholder")
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Size() != image.Pt(12, 12) {
		t.Errorf("unexpected size %v", img.Bounds())
	}
}

func TestVerify(t *testing.T) {
	decoder := NewDecoder()
	framed := frame(t, JPEG{}, gradient(16, 16))
	if !decoder.Verify(framed) {
		t.Error("expected an intact stream to verify")
	}

	wiped := bytes.Clone(framed)
	clear(wiped[:fec.BodyOffset])
	if decoder.Verify(wiped) {
		t.Error("expected a stream without header to fail")
	}
	if decoder.Verify(framed[:len(framed)-10]) {
		t.Error("expected a truncated stream to fail")
	}

	p := FRAMING
	p.Codec = fec.CodecJPEG
	junk, err := fec.Encode([]byte("definitely not a jpeg"), p)
	if err != nil {
		t.Fatal(err)
	}
	if decoder.Verify(junk) {
		t.Error("expected an undecodable payload to fail")
	}
}
