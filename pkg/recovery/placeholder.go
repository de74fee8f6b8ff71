package recovery

import (
	"image"
	"image/color"
	"image/draw"
)

const PlaceholderGray = 128

var DefaultSize = image.Pt(256, 256)

var placeholderColor = color.RGBA{R: PlaceholderGray, G: PlaceholderGray, B: PlaceholderGray, A: 0xff}

// Placeholder is a uniform mid-gray image. A zero size means DefaultSize.
func Placeholder(size image.Point) *image.RGBA {
	size = normalizeSize(size)
	img := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderColor), image.Point{}, draw.Src)
	return img
}

func normalizeSize(size image.Point) image.Point {
	if size.X <= 0 || size.Y <= 0 {
		return DefaultSize
	}
	return size
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rectangle{Max: b.Size()})
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// fitToSize centres img on a gray canvas when its size is not the
// expected one. A zero size accepts any image.
func fitToSize(img *image.RGBA, size image.Point) (*image.RGBA, bool) {
	got := img.Bounds().Size()
	if got == size || size.X <= 0 || size.Y <= 0 {
		return img, false
	}
	canvas := Placeholder(size)
	offset := image.Pt((size.X-got.X)/2, (size.Y-got.Y)/2)
	draw.Draw(canvas, img.Bounds().Add(offset), img, image.Point{}, draw.Src)
	return canvas, true
}
