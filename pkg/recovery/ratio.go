package recovery

import "image"

// brightness above which an image counts as fully recovered
const recoveredBrightness = 50

// RecoveryRatio estimates how much of the expected image survived. A
// size mismatch scores the area ratio, a bright image scores 1 and a dark
// one the share of pixels that are not near-black.
func RecoveryRatio(img image.Image, expected image.Point) float64 {
	expected = normalizeSize(expected)
	got := img.Bounds().Size()
	if got != expected {
		return float64(got.X*got.Y) / float64(expected.X*expected.Y)
	}

	rgba := toRGBA(img)
	n := got.X * got.Y
	if n == 0 {
		return 0
	}
	var total, notBlack int
	threshold := DefaultRepairConfig().BlackThreshold
	for i := 0; i < n; i++ {
		p := rgba.Pix[i*4 : i*4+3]
		total += int(p[0]) + int(p[1]) + int(p[2])
		if !isDark(rgba.Pix, i, threshold) {
			notBlack++
		}
	}
	if float64(total)/float64(3*n) > recoveredBrightness {
		return 1
	}
	return float64(notBlack) / float64(n)
}
