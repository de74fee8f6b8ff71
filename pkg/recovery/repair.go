package recovery

import "image"

// RepairConfig decides when a decoded image has dark regions left by
// lost data and which of them get filled.
type RepairConfig struct {
	// a pixel is dark when none of its channels exceeds this
	BlackThreshold uint8
	// smallest 4-connected dark region considered damage, in pixels
	MinRegionArea int
	// regions are filled only if they cover at least this share of the image
	MinDarkFraction float64
}

func DefaultRepairConfig() RepairConfig {
	return RepairConfig{
		BlackThreshold:  10,
		MinRegionArea:   64,
		MinDarkFraction: 0.02,
	}
}

type RepairReport struct {
	Regions      int
	Pixels       int
	DarkFraction float64
	Applied      bool
	Resized      bool
}

// RepairDarkRegions returns a copy of img with qualifying dark regions
// filled from the outside in, each pixel taking the mean of its already
// valid 8-neighbours. Regions with no valid neighbour at all become gray.
func RepairDarkRegions(img image.Image, cfg RepairConfig) (*image.RGBA, RepairReport) {
	out := toRGBA(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()

	var report RepairReport
	if w == 0 || h == 0 {
		return out, report
	}

	mask := make([]bool, w*h)
	for _, region := range darkRegions(out, cfg.BlackThreshold) {
		if len(region) < cfg.MinRegionArea {
			continue
		}
		report.Regions++
		report.Pixels += len(region)
		for _, i := range region {
			mask[i] = true
		}
	}
	report.DarkFraction = float64(report.Pixels) / float64(w*h)
	if report.Pixels == 0 || report.DarkFraction < cfg.MinDarkFraction {
		return out, report
	}

	fill(out, mask)
	report.Applied = true
	return out, report
}

func isDark(pix []uint8, i int, threshold uint8) bool {
	p := pix[i*4 : i*4+3]
	return p[0] <= threshold && p[1] <= threshold && p[2] <= threshold
}

// darkRegions lists the 4-connected dark components as pixel indices.
func darkRegions(img *image.RGBA, threshold uint8) [][]int {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	seen := make([]bool, w*h)

	var regions [][]int
	for start := range seen {
		if seen[start] || !isDark(img.Pix, start, threshold) {
			continue
		}
		seen[start] = true
		region := []int{start}
		for q := 0; q < len(region); q++ {
			x, y := region[q]%w, region[q]/w
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				n := ny*w + nx
				if !seen[n] && isDark(img.Pix, n, threshold) {
					seen[n] = true
					region = append(region, n)
				}
			}
		}
		regions = append(regions, region)
	}
	return regions
}

func fill(img *image.RGBA, mask []bool) {
	w, h := img.Rect.Dx(), img.Rect.Dy()

	var pending []int
	for i, m := range mask {
		if m {
			pending = append(pending, i)
		}
	}

	type update struct {
		i   int
		rgb [3]uint8
	}
	for len(pending) > 0 {
		var next []int
		var updates []update
		for _, i := range pending {
			x, y := i%w, i/w
			var sum [3]int
			count := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if (dx == 0 && dy == 0) || nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					n := ny*w + nx
					if mask[n] {
						continue
					}
					for c := 0; c < 3; c++ {
						sum[c] += int(img.Pix[n*4+c])
					}
					count++
				}
			}
			if count == 0 {
				next = append(next, i)
				continue
			}
			u := update{i: i}
			for c := range u.rgb {
				u.rgb[c] = uint8((sum[c] + count/2) / count)
			}
			updates = append(updates, u)
		}
		if len(updates) == 0 {
			break
		}
		for _, u := range updates {
			copy(img.Pix[u.i*4:], u.rgb[:])
			img.Pix[u.i*4+3] = 0xff
			mask[u.i] = false
		}
		pending = next
	}

	for _, i := range pending {
		copy(img.Pix[i*4:], []uint8{PlaceholderGray, PlaceholderGray, PlaceholderGray, 0xff})
	}
}
