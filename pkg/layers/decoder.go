package layers

import (
	"PhyChain/pkg/channel"
	"PhyChain/pkg/modem"
)

// keeps zero-forcing finite on a faded-out sample
const zfEpsilon = 1e-12

type Decoder struct {
	ofdm *ofdm
}

// equalize undoes the channel with perfect knowledge of its state.
func (d *Decoder) equalize(rx []complex128, state channel.State, s modem.Scheme) []complex128 {
	if state.Taps != nil {
		return decisionFeedback(rx, state.Taps, modem.Constellation(s))
	}
	return d.equalizeFlat(rx, state)
}

// equalizeFlat is a per-sample zero-forcing equalizer. Without gains the
// input is returned as is.
func (d *Decoder) equalizeFlat(rx []complex128, state channel.State) []complex128 {
	if state.Gains == nil {
		return rx
	}
	out := make([]complex128, len(rx))
	for i, y := range rx {
		out[i] = y / (state.Gains[i] + zfEpsilon)
	}
	return out
}

// decisionFeedback cancels the postcursor taps using past decisions and
// scales by the main tap. The returned values are the equalized samples
// before slicing.
func decisionFeedback(rx, taps []complex128, table *modem.Table) []complex128 {
	h0 := taps[0] + zfEpsilon
	decided := make([]complex128, len(rx))
	out := make([]complex128, len(rx))
	for n, y := range rx {
		for k := 1; k < len(taps) && k <= n; k++ {
			y -= taps[k] * decided[n-k]
		}
		out[n] = y / h0
		_, decided[n] = table.Nearest(out[n])
	}
	return out
}
