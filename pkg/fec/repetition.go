package fec

func encodeRepetition(dst, payload []byte, p Params) []byte {
	rows := make([][]byte, p.Level)
	for i := 0; i < numBlocks(len(payload), p.BlockSize); i++ {
		blk := paddedBlock(payload, i, p.BlockSize)
		for r := range rows {
			rows[r] = blk
		}
		dst = appendRows(dst, rows, p.Interleave)
	}
	return dst
}

func decodeRepetition(body []byte, h Header, d *Diagnostics) []byte {
	bs, level := h.BlockSize, h.Level
	n := numBlocks(h.Length, bs)
	out := make([]byte, 0, n*bs)

	var v voter
	for i := 0; i < n; i++ {
		cw := codeword(body, i, bs*level)
		for c := 0; c < bs; c++ {
			for r := 0; r < level; r++ {
				if o := offset(r, c, level, bs, h.Interleave); o < len(cw) {
					v.add(cw[o])
				}
			}
			b, ok := v.result()
			if !ok && i*bs+c < h.Length {
				d.UnresolvedBytes++
			}
			out = append(out, b)
		}
	}
	return out[:h.Length]
}

// voter finds the unique most frequent byte.
type voter struct {
	counts [256]int
	seen   []byte
}

func (v *voter) add(b byte) {
	if v.counts[b] == 0 {
		v.seen = append(v.seen, b)
	}
	v.counts[b]++
}

// result returns the winner and resets the voter. Ties and empty votes
// are unresolved.
func (v *voter) result() (byte, bool) {
	var best byte
	bestN, tie := 0, false
	for _, b := range v.seen {
		switch n := v.counts[b]; {
		case n > bestN:
			best, bestN, tie = b, n, false
		case n == bestN:
			tie = true
		}
		v.counts[b] = 0
	}
	v.seen = v.seen[:0]

	if bestN == 0 || tie {
		return UnresolvedSentinel, false
	}
	return best, true
}
