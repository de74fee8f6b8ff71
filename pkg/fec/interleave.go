package fec

// offset locates byte col of row inside a codeword of rows*width bytes.
// Interleaved codewords are written column by column.
func offset(row, col, rows, width int, interleaved bool) int {
	if interleaved {
		return col*rows + row
	}
	return row*width + col
}

// appendRows writes equal length rows as one codeword.
func appendRows(dst []byte, rows [][]byte, interleaved bool) []byte {
	if !interleaved {
		for _, r := range rows {
			dst = append(dst, r...)
		}
		return dst
	}
	width := len(rows[0])
	for c := 0; c < width; c++ {
		for _, r := range rows {
			dst = append(dst, r[c])
		}
	}
	return dst
}

// splitRows undoes appendRows on a possibly short codeword. A row that
// lost any byte is reported incomplete and its missing bytes are zero.
func splitRows(cw []byte, rows, width int, interleaved bool) ([][]byte, []bool) {
	out := make([][]byte, rows)
	complete := make([]bool, rows)
	for r := range out {
		out[r] = make([]byte, width)
		complete[r] = true
		for c := 0; c < width; c++ {
			if o := offset(r, c, rows, width, interleaved); o < len(cw) {
				out[r][c] = cw[o]
			} else {
				complete[r] = false
			}
		}
	}
	return out, complete
}

func numBlocks(length, blockSize int) int {
	return (length + blockSize - 1) / blockSize
}

// paddedBlock returns block i of payload zero padded to blockSize.
func paddedBlock(payload []byte, i, blockSize int) []byte {
	blk := make([]byte, blockSize)
	if start := i * blockSize; start < len(payload) {
		copy(blk, payload[start:min(start+blockSize, len(payload))])
	}
	return blk
}

// codeword returns the i-th codeword of body, shortened if body is.
func codeword(body []byte, i, size int) []byte {
	start := i * size
	if start >= len(body) {
		return nil
	}
	return body[start:min(start+size, len(body))]
}
