// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bufio"
	"bytes"
	"io"
)

// lineReader yields whole physical lines, growing its buffer as needed.
type lineReader struct {
	br *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{br: bufio.NewReader(r)}
}

// Next returns the next line including any trailing newline. It returns
// io.EOF once the input is exhausted and no bytes remain.
func (lr *lineReader) Next() ([]byte, error) {
	line, err := lr.br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(line) > 0 {
		return line, nil
	}
	return nil, io.EOF
}

// splitChunks cuts line into the read units of a fixed-buffer line reader:
// pieces of at most limit bytes, the newline staying in the last piece.
// With limit <= 0 the whole line is one piece.
func splitChunks(line []byte, limit int) [][]byte {
	if limit <= 0 || len(line) <= limit {
		return [][]byte{line}
	}
	chunks := make([][]byte, 0, len(line)/limit+1)
	for len(line) > limit {
		chunks = append(chunks, line[:limit])
		line = line[limit:]
	}
	return append(chunks, line)
}

// trimNewline strips one trailing "\n" or "\r\n".
func trimNewline(rec []byte) []byte {
	rec = bytes.TrimSuffix(rec, []byte{'\n'})
	return bytes.TrimSuffix(rec, []byte{'\r'})
}
