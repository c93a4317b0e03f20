package parser

import (
	"bufio"
	"io"
)

// MaxLineBytes bounds one input line. Longer lines are dropped as
// malformed; the rest of the file is still read.
const MaxLineBytes = 1024 * 1024

// lineReader yields lines without their terminator. Content of an
// over-long line is discarded while it is read, so memory stays bounded.
type lineReader struct {
	r   *bufio.Reader
	max int
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024), max: max}
}

// next returns the next line. tooLong reports a line over the limit, in
// which case line is empty. io.EOF is returned once the input is exhausted.
func (lr *lineReader) next() (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := lr.r.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > lr.max {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}
