package asm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// WriteHack writes words in the .hack text format: one 16-character binary
// string per line.
func WriteHack(w io.Writer, words []uint16) error {
	bw := bufio.NewWriter(w)
	for _, word := range words {
		if _, err := fmt.Fprintf(bw, "%016b\n", word); err != nil {
			return errors.Wrap(err, "write failed")
		}
	}
	return errors.Wrap(bw.Flush(), "write failed")
}

// ReadHack parses the .hack text format. Blank lines are ignored.
func ReadHack(r io.Reader) ([]uint16, error) {
	var words []uint16
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if len(line) != 16 {
			return nil, errors.Errorf("line %d: expected 16 binary digits, got %q", lineNo, line)
		}
		v, err := strconv.ParseUint(line, 2, 16)
		if err != nil {
			return nil, errors.Errorf("line %d: invalid binary word %q", lineNo, line)
		}
		words = append(words, uint16(v))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read failed")
	}
	return words, nil
}
