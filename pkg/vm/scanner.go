package vm

import (
	"bufio"
	"io"
	"iter"
	"strings"
)

// Result is one item produced by a Scanner: a command, a skipped line, or a
// parse failure. Exactly one of Skip, Err and Command is meaningful.
type Result struct {
	Line    int // 1-based source line
	Text    string
	Command Command
	Skip    bool // blank or comment-only line
	Err     error
}

// Scanner reads VM source line by line and parses each surviving line.
// It is single-pass and cannot be restarted.
type Scanner struct {
	sc     *bufio.Scanner
	line   int
	result Result
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{sc: bufio.NewScanner(r)}
}

// Scan advances to the next line. It returns false at end of input or when
// the underlying reader fails; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if !s.sc.Scan() {
		return false
	}
	s.line++
	s.result = scanLine(s.sc.Text(), s.line)
	return true
}

// Result returns the item produced by the most recent call to Scan.
func (s *Scanner) Result() Result {
	return s.result
}

// Err returns the first read error, if any. Parse failures are not read
// errors; they are reported through Result.Err.
func (s *Scanner) Err() error {
	return s.sc.Err()
}

// All yields every remaining result in source order.
func (s *Scanner) All() iter.Seq[Result] {
	return func(yield func(Result) bool) {
		for s.Scan() {
			if !yield(s.result) {
				return
			}
		}
	}
}

func scanLine(raw string, lineNo int) Result {
	text := stripComment(raw)
	res := Result{Line: lineNo, Text: text}
	if text == "" {
		res.Skip = true
		return res
	}

	cmd, err := ParseCommand(text)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Line = lineNo
		}
		res.Err = err
		return res
	}
	res.Command = cmd
	return res
}

// stripComment drops a "//" comment and surrounding whitespace. A line that
// begins with "//" becomes empty.
func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
