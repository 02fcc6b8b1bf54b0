package vm

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseErrorKind classifies a structural failure in a source line.
type ParseErrorKind int

const (
	EmptyLine ParseErrorKind = iota
	UnknownCommand
	MissingSegment
	MissingIndex
	UnknownSegment
	InvalidIndex
	TrailingToken
)

var parseErrorNames = [...]string{
	EmptyLine:      "empty line",
	UnknownCommand: "unknown command",
	MissingSegment: "missing segment",
	MissingIndex:   "missing index",
	UnknownSegment: "unknown segment",
	InvalidIndex:   "invalid index",
	TrailingToken:  "unexpected token",
}

func (k ParseErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(parseErrorNames) {
		return parseErrorNames[k]
	}
	return fmt.Sprintf("ParseErrorKind(%d)", int(k))
}

// ParseError reports a malformed source line. Line is 1-based and zero when
// the error came from ParseCommand rather than a Scanner.
type ParseError struct {
	Kind  ParseErrorKind
	Token string // offending token, or the command keyword for Missing* kinds
	Line  int
}

func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Token != "" {
		switch e.Kind {
		case MissingSegment, MissingIndex:
			msg = fmt.Sprintf("%s missing %s", e.Token, msg[len("missing "):])
		default:
			msg = fmt.Sprintf("%s: %s", msg, e.Token)
		}
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// IsParseError reports whether err, or the error it wraps, is a
// *ParseError of the given kind.
func IsParseError(err error, kind ParseErrorKind) bool {
	pe, ok := errors.Cause(err).(*ParseError)
	return ok && pe.Kind == kind
}
