package codegen

import (
	"fmt"

	"github.com/pkg/errors"

	"hackvm/pkg/vm"
)

type GenerationErrorKind int

const (
	// InvalidPop: the constant segment is not addressable storage.
	InvalidPop GenerationErrorKind = iota
	// UnknownKind and UnknownSegment only occur for Commands built by hand
	// with out-of-range values; ParseCommand never produces them.
	UnknownKind
	UnknownSegment
)

func (k GenerationErrorKind) String() string {
	switch k {
	case InvalidPop:
		return "invalid pop"
	case UnknownKind:
		return "unknown command kind"
	case UnknownSegment:
		return "unknown segment"
	}
	return fmt.Sprintf("GenerationErrorKind(%d)", int(k))
}

// GenerationError reports a syntactically valid command that cannot be
// translated.
type GenerationError struct {
	Kind    GenerationErrorKind
	Command vm.Command
}

func (e *GenerationError) Error() string {
	if e.Kind == InvalidPop {
		return fmt.Sprintf("cannot pop into %s segment: %q", e.Command.Segment, e.Command.String())
	}
	return fmt.Sprintf("%s: %q", e.Kind, e.Command.String())
}

// IsInvalidPop reports whether err, or the error it wraps, is an InvalidPop
// GenerationError.
func IsInvalidPop(err error) bool {
	ge, ok := errors.Cause(err).(*GenerationError)
	return ok && ge.Kind == InvalidPop
}
