package vm

import (
	"strconv"
	"strings"
)

// ParseCommand converts one source line into a Command. Tokens are separated
// by any run of whitespace; leading and trailing whitespace is ignored.
// Comments are not stripped here, the Scanner does that.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, &ParseError{Kind: EmptyLine}
	}

	mnemonic := fields[0]
	kind, ok := lookupKind(mnemonic)
	if !ok {
		return Command{}, &ParseError{Kind: UnknownCommand, Token: mnemonic}
	}

	if !kind.HasOperands() {
		if len(fields) > 1 {
			return Command{}, &ParseError{Kind: TrailingToken, Token: fields[1]}
		}
		return Op(kind), nil
	}

	if len(fields) < 2 {
		return Command{}, &ParseError{Kind: MissingSegment, Token: mnemonic}
	}
	if len(fields) < 3 {
		return Command{}, &ParseError{Kind: MissingIndex, Token: mnemonic}
	}
	if len(fields) > 3 {
		return Command{}, &ParseError{Kind: TrailingToken, Token: fields[3]}
	}

	seg, ok := LookupSegment(fields[1])
	if !ok {
		return Command{}, &ParseError{Kind: UnknownSegment, Token: fields[1]}
	}

	// ParseUint rejects signs, so "-1" fails along with "65536".
	index, err := strconv.ParseUint(fields[2], 10, 16)
	if err != nil {
		return Command{}, &ParseError{Kind: InvalidIndex, Token: fields[2]}
	}

	return Command{Kind: kind, Segment: seg, Index: uint16(index)}, nil
}
