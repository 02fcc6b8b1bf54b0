package vm

import "fmt"

// Segment names a VM memory region addressable by push/pop.
type Segment int

const (
	Argument Segment = iota
	Local
	Static
	Constant
	This
	That
	Pointer
	Temp
)

// segmentNames is indexed by Segment and doubles as the source keyword table.
var segmentNames = [...]string{
	Argument: "argument",
	Local:    "local",
	Static:   "static",
	Constant: "constant",
	This:     "this",
	That:     "that",
	Pointer:  "pointer",
	Temp:     "temp",
}

// Segments lists every segment in declaration order.
var Segments = []Segment{Argument, Local, Static, Constant, This, That, Pointer, Temp}

func (s Segment) String() string {
	if int(s) >= 0 && int(s) < len(segmentNames) {
		return segmentNames[s]
	}
	return fmt.Sprintf("Segment(%d)", int(s))
}

// LookupSegment maps a source keyword to its Segment.
func LookupSegment(name string) (Segment, bool) {
	for i, n := range segmentNames {
		if n == name {
			return Segment(i), true
		}
	}
	return 0, false
}

// Kind is the discriminant of a Command, independent of its operands.
type Kind int

const (
	Push Kind = iota
	Pop
	Add
	Sub
	Neg
	Eq
	Gt
	Lt
	And
	Or
	Not
)

var kindNames = [...]string{
	Push: "push",
	Pop:  "pop",
	Add:  "add",
	Sub:  "sub",
	Neg:  "neg",
	Eq:   "eq",
	Gt:   "gt",
	Lt:   "lt",
	And:  "and",
	Or:   "or",
	Not:  "not",
}

// Kinds lists every command kind in declaration order.
var Kinds = []Kind{Push, Pop, Add, Sub, Neg, Eq, Gt, Lt, And, Or, Not}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// HasOperands reports whether the kind takes a segment and an index.
func (k Kind) HasOperands() bool {
	return k == Push || k == Pop
}

func lookupKind(mnemonic string) (Kind, bool) {
	for i, n := range kindNames {
		if n == mnemonic {
			return Kind(i), true
		}
	}
	return 0, false
}

// Command is one parsed VM instruction. Segment and Index are meaningful
// only for Push and Pop.
type Command struct {
	Kind    Kind
	Segment Segment
	Index   uint16
}

// PushCmd builds a push command.
func PushCmd(seg Segment, index uint16) Command {
	return Command{Kind: Push, Segment: seg, Index: index}
}

// PopCmd builds a pop command.
func PopCmd(seg Segment, index uint16) Command {
	return Command{Kind: Pop, Segment: seg, Index: index}
}

// Op builds a zero-operand command.
func Op(k Kind) Command {
	return Command{Kind: k}
}

// String renders the command back in source form, e.g. "push local 2".
func (c Command) String() string {
	if c.Kind.HasOperands() {
		return fmt.Sprintf("%s %s %d", c.Kind, c.Segment, c.Index)
	}
	return c.Kind.String()
}
