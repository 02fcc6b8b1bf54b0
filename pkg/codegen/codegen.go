package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"hackvm/pkg/vm"
)

const (
	// TempBase is the first RAM cell of the temp segment (R5..R12).
	TempBase = 5
	// PointerBase is the RAM cell holding THIS; pointer 1 is THAT.
	PointerBase = 3
	// StackBase is where the bootstrap prologue points SP.
	StackBase = 256

	// DefaultUnit names static variables when no translation unit is given.
	DefaultUnit = "Static"
)

// baseSymbols maps the pointer-indirect segments to the cell holding their base.
var baseSymbols = map[vm.Segment]string{
	vm.Argument: "ARG",
	vm.Local:    "LCL",
	vm.This:     "THIS",
	vm.That:     "THAT",
}

// compareJumps maps each comparison to the jump taken when x-y satisfies it.
var compareJumps = map[vm.Kind]string{
	vm.Eq: "JEQ",
	vm.Gt: "JGT",
	vm.Lt: "JLT",
}

type Options struct {
	// Unit is the translation-unit name used for static symbols ("<Unit>.<i>").
	Unit string
	// UniqueScratch gives every pop its own pair of scratch variables
	// instead of sharing R13/R14.
	UniqueScratch bool
}

// Generator turns Commands into Hack assembly text. A Generator owns the
// label counters for one output unit and is not safe for concurrent use.
type Generator struct {
	unit          string
	uniqueScratch bool
	counters      map[vm.Kind]int
	out           strings.Builder
}

// generatedPrefixes are the symbol stems Emit uses for its own labels and
// scratch variables. A unit with one of these names gets a trailing "_".
var generatedPrefixes = map[string]bool{
	"EQ_TRUE": true, "EQ_FALSE": true, "EQ_END": true,
	"GT_TRUE": true, "GT_FALSE": true, "GT_END": true,
	"LT_TRUE": true, "LT_FALSE": true, "LT_END": true,
	"POP_VALUE": true, "POP_ADDRESS": true,
}

// unitSymbol turns a unit name, usually a file stem, into a valid assembler
// symbol stem. Runes outside letters, digits and "_.$:" become "_", and a
// leading digit gets a "_" prefix.
func unitSymbol(name string) string {
	if name == "" {
		return DefaultUnit
	}
	var b strings.Builder
	for i, r := range name {
		if i == 0 && unicode.IsDigit(r) {
			b.WriteByte('_')
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_.$:", r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	unit := b.String()
	if generatedPrefixes[unit] {
		unit += "_"
	}
	return unit
}

func New(opts Options) *Generator {
	return &Generator{
		unit:          unitSymbol(opts.Unit),
		uniqueScratch: opts.UniqueScratch,
		counters:      make(map[vm.Kind]int),
	}
}

// Unit returns the symbol stem used for static variables, derived from
// Options.Unit.
func (g *Generator) Unit() string {
	return g.unit
}

// Reset clears the label counters so the Generator can start a new output unit.
func (g *Generator) Reset(unit string) {
	g.unit = unitSymbol(unit)
	g.counters = make(map[vm.Kind]int)
}

// Count returns how many labelled emissions of kind have happened so far.
func (g *Generator) Count(kind vm.Kind) int {
	return g.counters[kind]
}

// nextID hands out the next instance number for kind, starting at 1.
func (g *Generator) nextID(kind vm.Kind) int {
	g.counters[kind]++
	return g.counters[kind]
}

func (g *Generator) line(format string, args ...any) {
	fmt.Fprintf(&g.out, format+"\n", args...)
}

func (g *Generator) comment(format string, args ...any) {
	g.line("// "+format, args...)
}

// Emit translates one command. The text starts with a "// <command>" line and
// ends with a newline. Counters only advance when Emit succeeds.
func (g *Generator) Emit(cmd vm.Command) (string, error) {
	g.out.Reset()
	g.comment("%s", cmd)

	var err error
	switch cmd.Kind {
	case vm.Push:
		err = g.genPush(cmd)
	case vm.Pop:
		err = g.genPop(cmd)
	case vm.Add:
		g.genBinary("D+M")
	case vm.Sub:
		g.genBinary("M-D")
	case vm.And:
		g.genBinary("D&M")
	case vm.Or:
		g.genBinary("D|M")
	case vm.Neg:
		g.genUnary("-M")
	case vm.Not:
		g.genUnary("!M")
	case vm.Eq, vm.Gt, vm.Lt:
		g.genCompare(cmd.Kind)
	default:
		err = &GenerationError{Kind: UnknownKind, Command: cmd}
	}
	if err != nil {
		return "", err
	}
	return g.out.String(), nil
}

// Bootstrap returns the prologue that points SP at the stack base.
func Bootstrap() string {
	var b strings.Builder
	b.WriteString("// bootstrap\n")
	fmt.Fprintf(&b, "@%d\nD=A\n@SP\nM=D\n", StackBase)
	return b.String()
}

// loadA leaves v in A. Values above 32767 do not fit an A-instruction, so
// the complement is loaded and inverted.
func (g *Generator) loadA(v uint16) {
	if v <= 0x7FFF {
		g.line("@%d", v)
		return
	}
	g.line("@%d", ^v)
	g.line("A=!A")
}

// pushD stores D at the stack top and advances SP.
func (g *Generator) pushD() {
	g.line("@SP")
	g.line("A=M")
	g.line("M=D")
	g.line("@SP")
	g.line("M=M+1")
}

func (g *Generator) genPush(cmd vm.Command) error {
	idx := cmd.Index
	switch cmd.Segment {
	case vm.Constant:
		if idx <= 0x7FFF {
			g.line("@%d", idx)
			g.line("D=A")
		} else {
			g.line("@%d", ^idx)
			g.line("D=!A")
		}

	case vm.Argument, vm.Local, vm.This, vm.That:
		g.line("@%s", baseSymbols[cmd.Segment])
		g.line("D=M")
		g.loadA(idx)
		g.line("A=D+A")
		g.line("D=M")

	case vm.Temp:
		g.directAddress(TempBase, idx)
		g.line("D=M")

	case vm.Pointer:
		g.directAddress(PointerBase, idx)
		g.line("D=M")

	case vm.Static:
		g.line("@%s", g.staticSymbol(idx))
		g.line("D=M")

	default:
		return &GenerationError{Kind: UnknownSegment, Command: cmd}
	}
	g.pushD()
	return nil
}

// directAddress leaves base+idx in A, wrapping at 16 bits.
func (g *Generator) directAddress(base, idx uint16) {
	g.loadA(base + idx)
}

func (g *Generator) staticSymbol(idx uint16) string {
	return fmt.Sprintf("%s.%d", g.unit, idx)
}

// genPop moves the stack top into the target cell. The value is parked in
// one scratch cell while the destination address is computed into another,
// since both steps need the A and D registers.
func (g *Generator) genPop(cmd vm.Command) error {
	switch cmd.Segment {
	case vm.Constant:
		return &GenerationError{Kind: InvalidPop, Command: cmd}
	case vm.Argument, vm.Local, vm.This, vm.That, vm.Temp, vm.Pointer, vm.Static:
	default:
		return &GenerationError{Kind: UnknownSegment, Command: cmd}
	}

	value, addr := g.scratchCells(g.nextID(vm.Pop))

	g.line("@SP")
	g.line("AM=M-1")
	g.line("D=M")
	g.line("@%s", value)
	g.line("M=D")

	idx := cmd.Index
	switch cmd.Segment {
	case vm.Argument, vm.Local, vm.This, vm.That:
		g.line("@%s", baseSymbols[cmd.Segment])
		g.line("D=M")
		g.loadA(idx)
		g.line("D=D+A")
	case vm.Temp:
		g.directAddress(TempBase, idx)
		g.line("D=A")
	case vm.Pointer:
		g.directAddress(PointerBase, idx)
		g.line("D=A")
	case vm.Static:
		g.line("@%s", g.staticSymbol(idx))
		g.line("D=A")
	}
	g.line("@%s", addr)
	g.line("M=D")

	g.line("@%s", value)
	g.line("D=M")
	g.line("@%s", addr)
	g.line("A=M")
	g.line("M=D")
	return nil
}

func (g *Generator) scratchCells(id int) (value, addr string) {
	if g.uniqueScratch {
		return fmt.Sprintf("POP_VALUE.%d", id), fmt.Sprintf("POP_ADDRESS.%d", id)
	}
	return "R13", "R14"
}

// genBinary pops y, then combines it with x in place: SP moves down by one.
func (g *Generator) genBinary(comp string) {
	g.line("@SP")
	g.line("AM=M-1")
	g.line("D=M")
	g.line("A=A-1")
	g.line("M=%s", comp)
}

// genUnary rewrites the top cell without moving SP.
func (g *Generator) genUnary(comp string) {
	g.line("@SP")
	g.line("A=M-1")
	g.line("M=%s", comp)
}

// genCompare replaces x and y with -1 (true) or 0 (false) for x <op> y.
func (g *Generator) genCompare(kind vm.Kind) {
	id := g.nextID(kind)
	prefix := strings.ToUpper(kind.String())
	isTrue := fmt.Sprintf("%s_TRUE.%d", prefix, id)
	isFalse := fmt.Sprintf("%s_FALSE.%d", prefix, id)
	end := fmt.Sprintf("%s_END.%d", prefix, id)

	g.line("@SP")
	g.line("AM=M-1")
	g.line("D=M")
	g.line("A=A-1")
	g.line("D=M-D")
	g.line("@%s", isTrue)
	g.line("D;%s", compareJumps[kind])
	g.line("@%s", isFalse)
	g.line("0;JMP")
	g.line("(%s)", isTrue)
	g.line("@SP")
	g.line("A=M-1")
	g.line("M=-1")
	g.line("@%s", end)
	g.line("0;JMP")
	g.line("(%s)", isFalse)
	g.line("@SP")
	g.line("A=M-1")
	g.line("M=0")
	g.line("(%s)", end)
}
