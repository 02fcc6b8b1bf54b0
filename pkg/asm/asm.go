package asm

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// MaxAddress is the largest value an A-instruction can load.
const MaxAddress = 0x7FFF

// VariableBase is the first RAM cell handed out to variables.
const VariableBase = 16

// PredefinedSymbols are the symbols every Hack program can reference.
var PredefinedSymbols = map[string]uint16{
	"SP":     0,
	"LCL":    1,
	"ARG":    2,
	"THIS":   3,
	"THAT":   4,
	"SCREEN": 0x4000,
	"KBD":    0x6000,
}

func init() {
	for i := 0; i < 16; i++ {
		PredefinedSymbols["R"+strconv.Itoa(i)] = uint16(i)
	}
}

// compTable maps a computation to its a-bit and six c-bits (7 bits total).
var compTable = map[string]uint16{
	"0":   0b0101010,
	"1":   0b0111111,
	"-1":  0b0111010,
	"D":   0b0001100,
	"A":   0b0110000,
	"!D":  0b0001101,
	"!A":  0b0110001,
	"-D":  0b0001111,
	"-A":  0b0110011,
	"D+1": 0b0011111,
	"A+1": 0b0110111,
	"D-1": 0b0001110,
	"A-1": 0b0110010,
	"D+A": 0b0000010,
	"A+D": 0b0000010,
	"D-A": 0b0010011,
	"A-D": 0b0000111,
	"D&A": 0b0000000,
	"A&D": 0b0000000,
	"D|A": 0b0010101,
	"A|D": 0b0010101,
	"M":   0b1110000,
	"!M":  0b1110001,
	"-M":  0b1110011,
	"M+1": 0b1110111,
	"M-1": 0b1110010,
	"D+M": 0b1000010,
	"M+D": 0b1000010,
	"D-M": 0b1010011,
	"M-D": 0b1000111,
	"D&M": 0b1000000,
	"M&D": 0b1000000,
	"D|M": 0b1010101,
	"M|D": 0b1010101,
}

var jumpTable = map[string]uint16{
	"":    0,
	"JGT": 1,
	"JEQ": 2,
	"JGE": 3,
	"JLT": 4,
	"JNE": 5,
	"JLE": 6,
	"JMP": 7,
}

type lineKind int

const (
	lineEmpty lineKind = iota
	lineLabel
	lineAddress
	lineCompute
)

type parsedLine struct {
	lineNo int
	kind   lineKind
	symbol string // label name or A-instruction operand
	dest   string
	comp   string
	jump   string
}

// Assembler resolves labels and variables for one program. Use a fresh
// Assembler per program.
type Assembler struct {
	symbols      map[string]uint16
	nextVariable uint16
}

func NewAssembler() *Assembler {
	symbols := make(map[string]uint16, len(PredefinedSymbols))
	for k, v := range PredefinedSymbols {
		symbols[k] = v
	}
	return &Assembler{
		symbols:      symbols,
		nextVariable: VariableBase,
	}
}

// Assemble translates Hack assembly into machine words and a map from ROM
// address to 1-based source line.
func Assemble(code string) ([]uint16, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]uint16, map[uint16]int, error) {
	lines := strings.Split(code, "\n")
	parsed := make([]parsedLine, 0, len(lines))
	for i, raw := range lines {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, nil, err
		}
		parsed = append(parsed, p)
	}

	if err := a.pass1(parsed); err != nil {
		return nil, nil, err
	}
	return a.pass2(parsed)
}

// Symbol returns the address bound to name after Assemble.
func (a *Assembler) Symbol(name string) (uint16, bool) {
	v, ok := a.symbols[name]
	return v, ok
}

// pass1 binds every label to the ROM address of the next instruction.
func (a *Assembler) pass1(lines []parsedLine) error {
	var address uint32
	for _, p := range lines {
		switch p.kind {
		case lineLabel:
			if _, exists := a.symbols[p.symbol]; exists {
				return errors.Errorf("duplicate label '%s' on line %d", p.symbol, p.lineNo)
			}
			a.symbols[p.symbol] = uint16(address)
		case lineAddress, lineCompute:
			if address > MaxAddress {
				return errors.Errorf("program too large near line %d", p.lineNo)
			}
			address++
		}
	}
	return nil
}

func (a *Assembler) pass2(lines []parsedLine) ([]uint16, map[uint16]int, error) {
	program := make([]uint16, 0, len(lines))
	sourceMap := make(map[uint16]int)

	for _, p := range lines {
		switch p.kind {
		case lineAddress:
			val, err := a.resolve(p.symbol, p.lineNo)
			if err != nil {
				return nil, nil, err
			}
			sourceMap[uint16(len(program))] = p.lineNo
			program = append(program, val)

		case lineCompute:
			instr, err := encodeCompute(p)
			if err != nil {
				return nil, nil, err
			}
			sourceMap[uint16(len(program))] = p.lineNo
			program = append(program, instr)
		}
	}

	return program, sourceMap, nil
}

// resolve turns an A-instruction operand into its value, allocating a new
// variable for an unseen symbol.
func (a *Assembler) resolve(token string, lineNo int) (uint16, error) {
	if token[0] >= '0' && token[0] <= '9' {
		value, err := strconv.ParseUint(token, 10, 16)
		if err != nil || value > MaxAddress {
			return 0, errors.Errorf("constant out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	if addr, ok := a.symbols[token]; ok {
		return addr, nil
	}

	if a.nextVariable >= PredefinedSymbols["SCREEN"] {
		return 0, errors.Errorf("out of variable space at '%s' on line %d", token, lineNo)
	}
	addr := a.nextVariable
	a.symbols[token] = addr
	a.nextVariable++
	return addr, nil
}

// encodeCompute packs a C-instruction as 111a cccc ccdd djjj.
func encodeCompute(p parsedLine) (uint16, error) {
	comp, ok := compTable[p.comp]
	if !ok {
		return 0, errors.Errorf("invalid computation '%s' on line %d", p.comp, p.lineNo)
	}
	dest, err := parseDest(p.dest, p.lineNo)
	if err != nil {
		return 0, err
	}
	jump, ok := jumpTable[p.jump]
	if !ok {
		return 0, errors.Errorf("invalid jump '%s' on line %d", p.jump, p.lineNo)
	}
	return 0xE000 | comp<<6 | dest<<3 | jump, nil
}

// parseDest accepts the destination registers in any order, each at most once.
func parseDest(dest string, lineNo int) (uint16, error) {
	var bits uint16
	for _, r := range dest {
		var bit uint16
		switch r {
		case 'A':
			bit = 4
		case 'D':
			bit = 2
		case 'M':
			bit = 1
		default:
			return 0, errors.Errorf("invalid destination '%s' on line %d", dest, lineNo)
		}
		if bits&bit != 0 {
			return 0, errors.Errorf("invalid destination '%s' on line %d", dest, lineNo)
		}
		bits |= bit
	}
	return bits, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := normalizeInstructionText(stripComments(raw))
	if line == "" {
		return p, nil
	}

	switch {
	case line[0] == '(':
		if !strings.HasSuffix(line, ")") {
			return p, errors.Errorf("unterminated label on line %d", lineNo)
		}
		name := line[1 : len(line)-1]
		if !isSymbol(name) {
			return p, errors.Errorf("invalid label '%s' on line %d", name, lineNo)
		}
		p.kind = lineLabel
		p.symbol = name

	case line[0] == '@':
		operand := line[1:]
		if operand == "" {
			return p, errors.Errorf("missing operand on line %d", lineNo)
		}
		if !isNumber(operand) && !isSymbol(operand) {
			return p, errors.Errorf("invalid operand '%s' on line %d", operand, lineNo)
		}
		p.kind = lineAddress
		p.symbol = operand

	default:
		p.kind = lineCompute
		rest := line
		if eq := strings.IndexByte(rest, '='); eq >= 0 {
			p.dest = rest[:eq]
			rest = rest[eq+1:]
			if p.dest == "" {
				return p, errors.Errorf("empty destination on line %d", lineNo)
			}
		}
		if semi := strings.IndexByte(rest, ';'); semi >= 0 {
			p.jump = rest[semi+1:]
			rest = rest[:semi]
			if p.jump == "" {
				return p, errors.Errorf("empty jump on line %d", lineNo)
			}
		}
		p.comp = rest
	}

	return p, nil
}

func stripComments(line string) string {
	if cut := strings.Index(line, "//"); cut >= 0 {
		return line[:cut]
	}
	return line
}

// normalizeInstructionText drops all whitespace, so "D = D + A" reads as "D=D+A".
func normalizeInstructionText(line string) string {
	return strings.Join(strings.Fields(line), "")
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// isSymbol accepts letters, digits and _ . $ : but not a leading digit.
func isSymbol(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("_.$:", r) {
			return false
		}
	}

	return true
}
