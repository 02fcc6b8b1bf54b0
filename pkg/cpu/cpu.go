package cpu

import (
	"github.com/pkg/errors"
)

const (
	ROMSize = 32768
	RAMSize = 32768

	// ScreenBase is the first word of the 512x256 memory-mapped display.
	ScreenBase  uint16 = 0x4000
	ScreenWords        = 8192
	// KeyboardAddr holds the code of the key currently pressed, or 0.
	KeyboardAddr uint16 = 0x6000

	// SPAddr is the RAM cell the VM convention uses for the stack pointer.
	SPAddr uint16 = 0
	// StackBase is the conventional first stack slot.
	StackBase uint16 = 256
)

// Hack keyboard codes for keys without a printable character.
const (
	KeyNewline   uint16 = 128
	KeyBackspace uint16 = 129
	KeyLeft      uint16 = 130
	KeyUp        uint16 = 131
	KeyRight     uint16 = 132
	KeyDown      uint16 = 133
	KeyHome      uint16 = 134
	KeyEnd       uint16 = 135
	KeyPageUp    uint16 = 136
	KeyPageDown  uint16 = 137
	KeyInsert    uint16 = 138
	KeyDelete    uint16 = 139
	KeyEscape    uint16 = 140
	KeyF1        uint16 = 141
)

// CPU is a Hack computer: A and D registers, a program counter, instruction
// ROM and data RAM with the screen and keyboard mapped into it.
type CPU struct {
	A  uint16
	D  uint16
	PC uint16

	ROM [ROMSize]uint16
	RAM [RAMSize]uint16

	// ProgramLen is the number of loaded instructions. Execution halts when
	// PC leaves [0, ProgramLen).
	ProgramLen int

	// Halted is set when the program runs off its end or jumps to itself.
	Halted bool

	Cycles uint64
}

// NewCPU creates a CPU with zeroed memory.
func NewCPU() *CPU {
	return &CPU{}
}

// LoadProgram copies words into ROM from address 0 and resets execution state.
func (c *CPU) LoadProgram(words []uint16) error {
	if len(words) > ROMSize {
		return errors.Errorf("program too large for ROM: %d words > %d words", len(words), ROMSize)
	}
	c.ROM = [ROMSize]uint16{}
	copy(c.ROM[:], words)
	c.ProgramLen = len(words)
	c.Reset()
	return nil
}

// Reset restarts execution at address 0 without clearing RAM.
func (c *CPU) Reset() {
	c.A, c.D, c.PC = 0, 0, 0
	c.Cycles = 0
	c.Halted = c.ProgramLen == 0
}

// Read returns RAM[addr]; only the low 15 bits of addr are used.
func (c *CPU) Read(addr uint16) uint16 {
	return c.RAM[addr&0x7FFF]
}

func (c *CPU) Write(addr uint16, val uint16) {
	c.RAM[addr&0x7FFF] = val
}

// PushKey sets the keyboard register; 0 means no key is pressed.
func (c *CPU) PushKey(code uint16) {
	c.RAM[KeyboardAddr] = code
}

// Stack returns the values between StackBase and SP as signed words.
func (c *CPU) Stack() []int16 {
	sp := c.RAM[SPAddr]
	if sp <= StackBase || sp > ScreenBase {
		return nil
	}
	out := make([]int16, 0, sp-StackBase)
	for addr := StackBase; addr < sp; addr++ {
		out = append(out, int16(c.RAM[addr]))
	}
	return out
}

// alu computes the Hack ALU function selected by the six control bits
// zx nx zy ny f no.
func alu(x, y, ctrl uint16) uint16 {
	if ctrl&0b100000 != 0 {
		x = 0
	}
	if ctrl&0b010000 != 0 {
		x = ^x
	}
	if ctrl&0b001000 != 0 {
		y = 0
	}
	if ctrl&0b000100 != 0 {
		y = ^y
	}
	var out uint16
	if ctrl&0b000010 != 0 {
		out = x + y
	} else {
		out = x & y
	}
	if ctrl&0b000001 != 0 {
		out = ^out
	}
	return out
}

// Step executes one instruction.
func (c *CPU) Step() {
	if c.Halted {
		return
	}

	pc := c.PC
	instr := c.ROM[pc&0x7FFF]
	c.PC++
	c.Cycles++

	if instr&0x8000 == 0 {
		c.A = instr
	} else {
		y := c.A
		if instr&0x1000 != 0 {
			y = c.Read(c.A)
		}
		out := alu(c.D, y, (instr>>6)&0x3F)

		// M uses the address A held before this instruction.
		if instr&0x0008 != 0 {
			c.Write(c.A, out)
		}
		target := c.A
		if instr&0x0010 != 0 {
			c.D = out
		}
		if instr&0x0020 != 0 {
			c.A = out
		}

		v := int16(out)
		jump := instr & 0x7
		if (jump&4 != 0 && v < 0) || (jump&2 != 0 && v == 0) || (jump&1 != 0 && v > 0) {
			if target == pc || (jump == 7 && target == pc-1 && c.ROM[target&0x7FFF] == target) {
				// Idle loop such as "(END) @END 0;JMP".
				c.Halted = true
				return
			}
			c.PC = target
		}
	}

	if int(c.PC) >= c.ProgramLen {
		c.Halted = true
	}
}

// Run executes until the CPU halts. A program that loops forever without
// jumping to itself never returns; use RunFor for untrusted input.
func (c *CPU) Run() {
	for !c.Halted {
		c.Step()
	}
}

// RunFor executes at most maxSteps instructions and returns how many ran.
func (c *CPU) RunFor(maxSteps int) int {
	n := 0
	for n < maxSteps && !c.Halted {
		c.Step()
		n++
	}
	return n
}
