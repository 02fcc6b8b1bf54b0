package asm

import (
	"testing"
)

func TestAssembleSourceMap(t *testing.T) {
	code := `
// Line 2: Comment
@10             // Line 3: A-instruction (ROM 0)
D=A             // Line 4: C-instruction (ROM 1)
                // Line 5: Empty
(LOOP)          // Line 6: Label, binds to ROM 2
@LOOP           // Line 7: ROM 2
0;JMP           // Line 8: ROM 3
`
	_, sourceMap, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	tests := []struct {
		addr uint16
		line int
	}{
		{0, 3},
		{1, 4},
		{2, 7},
		{3, 8},
	}

	for _, tc := range tests {
		if got := sourceMap[tc.addr]; got != tc.line {
			t.Errorf("sourceMap[%d] = %d; want %d", tc.addr, got, tc.line)
		}
	}
	if len(sourceMap) != len(tests) {
		t.Errorf("sourceMap has %d entries; want %d", len(sourceMap), len(tests))
	}
}
