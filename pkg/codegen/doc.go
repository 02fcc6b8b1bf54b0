// Package codegen translates VM commands into Hack assembly, one command at a
// time.
//
// Memory layout assumed by the generated code:
//
//	RAM[0]     SP    next free stack slot
//	RAM[1..4]  LCL, ARG, THIS, THAT base pointers
//	RAM[5..12] temp segment
//	RAM[13,14] pop scratch cells
//	RAM[16..]  static variables, allocated by the assembler
//
// Comparisons push -1 for true and 0 for false.
package codegen
