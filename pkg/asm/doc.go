// Package asm assembles Hack assembly text into 16-bit machine words.
//
// A-instructions (@value, @symbol) load a 15-bit value into A. C-instructions
// take the form dest=comp;jump. Labels are declared as (NAME). Unknown
// symbols in A-instructions become variables allocated from RAM[16] up.
package asm
