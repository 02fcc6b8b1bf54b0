// Package translator drives a VM-to-Hack translation: it scans source lines,
// hands each command to a codegen.Generator and collects the assembly text.
//
// Translation fails fast. The first parse or generation error stops the run
// and no output is written.
package translator
