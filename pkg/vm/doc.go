// Package vm defines the stack-machine instruction model and turns VM source
// text into Commands.
//
// Pipeline: source lines → Scanner → ParseCommand → Command
package vm
