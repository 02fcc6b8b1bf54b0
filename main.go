//go:build !js

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"hackvm/pkg/asm"
	"hackvm/pkg/cpu"
	"hackvm/pkg/translator"
	"hackvm/pkg/utils"
	"hackvm/pkg/vm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hackvm",
		Short: "Translate stack VM programs to Hack assembly and run them",
		Long: `hackvm translates the stack-based VM language into Hack assembly,
assembles Hack assembly into machine words and runs programs on an
emulated Hack CPU.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTranslateCmd(), newParseCmd(), newAssembleCmd(), newRunCmd())
	return root
}

func newTranslateCmd() *cobra.Command {
	var (
		output        string
		bootstrap     bool
		uniqueScratch bool
		jobs          int
		verbose       bool
	)
	cmd := &cobra.Command{
		Use:   "translate file.vm...",
		Short: "Translate VM files into .asm files",
		Long: `Translate writes one .asm file per input, next to the input unless -o is
given. Static variables are named after the input file. A file that fails
to translate produces no output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return errors.New("-o can only be used with a single input file")
			}
			opts := translator.Options{Bootstrap: bootstrap, UniqueScratch: uniqueScratch}
			if verbose {
				opts.Logger = log.New(cmd.ErrOrStderr(), "", 0)
			}

			if len(args) == 1 {
				out, err := translator.TranslateFile(args[0], output, opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}

			outs, err := translator.TranslateFiles(cmd.Context(), args, opts, jobs)
			if err != nil {
				return err
			}
			for _, out := range outs {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "output file (default: input with .asm extension)")
	f.BoolVar(&bootstrap, "bootstrap", false, "prepend the SP=256 prologue")
	f.BoolVar(&uniqueScratch, "unique-scratch", false, "give every pop its own scratch variables instead of R13/R14")
	f.IntVarP(&jobs, "jobs", "j", 4, "files translated in parallel")
	f.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	return cmd
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse file.vm",
		Short: "Dump the commands parsed from a VM file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open input")
			}
			defer f.Close()
			return dumpCommands(cmd.OutOrStdout(), f)
		},
	}
}

// dumpCommands prints each parsed command with its source line. It stops at
// the first malformed line.
func dumpCommands(w io.Writer, r io.Reader) error {
	sc := vm.NewScanner(r)
	for res := range sc.All() {
		if res.Skip {
			continue
		}
		if res.Err != nil {
			return res.Err
		}
		fmt.Fprintf(w, "%d: %s\n", res.Line, res.Command)
		spew.Fdump(w, res.Command)
	}
	return sc.Err()
}

func newAssembleCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "assemble file.asm",
		Short: "Assemble Hack assembly into a .hack file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "failed to read input file %q", args[0])
			}
			words, _, err := asm.Assemble(string(source))
			if err != nil {
				return errors.Wrap(err, "assembly failed")
			}

			if output == "" {
				output = utils.OutputPath(args[0], ".hack")
			}
			f, err := os.Create(output)
			if err != nil {
				return errors.Wrap(err, "create output")
			}
			defer f.Close()
			if err := asm.WriteHack(f, words); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assembled %d words -> %s\n", len(words), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input with .hack extension)")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		steps int
		set   map[string]int
		stack int
	)
	cmd := &cobra.Command{
		Use:   "run file",
		Short: "Run a .vm, .asm or .hack program on the emulated CPU",
		Long: `Run builds the program and executes it until it halts or the step limit
is reached. --set seeds RAM before the first instruction; keys are addresses
or predefined symbols such as SP, LCL or R13. VM programs get the bootstrap
prologue unless --set gives SP.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := resolvePresets(set)
			if err != nil {
				return err
			}
			_, spPreset := presets[cpu.SPAddr]

			words, err := translator.Build(args[0], translator.Options{Bootstrap: !spPreset})
			if err != nil {
				return err
			}
			machine := cpu.NewCPU()
			if err := machine.LoadProgram(words); err != nil {
				return err
			}
			for addr, v := range presets {
				machine.Write(addr, v)
			}
			ran := machine.RunFor(steps)
			printState(cmd.OutOrStdout(), args[0], machine, ran, stack)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&steps, "steps", 1_000_000, "maximum instructions to execute")
	f.StringToIntVar(&set, "set", nil, "RAM cells to preset, e.g. LCL=300,ARG=400,1024=7")
	f.IntVar(&stack, "stack", 8, "number of stack entries to print (top first)")
	return cmd
}

// resolvePresets maps --set keys to RAM addresses. Two keys naming the same
// cell are rejected.
func resolvePresets(set map[string]int) (map[uint16]uint16, error) {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	presets := make(map[uint16]uint16, len(set))
	for _, k := range keys {
		addr, err := resolveAddress(k)
		if err != nil {
			return nil, err
		}
		if _, dup := presets[addr]; dup {
			return nil, errors.Errorf("RAM[%d] is set twice", addr)
		}
		presets[addr] = uint16(set[k])
	}
	return presets, nil
}

func resolveAddress(name string) (uint16, error) {
	if addr, ok := asm.PredefinedSymbols[strings.ToUpper(name)]; ok {
		return addr, nil
	}
	v, err := strconv.ParseUint(name, 10, 16)
	if err != nil || v > asm.MaxAddress {
		return 0, errors.Errorf("invalid RAM address %q", name)
	}
	return uint16(v), nil
}

func printState(w io.Writer, path string, c *cpu.CPU, ran, depth int) {
	status := "halted"
	if !c.Halted {
		status = "step limit reached"
	}
	fmt.Fprintf(w, "run complete (%s): %s after %d steps: PC=%d A=%d D=%d SP=%d\n",
		path, status, ran, c.PC, c.A, int16(c.D), c.RAM[cpu.SPAddr])

	values := c.Stack()
	for i := len(values) - 1; i >= 0 && len(values)-i <= depth; i-- {
		fmt.Fprintf(w, "  [%d] %d\n", int(cpu.StackBase)+i, values[i])
	}
}
