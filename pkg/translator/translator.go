package translator

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"hackvm/pkg/codegen"
	"hackvm/pkg/utils"
	"hackvm/pkg/vm"
)

type Options struct {
	// Unit names static variables. TranslateFile derives it from the input
	// file name when empty.
	Unit string
	// Bootstrap prepends the SP initialisation prologue.
	Bootstrap bool
	// UniqueScratch is passed through to the code generator.
	UniqueScratch bool
	// Logger receives progress lines. Nil means silent.
	Logger *log.Logger
}

// Stats summarises one translation.
type Stats struct {
	Lines    int // source lines read
	Commands int // commands emitted
}

func (o Options) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}

// Translate reads VM source from r and writes Hack assembly to w. The output
// is assembled in memory; on the first error nothing is written to w.
func Translate(r io.Reader, w io.Writer, opts Options) (Stats, error) {
	var stats Stats
	g := codegen.New(codegen.Options{Unit: opts.Unit, UniqueScratch: opts.UniqueScratch})
	unit := g.Unit()

	var buf bytes.Buffer
	if opts.Bootstrap {
		buf.WriteString(codegen.Bootstrap())
		buf.WriteByte('\n')
	}

	sc := vm.NewScanner(r)
	for res := range sc.All() {
		stats.Lines = res.Line
		if res.Skip {
			continue
		}
		if res.Err != nil {
			return stats, errors.Wrap(res.Err, unit)
		}
		text, err := g.Emit(res.Command)
		if err != nil {
			return stats, errors.Wrapf(err, "%s: line %d", unit, res.Line)
		}
		buf.WriteString(text)
		buf.WriteByte('\n')
		stats.Commands++
	}
	if err := sc.Err(); err != nil {
		return stats, errors.Wrapf(err, "%s: read", unit)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return stats, errors.Wrap(err, "write output")
	}
	return stats, nil
}

// TranslateFile translates the file at in. An empty out means the input path
// with its extension replaced by ".asm". The output file is only created once
// translation has succeeded.
func TranslateFile(in, out string, opts Options) (string, error) {
	if out == "" {
		out = utils.OutputPath(in, ".asm")
	}
	if opts.Unit == "" {
		opts.Unit = utils.UnitName(in)
	}

	f, err := os.Open(in)
	if err != nil {
		return "", errors.Wrap(err, "open input")
	}
	defer f.Close()

	opts.logf("translating %s -> %s", in, out)
	var buf bytes.Buffer
	stats, err := Translate(f, &buf, opts)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return "", errors.Wrap(err, "write output")
	}
	opts.logf("translated %d commands from %d lines", stats.Commands, stats.Lines)
	return out, nil
}

// TranslateFiles translates each path into its own .asm file next to it,
// running at most jobs translations at once (jobs <= 0 means no limit).
// Every file gets a fresh generator and its own unit name. It stops
// starting new files after the first failure and returns that error.
func TranslateFiles(ctx context.Context, paths []string, opts Options, jobs int) ([]string, error) {
	outs := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fileOpts := opts
			fileOpts.Unit = ""
			out, err := TranslateFile(path, "", fileOpts)
			if err != nil {
				return err
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}
