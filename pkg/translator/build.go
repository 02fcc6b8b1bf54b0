package translator

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"hackvm/pkg/asm"
	"hackvm/pkg/utils"
)

// Build turns a program file into machine words ready for cpu.LoadProgram.
// The extension selects the pipeline: ".vm" is translated then assembled,
// ".asm" is assembled and ".hack" is read as binary text.
func Build(path string, opts Options) ([]uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read program")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".vm":
		if opts.Unit == "" {
			opts.Unit = utils.UnitName(path)
		}
		var out bytes.Buffer
		if _, err := Translate(bytes.NewReader(data), &out, opts); err != nil {
			return nil, err
		}
		return assemble(out.String())
	case ".asm":
		return assemble(string(data))
	case ".hack":
		return asm.ReadHack(bytes.NewReader(data))
	}
	return nil, errors.Errorf("unsupported program type %q", filepath.Ext(path))
}

func assemble(code string) ([]uint16, error) {
	words, _, err := asm.Assemble(code)
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}
	return words, nil
}
