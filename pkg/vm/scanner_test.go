package vm

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestScannerSkipsBlankAndComments(t *testing.T) {
	src := `// header comment

push constant 7
   // indented comment
push constant 8 // inline comment
add
`
	sc := NewScanner(strings.NewReader(src))

	var cmds []Command
	skipped := 0
	for res := range sc.All() {
		if res.Err != nil {
			t.Fatalf("line %d: unexpected error %v", res.Line, res.Err)
		}
		if res.Skip {
			skipped++
			continue
		}
		cmds = append(cmds, res.Command)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}

	want := []Command{PushCmd(Constant, 7), PushCmd(Constant, 8), Op(Add)}
	if len(cmds) != len(want) {
		t.Fatalf("got %d commands %v; want %v", len(cmds), cmds, want)
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Errorf("command %d = %v; want %v", i, cmds[i], want[i])
		}
	}
	if skipped != 3 {
		t.Errorf("skipped %d lines; want 3", skipped)
	}
}

func TestScannerReportsLineNumbers(t *testing.T) {
	sc := NewScanner(strings.NewReader("push constant 1\n\npush bogus 2\nadd\n"))

	var failed Result
	for sc.Scan() {
		if res := sc.Result(); res.Err != nil {
			failed = res
			break
		}
	}
	if failed.Err == nil {
		t.Fatal("expected a parse failure")
	}
	if failed.Line != 3 {
		t.Errorf("failure on line %d; want 3", failed.Line)
	}
	if !IsParseError(failed.Err, UnknownSegment) {
		t.Errorf("expected unknown segment, got %v", failed.Err)
	}
	if !strings.HasPrefix(failed.Err.Error(), "line 3:") {
		t.Errorf("error %q lacks line prefix", failed.Err)
	}

	// The scanner continues past a failure if the caller keeps going.
	if !sc.Scan() || sc.Result().Command != Op(Add) {
		t.Errorf("expected add after failure, got %+v", sc.Result())
	}
	if sc.Scan() {
		t.Errorf("expected end of input")
	}
}

func TestScannerCRLF(t *testing.T) {
	sc := NewScanner(strings.NewReader("push local 1\r\nneg\r\n"))
	var got []Command
	for res := range sc.All() {
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		got = append(got, res.Command)
	}
	if len(got) != 2 || got[0] != PushCmd(Local, 1) || got[1] != Op(Neg) {
		t.Errorf("got %v", got)
	}
}

type failingReader struct {
	data string
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, errors.New("disk on fire")
	}
	r.done = true
	return copy(p, r.data), nil
}

func TestScannerSurfacesReadErrors(t *testing.T) {
	sc := NewScanner(&failingReader{data: "push constant 1\n"})
	n := 0
	for range sc.All() {
		n++
	}
	if n != 1 {
		t.Errorf("got %d results before failure; want 1", n)
	}
	if sc.Err() == nil || !strings.Contains(sc.Err().Error(), "disk on fire") {
		t.Errorf("Err() = %v; want read failure", sc.Err())
	}
}

func TestScannerEmptyInput(t *testing.T) {
	sc := NewScanner(strings.NewReader(""))
	if sc.Scan() {
		t.Errorf("Scan on empty input returned true")
	}
	if sc.Err() != nil {
		t.Errorf("Err() = %v", sc.Err())
	}
}
