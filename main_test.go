//go:build !js

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hackvm/pkg/asm"
	"hackvm/pkg/cpu"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranslateCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Main.vm", "push constant 1\npop static 2\n")

	out, err := execute(t, "translate", "--bootstrap", "-v", in)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	asmPath := filepath.Join(dir, "Main.asm")
	if !strings.Contains(out, asmPath) || !strings.Contains(out, "translated 2 commands") {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(asmPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "// bootstrap\n") || !strings.Contains(string(data), "@Main.2\n") {
		t.Errorf("Main.asm:\n%s", data)
	}
}

func TestTranslateCommandMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "A.vm", "push constant 1\n")
	b := writeFile(t, dir, "B.vm", "push constant 2\n")

	if _, err := execute(t, "translate", "-o", filepath.Join(dir, "x.asm"), a, b); err == nil {
		t.Errorf("expected -o to be rejected with several inputs")
	}

	if _, err := execute(t, "translate", "-j", "1", a, b); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"A.asm", "B.asm"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestTranslateCommandError(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Bad.vm", "push constant 1\npop constant 1\n")
	_, err := execute(t, "translate", in)
	if err == nil || !strings.Contains(err.Error(), "Bad: line 2") {
		t.Errorf("err = %v", err)
	}
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "P.vm", "// comment\npush local 3\nadd\n")
	out, err := execute(t, "parse", in)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"2: push local 3", "3: add", "Index: (uint16) 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	bad := writeFile(t, dir, "Bad.vm", "push local\n")
	if _, err := execute(t, "parse", bad); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestAssembleCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Prog.asm", "@2\nD=A\n@3\nD=D+A\n@0\nM=D\n")
	out, err := execute(t, "assemble", in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "assembled 6 words") {
		t.Errorf("output = %q", out)
	}

	f, err := os.Open(filepath.Join(dir, "Prog.hack"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	words, err := asm.ReadHack(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 6 || words[1] != 0xEC10 {
		t.Errorf("words = %04X", words)
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Run.vm", "push constant 5\npush local 0\nadd\n")

	out, err := execute(t, "run", "--set", "LCL=300,300=37", in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "halted") || !strings.Contains(out, "SP=257") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "[256] 42") {
		t.Errorf("stack dump missing top value:\n%s", out)
	}

	out, err = execute(t, "run", "--steps", "3", in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "step limit reached after 3 steps") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, "run", "--set", "nowhere=1", in); err == nil {
		t.Errorf("expected error for unknown address")
	}
}

func TestResolveAddress(t *testing.T) {
	tests := []struct {
		name    string
		want    uint16
		wantErr bool
	}{
		{"SP", 0, false},
		{"lcl", 1, false},
		{"R13", 13, false},
		{"KBD", cpu.KeyboardAddr, false},
		{"1024", 1024, false},
		{"32768", 0, true},
		{"-1", 0, true},
		{"foo", 0, true},
	}
	for _, tc := range tests {
		got, err := resolveAddress(tc.name)
		if (err != nil) != tc.wantErr {
			t.Errorf("resolveAddress(%q) err = %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("resolveAddress(%q) = %d; want %d", tc.name, got, tc.want)
		}
	}
}

func TestRunCommandPresetSP(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Sp.vm", "push constant 9\n")

	out, err := execute(t, "run", "--set", "SP=300", in)
	if err != nil {
		t.Fatal(err)
	}
	// Without the bootstrap the push lands at RAM[300].
	if !strings.Contains(out, "SP=301") || !strings.Contains(out, "[300] 9") {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, "run", "--set", "sp=300,0=256", in); err == nil {
		t.Errorf("expected error for SP given twice")
	}
}
