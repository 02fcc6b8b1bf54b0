package cpu

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"testing"
)

func TestCPU_HibernateCoreState(t *testing.T) {
	c1 := loadAsm(t, "@7\nD=A\n@256\nM=D\n")
	c1.Step()
	c1.Step()
	c1.RAM[300] = 0xBEEF
	c1.RAM[KeyboardAddr] = 65

	data, err := c1.HibernateToBytes()
	if err != nil {
		t.Fatalf("HibernateToBytes: %v", err)
	}

	c2 := NewCPU()
	if err := c2.RestoreFromBytes(data); err != nil {
		t.Fatalf("RestoreFromBytes: %v", err)
	}

	if c2.A != c1.A || c2.D != c1.D || c2.PC != c1.PC {
		t.Errorf("registers: got A=%d D=%d PC=%d; want A=%d D=%d PC=%d", c2.A, c2.D, c2.PC, c1.A, c1.D, c1.PC)
	}
	if c2.ProgramLen != 4 || c2.Cycles != 2 || c2.Halted {
		t.Errorf("control state: len=%d cycles=%d halted=%v", c2.ProgramLen, c2.Cycles, c2.Halted)
	}
	if c2.ROM != c1.ROM {
		t.Errorf("ROM differs after restore")
	}
	if c2.RAM[300] != 0xBEEF || c2.RAM[KeyboardAddr] != 65 {
		t.Errorf("RAM not restored")
	}

	// Execution resumes where it stopped.
	c2.Run()
	if c2.RAM[256] != 7 {
		t.Errorf("RAM[256] = %d; want 7", c2.RAM[256])
	}
}

func TestCPU_HibernateFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.zip")
	c1 := loadAsm(t, "@42\nD=A\n")
	c1.Run()
	if err := c1.HibernateToFile(path); err != nil {
		t.Fatalf("HibernateToFile: %v", err)
	}

	c2 := NewCPU()
	if err := c2.RestoreFromFile(path); err != nil {
		t.Fatalf("RestoreFromFile: %v", err)
	}
	if c2.D != 42 || !c2.Halted {
		t.Errorf("D=%d halted=%v; want 42 true", c2.D, c2.Halted)
	}
}

func TestCPU_RestoreRejectsGarbage(t *testing.T) {
	c := NewCPU()
	if err := c.RestoreFromBytes([]byte("not a zip")); err == nil {
		t.Errorf("expected error for invalid archive")
	}
	if err := c.RestoreFromFile(filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

// replaceZipEntry rewrites the archive with the named entry's content swapped.
func replaceZipEntry(t *testing.T, data []byte, name string, content []byte) []byte {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range r.File {
		w, err := zw.Create(f.Name)
		if err != nil {
			t.Fatal(err)
		}
		if f.Name == name {
			_, err = w.Write(content)
		} else {
			var rc io.ReadCloser
			if rc, err = f.Open(); err == nil {
				_, err = io.Copy(w, rc)
				rc.Close()
			}
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCPU_RestoreRejectsShortImages(t *testing.T) {
	src := loadAsm(t, "@1\nD=A\n")
	data, err := src.HibernateToBytes()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		entry   string
		content []byte
	}{
		{"ram.bin", []byte{1, 0, 2, 0}},
		{"rom.bin", []byte{1}},
		{"rom.bin", make([]byte, 8)},
	}
	for _, tc := range tests {
		c := NewCPU()
		c.RAM[1000] = 77
		c.ROM[0] = 99
		err := c.RestoreFromBytes(replaceZipEntry(t, data, tc.entry, tc.content))
		if err == nil {
			t.Errorf("%s with %d bytes: expected error", tc.entry, len(tc.content))
			continue
		}
		if c.RAM[1000] != 77 || c.ROM[0] != 99 {
			t.Errorf("%s: machine modified by a rejected snapshot", tc.entry)
		}
	}
}
