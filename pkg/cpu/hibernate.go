package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// humanReadableState is the JSON-serializable snapshot of CPU control state.
type humanReadableState struct {
	A          uint16 `json:"a"`
	D          uint16 `json:"d"`
	PC         uint16 `json:"pc"`
	ProgramLen int    `json:"program_len"`
	Halted     bool   `json:"halted"`
	Cycles     uint64 `json:"cycles"`
}

// HibernateToBytes serialises the complete machine state into an in-memory
// ZIP archive: cpu_state.json, rom.bin and ram.bin.
func (c *CPU) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := humanReadableState{
		A:          c.A,
		D:          c.D,
		PC:         c.PC,
		ProgramLen: c.ProgramLen,
		Halted:     c.Halted,
		Cycles:     c.Cycles,
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal cpu_state")
	}
	if err := writeZipEntry(zw, "cpu_state.json", jsonData); err != nil {
		return nil, err
	}

	// Only the loaded part of ROM is stored.
	if err := writeZipEntry(zw, "rom.bin", uint16SliceToLE(c.ROM[:c.ProgramLen])); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "ram.bin", uint16SliceToLE(c.RAM[:])); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "close zip")
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes applies an archive produced by HibernateToBytes.
func (c *CPU) RestoreFromBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.Wrap(err, "open zip")
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "cpu_state.json")
	if err != nil {
		return err
	}
	var state humanReadableState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return errors.Wrap(err, "unmarshal cpu_state")
	}
	if state.ProgramLen < 0 || state.ProgramLen > ROMSize {
		return errors.Errorf("invalid program length %d", state.ProgramLen)
	}

	romData, err := readZipEntry(fileMap, "rom.bin")
	if err != nil {
		return err
	}
	ramData, err := readZipEntry(fileMap, "ram.bin")
	if err != nil {
		return err
	}

	if len(romData) != state.ProgramLen*2 {
		return errors.Errorf("rom.bin holds %d bytes, want %d", len(romData), state.ProgramLen*2)
	}
	if len(ramData) != RAMSize*2 {
		return errors.Errorf("ram.bin holds %d bytes, want %d", len(ramData), RAMSize*2)
	}

	c.ROM = [ROMSize]uint16{}
	leToUint16Slice(romData, c.ROM[:state.ProgramLen])
	leToUint16Slice(ramData, c.RAM[:])

	c.A = state.A
	c.D = state.D
	c.PC = state.PC
	c.ProgramLen = state.ProgramLen
	c.Halted = state.Halted
	c.Cycles = state.Cycles
	return nil
}

// HibernateToFile writes the hibernation archive to the given file path.
func (c *CPU) HibernateToFile(path string) error {
	data, err := c.HibernateToBytes()
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write snapshot")
}

// RestoreFromFile reads a hibernation archive from the given file path and
// restores the machine state.
func (c *CPU) RestoreFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read snapshot")
	}
	return c.RestoreFromBytes(data)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create zip entry %q", name)
	}
	_, err = w.Write(data)
	return errors.Wrapf(err, "write zip entry %q", name)
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, errors.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open zip entry %q", name)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read zip entry %q", name)
	}
	return data, nil
}

func uint16SliceToLE(src []uint16) []byte {
	out := make([]byte, len(src)*2)
	for i, v := range src {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

// leToUint16Slice decodes len(dst) words; src must hold at least 2*len(dst) bytes.
func leToUint16Slice(src []byte, dst []uint16) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint16(src[i*2:])
	}
}
