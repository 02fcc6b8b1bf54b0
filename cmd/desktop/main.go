package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"hackvm/pkg/cpu"
	"hackvm/pkg/translator"
	"hackvm/pkg/utils"
)

type Game struct {
	vm            *cpu.CPU
	screenImg     *ebiten.Image // reused 512×256 canvas
	keys          []ebiten.Key
	stepsPerFrame int
	snapshotPath  string
	shotPath      string
	status        string
}

var letterKeys = []ebiten.Key{
	ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF,
	ebiten.KeyG, ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL,
	ebiten.KeyM, ebiten.KeyN, ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR,
	ebiten.KeyS, ebiten.KeyT, ebiten.KeyU, ebiten.KeyV, ebiten.KeyW, ebiten.KeyX,
	ebiten.KeyY, ebiten.KeyZ,
}

var digitKeys = []ebiten.Key{
	ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

var functionKeys = []ebiten.Key{
	ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4, ebiten.KeyF5, ebiten.KeyF6,
	ebiten.KeyF7, ebiten.KeyF8, ebiten.KeyF9, ebiten.KeyF10, ebiten.KeyF11, ebiten.KeyF12,
}

var specialKeys = map[ebiten.Key]uint16{
	ebiten.KeyEnter:      cpu.KeyNewline,
	ebiten.KeyBackspace:  cpu.KeyBackspace,
	ebiten.KeyArrowLeft:  cpu.KeyLeft,
	ebiten.KeyArrowUp:    cpu.KeyUp,
	ebiten.KeyArrowRight: cpu.KeyRight,
	ebiten.KeyArrowDown:  cpu.KeyDown,
	ebiten.KeyHome:       cpu.KeyHome,
	ebiten.KeyEnd:        cpu.KeyEnd,
	ebiten.KeyPageUp:     cpu.KeyPageUp,
	ebiten.KeyPageDown:   cpu.KeyPageDown,
	ebiten.KeyInsert:     cpu.KeyInsert,
	ebiten.KeyDelete:     cpu.KeyDelete,
	ebiten.KeyEscape:     cpu.KeyEscape,
	ebiten.KeySpace:      ' ',
	ebiten.KeyMinus:      '-',
	ebiten.KeyEqual:      '=',
	ebiten.KeyComma:      ',',
	ebiten.KeyPeriod:     '.',
	ebiten.KeySlash:      '/',
	ebiten.KeySemicolon:  ';',
	ebiten.KeyQuote:      '\'',
	ebiten.KeyBackslash:  '\\',
	ebiten.KeyBackquote:  '`',
}

// keyCode maps a host key to the Hack keyboard code, or 0 when the key has
// no Hack equivalent.
func keyCode(k ebiten.Key, shift bool) uint16 {
	for i, lk := range letterKeys {
		if lk == k {
			if shift {
				return uint16('A' + i)
			}
			return uint16('a' + i)
		}
	}
	for i, dk := range digitKeys {
		if dk == k {
			return uint16('0' + i)
		}
	}
	for i, fk := range functionKeys {
		if fk == k {
			return cpu.KeyF1 + uint16(i)
		}
	}
	return specialKeys[k]
}

func (g *Game) Update() error {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl)
	if ctrl {
		g.handleHotkeys()
		g.vm.PushKey(0)
	} else {
		g.keys = inpututil.AppendPressedKeys(g.keys[:0])
		shift := ebiten.IsKeyPressed(ebiten.KeyShift)
		var code uint16
		for _, k := range g.keys {
			if c := keyCode(k, shift); c != 0 {
				code = c
				break
			}
		}
		g.vm.PushKey(code)
	}

	g.vm.RunFor(g.stepsPerFrame)
	return nil
}

// handleHotkeys implements Ctrl+S (snapshot), Ctrl+L (restore snapshot) and
// Ctrl+P (PNG screenshot).
func (g *Game) handleHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.report(g.vm.HibernateToFile(g.snapshotPath), "saved "+g.snapshotPath)
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.report(g.vm.RestoreFromFile(g.snapshotPath), "restored "+g.snapshotPath)
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.report(g.vm.SaveScreenshot(g.shotPath, 2), "wrote "+g.shotPath)
	}
}

func (g *Game) report(err error, ok string) {
	if err != nil {
		g.status = err.Error()
		log.Println(err)
		return
	}
	g.status = ok
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(cpu.ScreenWidth, cpu.ScreenHeight)
	}
	g.screenImg.WritePixels(g.vm.GetFramebufferRGBA())
	screen.DrawImage(g.screenImg, nil)

	if g.vm.Halted {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("halted after %d cycles", g.vm.Cycles), 4, cpu.ScreenHeight-32)
	}
	if g.status != "" {
		ebitenutil.DebugPrintAt(screen, g.status, 4, cpu.ScreenHeight-16)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.ScreenWidth, cpu.ScreenHeight
}

// loadMachine builds the program at path and returns a CPU ready to run it.
func loadMachine(path string, bootstrap bool) (*cpu.CPU, error) {
	fullPath, _, err := utils.GetPathInfo(path)
	if err != nil {
		return nil, err
	}
	words, err := translator.Build(fullPath, translator.Options{Bootstrap: bootstrap})
	if err != nil {
		return nil, err
	}
	vm := cpu.NewCPU()
	if err := vm.LoadProgram(words); err != nil {
		return nil, err
	}
	return vm, nil
}

func main() {
	bootstrap := flag.Bool("bootstrap", true, "prepend the SP=256 prologue to .vm programs")
	scale := flag.Int("scale", 2, "window scale")
	speed := flag.Int("speed", 10000, "instructions executed per frame")
	snapshot := flag.String("snapshot", "hackvm_snapshot.zip", "snapshot file for Ctrl+S / Ctrl+L")
	screenshot := flag.String("screenshot", "hackvm_screen.png", "PNG file for Ctrl+P")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [flags] program.vm|program.asm|program.hack")
		flag.PrintDefaults()
		os.Exit(2)
	}

	vm, err := loadMachine(flag.Arg(0), *bootstrap)
	if err != nil {
		log.Fatalf("Failed to load program: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cpu.ScreenWidth*(*scale), cpu.ScreenHeight*(*scale))
	ebiten.SetWindowTitle("Hack VM Desktop")

	game := &Game{
		vm:            vm,
		stepsPerFrame: *speed,
		snapshotPath:  *snapshot,
		shotPath:      *screenshot,
	}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
