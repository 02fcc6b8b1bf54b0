package cpu

import (
	"image"
	"image/png"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"hackvm/pkg/grid"
)

const (
	ScreenWidth  = 512
	ScreenHeight = 256

	// screenCols is the number of RAM words per screen row.
	screenCols = ScreenWidth / 16
)

// Pixel reports whether the pixel at (x, y) is on (black). Bit 0 of each
// screen word is its leftmost pixel.
func (c *CPU) Pixel(x, y int) bool {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		return false
	}
	word := c.RAM[int(ScreenBase)+y*screenCols+x/16]
	return word&(1<<(x%16)) != 0
}

// GetFramebufferRGBA decodes screen memory into a 512×256 RGBA8888 byte
// slice: set bits are black, clear bits white.
func (c *CPU) GetFramebufferRGBA() []byte {
	pixels := make([]byte, ScreenWidth*ScreenHeight*4)

	for wordIdx := 0; wordIdx < ScreenWords; wordIdx++ {
		word := c.RAM[int(ScreenBase)+wordIdx]
		col, row := grid.GetGridCoords(wordIdx, screenCols)
		for bit := 0; bit < 16; bit++ {
			var shade byte = 0xFF
			if word&(1<<bit) != 0 {
				shade = 0x00
			}
			pixelIdx := (row*ScreenWidth + col*16 + bit) * 4
			pixels[pixelIdx+0] = shade
			pixels[pixelIdx+1] = shade
			pixels[pixelIdx+2] = shade
			pixels[pixelIdx+3] = 0xFF
		}
	}

	return pixels
}

// GetFramebufferImage returns the screen as an *image.RGBA.
func (c *CPU) GetFramebufferImage() *image.RGBA {
	pix := c.GetFramebufferRGBA()
	return &image.RGBA{
		Pix:    pix,
		Stride: ScreenWidth * 4,
		Rect:   image.Rect(0, 0, ScreenWidth, ScreenHeight),
	}
}

// ScaledFramebuffer returns the screen enlarged by an integer factor with
// nearest-neighbour sampling, so pixels stay sharp.
func (c *CPU) ScaledFramebuffer(scale int) *image.RGBA {
	src := c.GetFramebufferImage()
	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, ScreenWidth*scale, ScreenHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// SaveScreenshot encodes the screen, scaled by scale, as a PNG file.
func (c *CPU) SaveScreenshot(filename string, scale int) error {
	img := c.ScaledFramebuffer(scale)
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "create screenshot")
	}
	defer f.Close()
	return errors.Wrap(png.Encode(f, img), "encode screenshot")
}
