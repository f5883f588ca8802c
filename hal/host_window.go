//go:build !tinygo && cgo

package hal

import (
	"errors"
	"image"
	"image/color"

	"fastclock/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

const windowScale = 3

// RunWindow starts a desktop window that shows the LCD and status pixel and
// forwards keyboard input to the bound button lines.
// It blocks until the window closes.
func RunWindow(cfg HostConfig, newApp func(HAL) func() error) error {
	h, err := newHostHAL(cfg)
	if err != nil {
		return err
	}
	step := newApp(h)

	g := &hostGame{h: h, step: step, newApp: newApp}
	ebiten.SetWindowTitle("fastclock (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.lcd.fb.width*windowScale, h.lcd.fb.height*windowScale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h       *hostHAL
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
	step    func() error
	newApp  func(HAL) func() error
}

func (g *hostGame) Update() error {
	g.h.pollKeys()
	g.h.t.step(1)
	if g.step == nil {
		return nil
	}
	err := g.step()
	if errors.Is(err, ErrRestart) {
		g.h.logger.WriteLineString("host: restarting")
		g.step = g.newApp(g.h)
		return nil
	}
	return err
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.lcd.fb
	if g.img == nil || g.img.Bounds().Dx() != fb.width || g.img.Bounds().Dy() != fb.height {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}

	fb.snapshotRGB565(g.scratch)

	src := g.scratch
	dst := g.img.Pix
	for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
		r, gg, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
		j := (i / 2) * 4
		dst[j+0] = r
		dst[j+1] = gg
		dst[j+2] = b
		dst[j+3] = 0xFF
	}

	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)

	// The status pixel sits in the top right corner of the bezel.
	r, gg, b := g.h.pixel.rgb()
	sw := screen.SubImage(image.Rect(fb.width-lcdPad+1, 1, fb.width-1, lcdPad-1)).(*ebiten.Image)
	sw.Fill(color.RGBA{R: scaleUp(r), G: scaleUp(gg), B: scaleUp(b), A: 0xff})
}

// scaleUp brightens the dim pixel levels for the screen.
func scaleUp(v uint8) uint8 {
	if v >= 16 {
		return 0xff
	}
	return v * 16
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.lcd.fb.width, g.h.lcd.fb.height
}
