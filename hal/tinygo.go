//go:build tinygo && baremetal && (rp2040 || rp2350)

package hal

import (
	"image/color"
	"machine"
	"strconv"

	"tinygo.org/x/drivers/ws2812"
)

type tinyGoHAL struct {
	logger *uartLogger
	gpio   GPIO
	lcd    CharDisplay
	pixel  Pixel
	t      *tinyGoTime
	flash  Flash
}

// New returns the Pico board HAL.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// LCD: HD44780 behind a PCF8574 backpack on I2C0, GP4 (SDA) / GP5 (SCL).
// Status pixel: WS2812 on GP16.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	logger := &uartLogger{uart: uart}

	lcd, err := newHD44780(machine.I2C0, machine.GP4, machine.GP5)
	if err != nil {
		logger.WriteLineString("hal: lcd: " + err.Error())
		lcd = nullLCD{cols: 20, rows: 4}
	}

	pixelPin := machine.GP16
	pixelPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return &tinyGoHAL{
		logger: logger,
		gpio:   newBoardGPIO(),
		lcd:    lcd,
		pixel:  &ws2812Pixel{dev: ws2812.New(pixelPin)},
		t:      newTinyGoTime(),
		flash:  newRP2Flash(),
	}
}

// newBoardGPIO exposes every line not taken by UART0, I2C0 or the pixel.
func newBoardGPIO() GPIO {
	pins := make([]GPIOPin, LineCount)
	for line := range pins {
		switch line {
		case 0, 1, LineI2CSDA, LineI2CSCL, LinePixel:
			continue
		}
		pins[line] = &machinePin{line: line, name: "GP" + strconv.Itoa(line), pin: machine.Pin(line)}
	}
	return newVirtualGPIO(pins)
}

func (h *tinyGoHAL) Logger() Logger       { return h.logger }
func (h *tinyGoHAL) GPIO() GPIO           { return h.gpio }
func (h *tinyGoHAL) Display() CharDisplay { return h.lcd }
func (h *tinyGoHAL) Pixel() Pixel         { return h.pixel }
func (h *tinyGoHAL) Flash() Flash         { return h.flash }
func (h *tinyGoHAL) Time() Time           { return h.t }

func (h *tinyGoHAL) Restart() error {
	machine.CPUReset()
	return nil
}

type ws2812Pixel struct {
	dev ws2812.Device
	buf [1]color.RGBA
}

func (p *ws2812Pixel) SetRGB(r, g, b uint8) error {
	p.buf[0] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	return p.dev.WriteColors(p.buf[:])
}
