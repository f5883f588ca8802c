//go:build tinygo && baremetal

package hal

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/hd44780i2c"
)

const (
	lcdAddress = 0x27
	lcdCols    = 20
	lcdRows    = 4
)

var errLCDRow = errors.New("lcd: row out of range")

type hd44780 struct {
	dev hd44780i2c.Device
	row [lcdCols]byte
}

func newHD44780(bus *machine.I2C, sda, scl machine.Pin) (CharDisplay, error) {
	if err := bus.Configure(machine.I2CConfig{SDA: sda, SCL: scl, Frequency: 100_000}); err != nil {
		return nil, err
	}
	dev := hd44780i2c.New(bus, lcdAddress)
	if err := dev.Configure(hd44780i2c.Config{Width: lcdCols, Height: lcdRows}); err != nil {
		return nil, err
	}
	dev.BacklightOn(true)
	dev.ClearDisplay()
	return &hd44780{dev: dev}, nil
}

func (d *hd44780) Cols() int { return lcdCols }
func (d *hd44780) Rows() int { return lcdRows }

func (d *hd44780) WriteRow(row int, text []byte) error {
	if row < 0 || row >= lcdRows {
		return errLCDRow
	}
	for i := range d.row {
		d.row[i] = ' '
		if i < len(text) {
			d.row[i] = text[i]
		}
	}
	d.dev.SetCursor(0, uint8(row))
	d.dev.Print(d.row[:])
	return nil
}

// nullLCD stands in when no display answers on the bus.
type nullLCD struct {
	cols, rows int
}

func (l nullLCD) Cols() int                  { return l.cols }
func (l nullLCD) Rows() int                  { return l.rows }
func (l nullLCD) WriteRow(int, []byte) error { return ErrNotImplemented }
