//go:build !linux && !tinygo

package hal

import "errors"

func newPeriphGPIO() (GPIO, error) {
	return nil, errors.New("periph gpio requires linux")
}
