//go:build tinygo || !cgo

package app

import (
	"errors"

	"fastclock/clock/storage"
)

func openSQLite(string) (storage.Store, error) {
	return nil, errors.New("sqlite storage requires cgo")
}
