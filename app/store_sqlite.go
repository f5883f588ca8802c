//go:build !tinygo && cgo

package app

import "fastclock/clock/storage"

func openSQLite(path string) (storage.Store, error) {
	if path == "" {
		path = "fastclock.db"
	}
	return storage.OpenSQLite(path)
}
