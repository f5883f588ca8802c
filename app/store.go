package app

import (
	"fmt"

	"fastclock/clock/config"
	"fastclock/clock/storage"
	"fastclock/hal"
)

// openStore selects the persistence backend.
func openStore(h hal.HAL, cfg config.Storage) (storage.Store, error) {
	switch cfg.Backend {
	case "", config.StorageFlash:
		return storage.NewFlashStore(h.Flash()), nil
	case config.StorageSQLite:
		return openSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("storage backend %q: %w", cfg.Backend, config.ErrInvalid)
	}
}
