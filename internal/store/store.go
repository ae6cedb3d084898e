// Package store provides resort.Repository implementations: an in-memory map
// for tests and ephemeral runs, and a gorm backed SQLite store.
package store

import (
	"errors"
	"fmt"

	"github.com/i474232898/skimeister/internal/resort"
)

// ErrInvalidResort is returned when a resort cannot be stored.
var ErrInvalidResort = errors.New("invalid resort")

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open returns the repository for driver. path is only used by the SQLite driver.
func Open(driver, path string, defaultStatus resort.Status) (resort.Repository, error) {
	switch driver {
	case DriverSQLite:
		s, err := NewSQLStore(path, defaultStatus)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return NewMemoryStore(defaultStatus), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func validateForUpsert(r resort.Resort) error {
	if r.Slug == "" {
		return fmt.Errorf("%w: missing slug", ErrInvalidResort)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: missing name for %s", ErrInvalidResort, r.Slug)
	}
	return nil
}
