package database

import (
	"fmt"

	"myLearnCore/pkg/config"

	"github.com/dgraph-io/badger/v4"
)

// OpenBadger opens the embedded store at cfg.Badger.Path, or purely in memory
// when cfg.Badger.InMemory is set.
func OpenBadger(cfg *config.Config) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Badger.Path)
	if cfg.Badger.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return db, nil
}
