package cli

import (
	"database/sql"
	"fmt"
	"io"

	_ "github.com/lib/pq" // postgres driver for the catalog database

	"github.com/kent-id/peerwire"
	"github.com/kent-id/peerwire/catalog/postgres"
	"github.com/kent-id/peerwire/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openCatalog returns the configured catalog and a closer for any connection it holds.
func openCatalog(cfg *config.Config) (peerwire.Catalog, io.Closer, error) {
	if cfg.Catalog.DSN == "" {
		return peerwire.NewStaticCatalog(cfg.Catalog.Peers...), nopCloser{}, nil
	}
	db, err := sql.Open("postgres", cfg.Catalog.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening catalog database: %w", err)
	}
	return postgres.New(db), db, nil
}
