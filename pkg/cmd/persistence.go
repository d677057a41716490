package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/notiair/pkg/persistence"
	"github.com/dukex/notiair/pkg/persistence/file"
	"github.com/dukex/notiair/pkg/persistence/postgresql"
)

// NewPersistence selects the adapter by URL scheme: postgres:// and
// postgresql:// use PostgreSQL, file://<dir> or a bare path use JSON files.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	provider, location := parsePersistenceURL(databaseURL)

	switch provider {
	case "postgres":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(location)
	}
}

func parsePersistenceURL(databaseURL string) (provider, location string) {
	scheme, rest, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file", databaseURL
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgres", databaseURL
	default:
		return "file", rest
	}
}
