package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/stasis-flow/stasis/pkg/persistence"
	"github.com/stasis-flow/stasis/pkg/persistence/file"
	"github.com/stasis-flow/stasis/pkg/persistence/postgresql"
)

// NewPersistence creates a persistence layer from the database URL scheme.
// postgres:// URLs get the SQL store, anything else falls back to the
// file-based store using the URL as a directory path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(err)
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}
