package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationFiles lists the embedded migrations for a direction ("up" or
// "down"), in the order they must run.
func MigrationFiles(direction string) ([]string, error) {
	if direction != "up" && direction != "down" {
		return nil, fmt.Errorf("unknown migration direction %q", direction)
	}
	names, err := fs.Glob(migrationFS, "migrations/*."+direction+".sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	if direction == "down" {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}
	return names, nil
}

// Migrate applies every embedded migration for direction.
func Migrate(ctx context.Context, db *DB, direction string) error {
	files, err := MigrationFiles(direction)
	if err != nil {
		return err
	}
	for _, f := range files {
		data, err := migrationFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		slog.Info("migration applied", "file", strings.TrimPrefix(f, "migrations/"))
	}
	return nil
}
