package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
)

//go:embed migrations
var migrationsDir embed.FS

var migrationVersion = regexp.MustCompile(`^(\d+)[-_]`)

type migration struct {
	version int
	name    string
}

func pendingMigrations(current int) ([]migration, error) {
	files, err := migrationsDir.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var pending []migration
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".sql" {
			continue
		}
		matches := migrationVersion.FindStringSubmatch(f.Name())
		if len(matches) < 2 {
			return nil, fmt.Errorf("parse version from migration file: %s", f.Name())
		}
		v, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("convert migration version from file %s: %w", f.Name(), err)
		}
		if v > current {
			pending = append(pending, migration{version: v, name: f.Name()})
		}
	}

	slices.SortFunc(pending, func(a, b migration) int { return a.version - b.version })
	return pending, nil
}

// migrate applies every migration newer than PRAGMA user_version, each in its
// own transaction. An existing database is backed up before the first one.
func (d *Database) migrate(ctx context.Context) error {
	var current int
	if err := d.read.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	pending, err := pendingMigrations(current)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	if current > 0 {
		if err := d.Backup(ctx); err != nil {
			return fmt.Errorf("backup database before migration: %w", err)
		}
	}

	for _, m := range pending {
		d.logger.Debug("applying migration", slog.Int("version", m.version), slog.String("file", m.name))
		if err := d.apply(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

func (d *Database) apply(ctx context.Context, m migration) error {
	data, err := migrationsDir.ReadFile(path.Join("migrations", m.name))
	if err != nil {
		return fmt.Errorf("read migration file %s: %w", m.name, err)
	}

	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction for migration %d: %w", m.version, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("apply migration %d: %w", m.version, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d;", m.version)); err != nil {
		return fmt.Errorf("update database version for migration %d: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.version, err)
	}
	return nil
}
