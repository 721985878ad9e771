package sqlstore

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"library-api/internal/storage/sqlstore/migrations"
)

const migrationTable = "schema_migrations"

// Migrate stosuje wbudowane migracje dialektu, każdą co najwyżej raz
func (s *Store) Migrate(ctx context.Context) error {
	return applyMigrations(ctx, s, migrations.FS, s.driver)
}

func applyMigrations(ctx context.Context, s *Store, migrationFS fs.FS, root string) error {
	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return fmt.Errorf("błąd odczytu katalogu migracji: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`, migrationTable)
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("błąd tworzenia tabeli migracji: %w", err)
	}

	for _, file := range sqlFiles {
		content, err := fs.ReadFile(migrationFS, path.Join(root, file))
		if err != nil {
			return fmt.Errorf("błąd odczytu migracji %s: %w", file, err)
		}

		applied, err := s.count(ctx, s.db, migrationTable, goqu.C("name").Eq(file))
		if err != nil {
			return fmt.Errorf("błąd sprawdzania migracji %s: %w", file, err)
		}
		if applied > 0 {
			continue
		}

		upSQL := ExtractUpMigration(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		err = s.withTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, upSQL); err != nil {
				return fmt.Errorf("błąd wykonania migracji %s: %w", file, err)
			}
			record := s.insertInto(migrationTable).Rows(goqu.Record{
				"name":       file,
				"applied_at": time.Now().UTC().UnixMilli(),
			})
			if _, err := s.exec(ctx, tx, record); err != nil {
				return fmt.Errorf("błąd zapisu migracji %s: %w", file, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// ExtractUpMigration zwraca SQL z sekcji "-- +migrate Up"
func ExtractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}
