package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"library-api/internal/models"
	"library-api/internal/storage"
)

func catalogTable(kind models.CatalogKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("nieznany rodzaj słownika: %q", kind)
	}
	return string(kind), nil
}

// ListEntries pobiera wszystkie wpisy słownika posortowane po id
func (s *Store) ListEntries(ctx context.Context, kind models.CatalogKind) ([]*models.CatalogEntry, error) {
	table, err := catalogTable(kind)
	if err != nil {
		return nil, err
	}

	entries := []*models.CatalogEntry{}
	ds := s.from(table).Select("id", "name").Order(goqu.C("id").Asc())
	if err := s.selectAll(ctx, s.db, &entries, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania %s: %w", table, err)
	}
	return entries, nil
}

// GetEntry pobiera wpis słownika po ID
func (s *Store) GetEntry(ctx context.Context, kind models.CatalogKind, id int64) (*models.CatalogEntry, error) {
	table, err := catalogTable(kind)
	if err != nil {
		return nil, err
	}

	var entry models.CatalogEntry
	ds := s.from(table).Select("id", "name").Where(goqu.C("id").Eq(id))
	if err := s.get(ctx, s.db, &entry, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania wpisu %s/%d: %w", table, id, err)
	}
	return &entry, nil
}

// CreateEntry tworzy nowy wpis słownika
func (s *Store) CreateEntry(ctx context.Context, kind models.CatalogKind, entry *models.CatalogEntry) error {
	if entry == nil {
		return fmt.Errorf("wpis nie może być nil")
	}
	table, err := catalogTable(kind)
	if err != nil {
		return err
	}
	entry.Name = strings.TrimSpace(entry.Name)
	if err := entry.Validate(); err != nil {
		return err
	}

	id, err := s.insert(ctx, s.db, s.insertInto(table).Rows(goqu.Record{"name": entry.Name}))
	if err != nil {
		return fmt.Errorf("błąd zapisywania wpisu %s: %w", table, err)
	}
	entry.ID = id
	return nil
}

// UpdateEntry aktualizuje nazwę istniejącego wpisu
func (s *Store) UpdateEntry(ctx context.Context, kind models.CatalogKind, entry *models.CatalogEntry) error {
	if entry == nil {
		return fmt.Errorf("wpis nie może być nil")
	}
	table, err := catalogTable(kind)
	if err != nil {
		return err
	}
	entry.Name = strings.TrimSpace(entry.Name)
	if err := entry.Validate(); err != nil {
		return err
	}

	ds := s.update(table).Set(goqu.Record{"name": entry.Name}).Where(goqu.C("id").Eq(entry.ID))
	if err := s.execAffecting(ctx, s.db, ds); err != nil {
		return fmt.Errorf("błąd aktualizacji wpisu %s/%d: %w", table, entry.ID, err)
	}
	return nil
}

// DeleteEntry usuwa wpis; klucze obce kaskadowo usuwają książki i ich wypożyczenia
func (s *Store) DeleteEntry(ctx context.Context, kind models.CatalogKind, id int64) error {
	table, err := catalogTable(kind)
	if err != nil {
		return err
	}

	err = s.execAffecting(ctx, s.db, s.deleteFrom(table).Where(goqu.C("id").Eq(id)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("wpis %s/%d nie istnieje: %w", table, id, err)
		}
		return fmt.Errorf("błąd usuwania wpisu %s/%d: %w", table, id, err)
	}
	return nil
}
