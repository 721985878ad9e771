package firebase

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"

	"library-api/internal/models"
	"library-api/internal/storage"
)

type entryDoc struct {
	ID   int64  `firestore:"id"`
	Name string `firestore:"name"`
}

func (d entryDoc) toModel() *models.CatalogEntry {
	return &models.CatalogEntry{ID: d.ID, Name: d.Name}
}

func catalogCollection(kind models.CatalogKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("nieznany rodzaj słownika: %q", kind)
	}
	return string(kind), nil
}

// ListEntries pobiera wszystkie wpisy słownika posortowane po id
func (c *Client) ListEntries(ctx context.Context, kind models.CatalogKind) ([]*models.CatalogEntry, error) {
	collection, err := catalogCollection(kind)
	if err != nil {
		return nil, err
	}

	docs, err := readAll[entryDoc](c.Firestore.Collection(collection).OrderBy("id", firestore.Asc).Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("błąd pobierania %s: %w", collection, err)
	}

	entries := make([]*models.CatalogEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.toModel())
	}
	return entries, nil
}

// catalogNames zwraca nazwy wpisów słownika indeksowane po id
func (c *Client) catalogNames(ctx context.Context, kind models.CatalogKind) (map[int64]string, error) {
	entries, err := c.ListEntries(ctx, kind)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(entries))
	for _, e := range entries {
		names[e.ID] = e.Name
	}
	return names, nil
}

// GetEntry pobiera wpis słownika po ID
func (c *Client) GetEntry(ctx context.Context, kind models.CatalogKind, id int64) (*models.CatalogEntry, error) {
	collection, err := catalogCollection(kind)
	if err != nil {
		return nil, err
	}

	snap, err := c.doc(collection, id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("wpis %s/%d: %w", collection, id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("błąd pobierania wpisu %s/%d: %w", collection, id, err)
	}

	var d entryDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("błąd parsowania wpisu %s/%d: %w", collection, id, err)
	}
	return d.toModel(), nil
}

// CreateEntry tworzy nowy wpis słownika z kolejnym id z licznika
func (c *Client) CreateEntry(ctx context.Context, kind models.CatalogKind, entry *models.CatalogEntry) error {
	if entry == nil {
		return fmt.Errorf("wpis nie może być nil")
	}
	collection, err := catalogCollection(kind)
	if err != nil {
		return err
	}
	entry.Name = strings.TrimSpace(entry.Name)
	if err := entry.Validate(); err != nil {
		return err
	}

	err = c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		id, err := c.reserveID(tx, collection)
		if err != nil {
			return err
		}
		if err := c.commitID(tx, collection, id); err != nil {
			return err
		}
		if err := tx.Create(c.doc(collection, id), entryDoc{ID: id, Name: entry.Name}); err != nil {
			return err
		}
		entry.ID = id
		return nil
	})
	if err != nil {
		return fmt.Errorf("błąd zapisywania wpisu %s: %w", collection, err)
	}
	return nil
}

// UpdateEntry aktualizuje nazwę istniejącego wpisu
func (c *Client) UpdateEntry(ctx context.Context, kind models.CatalogKind, entry *models.CatalogEntry) error {
	if entry == nil {
		return fmt.Errorf("wpis nie może być nil")
	}
	collection, err := catalogCollection(kind)
	if err != nil {
		return err
	}
	entry.Name = strings.TrimSpace(entry.Name)
	if err := entry.Validate(); err != nil {
		return err
	}

	_, err = c.doc(collection, entry.ID).Update(ctx, []firestore.Update{{Path: "name", Value: entry.Name}})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("wpis %s/%d: %w", collection, entry.ID, storage.ErrNotFound)
		}
		return fmt.Errorf("błąd aktualizacji wpisu %s/%d: %w", collection, entry.ID, err)
	}
	return nil
}

// DeleteEntry usuwa wpis razem z jego książkami i ich wypożyczeniami
func (c *Client) DeleteEntry(ctx context.Context, kind models.CatalogKind, id int64) error {
	collection, err := catalogCollection(kind)
	if err != nil {
		return err
	}

	err = c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := c.doc(collection, id)
		ok, err := exists(tx, ref)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}

		books, err := readAll[bookDoc](tx.Documents(c.Firestore.Collection(BooksCollection).Where(kind.BookColumn(), "==", id)))
		if err != nil {
			return err
		}
		var refs []*firestore.DocumentRef
		for _, book := range books {
			loans, err := refsOf(tx.Documents(c.loansOfBook(book.ID)))
			if err != nil {
				return err
			}
			refs = append(refs, loans...)
			refs = append(refs, c.doc(BooksCollection, book.ID))
		}

		for _, r := range refs {
			if err := tx.Delete(r); err != nil {
				return err
			}
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return fmt.Errorf("błąd usuwania wpisu %s/%d: %w", collection, id, err)
	}
	return nil
}
