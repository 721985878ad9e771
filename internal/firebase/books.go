package firebase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"

	"library-api/internal/models"
	"library-api/internal/storage"
)

type bookDoc struct {
	ID              int64  `firestore:"id"`
	Title           string `firestore:"title"`
	AuthorID        int64  `firestore:"author_id"`
	PublisherID     int64  `firestore:"publisher_id"`
	GenreID         int64  `firestore:"genre_id"`
	PublicationYear int    `firestore:"publication_year"`
	Code            string `firestore:"code"`
	Available       bool   `firestore:"available"`
}

func newBookDoc(b *models.Book) bookDoc {
	return bookDoc{
		ID:              b.ID,
		Title:           b.Title,
		AuthorID:        b.AuthorID,
		PublisherID:     b.PublisherID,
		GenreID:         b.GenreID,
		PublicationYear: b.PublicationYear,
		Code:            b.Code,
		Available:       b.Available,
	}
}

func (d bookDoc) toModel() *models.Book {
	return &models.Book{
		ID:              d.ID,
		Title:           d.Title,
		AuthorID:        d.AuthorID,
		PublisherID:     d.PublisherID,
		GenreID:         d.GenreID,
		PublicationYear: d.PublicationYear,
		Code:            d.Code,
		Available:       d.Available,
	}
}

// GetBook pobiera książkę po ID
func (c *Client) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	snap, err := c.doc(BooksCollection, id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("książka %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("błąd pobierania książki %d: %w", id, err)
	}

	var d bookDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("błąd parsowania danych książki %d: %w", id, err)
	}
	return d.toModel(), nil
}

// GetBooks pobiera książki o podanych ID, indeksowane po ID
func (c *Client) GetBooks(ctx context.Context, ids []int64) (map[int64]*models.Book, error) {
	result := make(map[int64]*models.Book, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, c.doc(BooksCollection, id))
	}
	snaps, err := c.Firestore.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("błąd pobierania książek: %w", err)
	}

	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var d bookDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("błąd parsowania książki %s: %w", snap.Ref.ID, err)
		}
		result[d.ID] = d.toModel()
	}
	return result, nil
}

// ListBooks pobiera książki; wyszukiwanie i sortowanie odbywa się po stronie aplikacji,
// bo Firestore nie obsługuje wyszukiwania podciągów
func (c *Client) ListBooks(ctx context.Context, q models.BookQuery) ([]*models.Book, error) {
	docs, err := readAll[bookDoc](c.Firestore.Collection(BooksCollection).OrderBy("id", firestore.Asc).Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("błąd pobierania książek: %w", err)
	}

	books := make([]*models.Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.toModel())
	}

	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		books, err = c.searchBooks(ctx, books, term)
		if err != nil {
			return nil, err
		}
	}

	sortBooks(books, q.Ordering)
	return books, nil
}

func (c *Client) searchBooks(ctx context.Context, books []*models.Book, term string) ([]*models.Book, error) {
	names := make(map[models.CatalogKind]map[int64]string, len(models.CatalogKinds))
	for _, kind := range models.CatalogKinds {
		n, err := c.catalogNames(ctx, kind)
		if err != nil {
			return nil, err
		}
		names[kind] = n
	}

	results := []*models.Book{}
	for _, book := range books {
		fields := []string{book.Title}
		for _, kind := range models.CatalogKinds {
			fields = append(fields, names[kind][book.Ref(kind)])
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), term) {
				results = append(results, book)
				break
			}
		}
	}
	return results, nil
}

// sortBooks zakłada wejście posortowane po id; remisy zostają w tej kolejności
func sortBooks(books []*models.Book, o models.BookOrdering) {
	var less func(a, b *models.Book) bool
	switch o {
	case models.OrderYearAsc:
		less = func(a, b *models.Book) bool { return a.PublicationYear < b.PublicationYear }
	case models.OrderYearDesc:
		less = func(a, b *models.Book) bool { return a.PublicationYear > b.PublicationYear }
	case models.OrderTitleAsc:
		less = func(a, b *models.Book) bool { return a.Title < b.Title }
	case models.OrderTitleDesc:
		less = func(a, b *models.Book) bool { return a.Title > b.Title }
	default:
		return
	}
	sort.SliceStable(books, func(i, j int) bool { return less(books[i], books[j]) })
}

// CreateBook tworzy nową książkę; nowa książka jest zawsze dostępna
func (c *Client) CreateBook(ctx context.Context, book *models.Book) error {
	if book == nil {
		return fmt.Errorf("książka nie może być nil")
	}
	normalizeBook(book)
	if err := book.Validate(); err != nil {
		return err
	}
	book.Available = true

	return c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := c.checkBookRefs(tx, book); err != nil {
			return err
		}
		if err := c.checkCodeFree(tx, book); err != nil {
			return err
		}
		id, err := c.reserveID(tx, BooksCollection)
		if err != nil {
			return err
		}

		if err := c.commitID(tx, BooksCollection, id); err != nil {
			return err
		}
		stored := *book
		stored.ID = id
		if err := tx.Create(c.doc(BooksCollection, id), newBookDoc(&stored)); err != nil {
			return fmt.Errorf("błąd zapisywania książki: %w", err)
		}
		book.ID = id
		return nil
	})
}

// UpdateBook aktualizuje istniejącą książkę bez zmiany jej dostępności
func (c *Client) UpdateBook(ctx context.Context, book *models.Book) error {
	if book == nil {
		return fmt.Errorf("książka nie może być nil")
	}
	normalizeBook(book)
	if err := book.Validate(); err != nil {
		return err
	}

	return c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := c.doc(BooksCollection, book.ID)
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("książka %d: %w", book.ID, storage.ErrNotFound)
			}
			return err
		}
		var current bookDoc
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("błąd parsowania danych książki %d: %w", book.ID, err)
		}
		if err := c.checkBookRefs(tx, book); err != nil {
			return err
		}
		if err := c.checkCodeFree(tx, book); err != nil {
			return err
		}

		book.Available = current.Available
		if err := tx.Set(ref, newBookDoc(book)); err != nil {
			return fmt.Errorf("błąd aktualizacji książki %d: %w", book.ID, err)
		}
		return nil
	})
}

// DeleteBook usuwa książkę razem z jej wypożyczeniami
func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	return c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := c.doc(BooksCollection, id)
		ok, err := exists(tx, ref)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("książka %d nie istnieje: %w", id, storage.ErrNotFound)
		}

		loans, err := refsOf(tx.Documents(c.loansOfBook(id)))
		if err != nil {
			return err
		}
		for _, l := range loans {
			if err := tx.Delete(l); err != nil {
				return err
			}
		}
		return tx.Delete(ref)
	})
}

func (c *Client) checkBookRefs(tx *firestore.Transaction, book *models.Book) error {
	fields := map[models.CatalogKind]string{
		models.KindAuthor:    "autor",
		models.KindPublisher: "editorial",
		models.KindGenre:     "genero",
	}
	for _, kind := range models.CatalogKinds {
		id := book.Ref(kind)
		ok, err := exists(tx, c.doc(string(kind), id))
		if err != nil {
			return fmt.Errorf("błąd sprawdzania %s: %w", kind, err)
		}
		if !ok {
			return &storage.ReferenceError{Field: fields[kind], ID: id}
		}
	}
	return nil
}

func (c *Client) checkCodeFree(tx *firestore.Transaction, book *models.Book) error {
	docs, err := readAll[bookDoc](tx.Documents(c.Firestore.Collection(BooksCollection).Where("code", "==", book.Code)))
	if err != nil {
		return fmt.Errorf("błąd sprawdzania kodu książki: %w", err)
	}
	for _, d := range docs {
		if d.ID != book.ID {
			return &storage.ConflictError{Field: "codigo"}
		}
	}
	return nil
}

func normalizeBook(book *models.Book) {
	book.Title = strings.TrimSpace(book.Title)
	book.Code = strings.TrimSpace(book.Code)
}
