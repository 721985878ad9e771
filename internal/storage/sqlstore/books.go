package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"library-api/internal/models"
	"library-api/internal/storage"
)

var bookColumns = []interface{}{
	"id", "title", "author_id", "publisher_id", "genre_id", "publication_year", "code", "available",
}

// GetBook pobiera książkę po ID
func (s *Store) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	return s.getBook(ctx, s.db, id)
}

func (s *Store) getBook(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Book, error) {
	var book models.Book
	ds := s.from(BooksTable).Select(bookColumns...).Where(goqu.C("id").Eq(id))
	if err := s.get(ctx, q, &book, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania książki %d: %w", id, err)
	}
	return &book, nil
}

// GetBooks pobiera książki o podanych ID, indeksowane po ID
func (s *Store) GetBooks(ctx context.Context, ids []int64) (map[int64]*models.Book, error) {
	result := make(map[int64]*models.Book, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var books []*models.Book
	ds := s.from(BooksTable).Select(bookColumns...).Where(goqu.C("id").In(ids))
	if err := s.selectAll(ctx, s.db, &books, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania książek: %w", err)
	}
	for _, b := range books {
		result[b.ID] = b
	}
	return result, nil
}

// ListBooks pobiera książki z opcjonalnym wyszukiwaniem i sortowaniem
func (s *Store) ListBooks(ctx context.Context, q models.BookQuery) ([]*models.Book, error) {
	ds := s.from(goqu.T(BooksTable).As("b")).Select(goqu.T("b").All())

	// Szukaj po tytule, autorze, wydawnictwie i gatunku
	if term := strings.TrimSpace(q.Search); term != "" {
		ds = ds.
			Join(goqu.T(string(models.KindAuthor)).As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("b.author_id")))).
			Join(goqu.T(string(models.KindPublisher)).As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("b.publisher_id")))).
			Join(goqu.T(string(models.KindGenre)).As("g"), goqu.On(goqu.I("g.id").Eq(goqu.I("b.genre_id")))).
			Where(goqu.Or(
				s.containsFold(goqu.I("b.title"), term),
				s.containsFold(goqu.I("a.name"), term),
				s.containsFold(goqu.I("p.name"), term),
				s.containsFold(goqu.I("g.name"), term),
			))
	}
	ds = ds.Order(bookOrder(q.Ordering)...)

	books := []*models.Book{}
	if err := s.selectAll(ctx, s.db, &books, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania książek: %w", err)
	}
	return books, nil
}

func bookOrder(o models.BookOrdering) []exp.OrderedExpression {
	byID := goqu.I("b.id").Asc()
	switch o {
	case models.OrderYearAsc:
		return []exp.OrderedExpression{goqu.I("b.publication_year").Asc(), byID}
	case models.OrderYearDesc:
		return []exp.OrderedExpression{goqu.I("b.publication_year").Desc(), byID}
	case models.OrderTitleAsc:
		return []exp.OrderedExpression{goqu.I("b.title").Asc(), byID}
	case models.OrderTitleDesc:
		return []exp.OrderedExpression{goqu.I("b.title").Desc(), byID}
	}
	return []exp.OrderedExpression{byID}
}

// CreateBook tworzy nową książkę; nowa książka jest zawsze dostępna
func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	if book == nil {
		return fmt.Errorf("książka nie może być nil")
	}
	normalizeBook(book)
	if err := book.Validate(); err != nil {
		return err
	}
	book.Available = true

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.checkBookRefs(ctx, tx, book); err != nil {
			return err
		}
		if err := s.checkCodeFree(ctx, tx, book); err != nil {
			return err
		}

		id, err := s.insert(ctx, tx, s.insertInto(BooksTable).Rows(bookRecord(book, true)))
		if err != nil {
			if isUniqueViolation(err) {
				return &storage.ConflictError{Field: "codigo"}
			}
			return fmt.Errorf("błąd zapisywania książki: %w", err)
		}
		book.ID = id
		return nil
	})
}

// UpdateBook aktualizuje istniejącą książkę bez zmiany jej dostępności
func (s *Store) UpdateBook(ctx context.Context, book *models.Book) error {
	if book == nil {
		return fmt.Errorf("książka nie może być nil")
	}
	normalizeBook(book)
	if err := book.Validate(); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.getBook(ctx, tx, book.ID)
		if err != nil {
			return err
		}
		if err := s.checkBookRefs(ctx, tx, book); err != nil {
			return err
		}
		if err := s.checkCodeFree(ctx, tx, book); err != nil {
			return err
		}

		ds := s.update(BooksTable).Set(bookRecord(book, false)).Where(goqu.C("id").Eq(book.ID))
		if _, err := s.exec(ctx, tx, ds); err != nil {
			if isUniqueViolation(err) {
				return &storage.ConflictError{Field: "codigo"}
			}
			return fmt.Errorf("błąd aktualizacji książki %d: %w", book.ID, err)
		}
		book.Available = current.Available
		return nil
	})
}

// DeleteBook usuwa książkę razem z jej wypożyczeniami
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	err := s.execAffecting(ctx, s.db, s.deleteFrom(BooksTable).Where(goqu.C("id").Eq(id)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("książka %d nie istnieje: %w", id, err)
		}
		return fmt.Errorf("błąd usuwania książki %d: %w", id, err)
	}
	return nil
}

// checkBookRefs sprawdza czy autor, wydawnictwo i gatunek istnieją
func (s *Store) checkBookRefs(ctx context.Context, q sqlx.QueryerContext, book *models.Book) error {
	fields := map[models.CatalogKind]string{
		models.KindAuthor:    "autor",
		models.KindPublisher: "editorial",
		models.KindGenre:     "genero",
	}
	for _, kind := range models.CatalogKinds {
		id := book.Ref(kind)
		ok, err := s.exists(ctx, q, string(kind), id)
		if err != nil {
			return fmt.Errorf("błąd sprawdzania %s: %w", kind, err)
		}
		if !ok {
			return &storage.ReferenceError{Field: fields[kind], ID: id}
		}
	}
	return nil
}

// checkCodeFree sprawdza czy kod nie jest zajęty przez inną książkę
func (s *Store) checkCodeFree(ctx context.Context, q sqlx.QueryerContext, book *models.Book) error {
	n, err := s.count(ctx, q, BooksTable, goqu.C("code").Eq(book.Code), goqu.C("id").Neq(book.ID))
	if err != nil {
		return fmt.Errorf("błąd sprawdzania kodu książki: %w", err)
	}
	if n > 0 {
		return &storage.ConflictError{Field: "codigo"}
	}
	return nil
}

func normalizeBook(book *models.Book) {
	book.Title = strings.TrimSpace(book.Title)
	book.Code = strings.TrimSpace(book.Code)
}

func bookRecord(book *models.Book, withAvailability bool) goqu.Record {
	rec := goqu.Record{
		"title":            book.Title,
		"author_id":        book.AuthorID,
		"publisher_id":     book.PublisherID,
		"genre_id":         book.GenreID,
		"publication_year": book.PublicationYear,
		"code":             book.Code,
	}
	if withAvailability {
		rec["available"] = book.Available
	}
	return rec
}
