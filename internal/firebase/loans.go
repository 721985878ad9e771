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

// loanDoc przechowuje daty jako tekst RRRR-MM-DD
type loanDoc struct {
	ID         int64   `firestore:"id"`
	UserID     int64   `firestore:"user_id"`
	BookID     int64   `firestore:"book_id"`
	LoanDate   string  `firestore:"loan_date"`
	ReturnDate *string `firestore:"return_date"`
	Returned   bool    `firestore:"returned"`
}

func newLoanDoc(l *models.Loan) loanDoc {
	d := loanDoc{
		ID:       l.ID,
		UserID:   l.UserID,
		BookID:   l.BookID,
		LoanDate: l.LoanDate.String(),
		Returned: l.Returned,
	}
	if l.ReturnDate != nil {
		s := l.ReturnDate.String()
		d.ReturnDate = &s
	}
	return d
}

func (d loanDoc) toModel() (*models.Loan, error) {
	loanDate, err := models.ParseDate(d.LoanDate)
	if err != nil {
		return nil, fmt.Errorf("błędna data wypożyczenia %d: %w", d.ID, err)
	}
	loan := &models.Loan{
		ID:       d.ID,
		UserID:   d.UserID,
		BookID:   d.BookID,
		LoanDate: loanDate,
		Returned: d.Returned,
	}
	if d.ReturnDate != nil {
		returnDate, err := models.ParseDate(*d.ReturnDate)
		if err != nil {
			return nil, fmt.Errorf("błędna data zwrotu %d: %w", d.ID, err)
		}
		loan.ReturnDate = &returnDate
	}
	return loan, nil
}

func (c *Client) loansOfBook(bookID int64) firestore.Query {
	return c.Firestore.Collection(LoansCollection).Where("book_id", "==", bookID)
}

// otherActiveLoans liczy aktywne wypożyczenia książki poza wypożyczeniem exceptID
func (c *Client) otherActiveLoans(tx *firestore.Transaction, bookID, exceptID int64) (int, error) {
	docs, err := readAll[loanDoc](tx.Documents(c.loansOfBook(bookID).Where("returned", "==", false)))
	if err != nil {
		return 0, fmt.Errorf("błąd sprawdzania aktywnych wypożyczeń: %w", err)
	}
	n := 0
	for _, d := range docs {
		if d.ID != exceptID {
			n++
		}
	}
	return n, nil
}

func (c *Client) getLoanTx(tx *firestore.Transaction, id int64) (*models.Loan, error) {
	snap, err := tx.Get(c.doc(LoansCollection, id))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("wypożyczenie %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("błąd pobierania wypożyczenia %d: %w", id, err)
	}
	var d loanDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("błąd parsowania danych wypożyczenia %d: %w", id, err)
	}
	return d.toModel()
}

// GetLoan pobiera wypożyczenie po ID
func (c *Client) GetLoan(ctx context.Context, id int64) (*models.Loan, error) {
	snap, err := c.doc(LoansCollection, id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("wypożyczenie %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("błąd pobierania wypożyczenia %d: %w", id, err)
	}

	var d loanDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("błąd parsowania danych wypożyczenia %d: %w", id, err)
	}
	return d.toModel()
}

// ListLoans pobiera wypożyczenia, opcjonalnie jednego czytelnika
func (c *Client) ListLoans(ctx context.Context, q models.LoanQuery) ([]*models.Loan, error) {
	query := c.Firestore.Collection(LoansCollection).Query
	if q.UserID > 0 {
		query = query.Where("user_id", "==", q.UserID)
	}
	docs, err := readAll[loanDoc](query.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("błąd pobierania wypożyczeń: %w", err)
	}

	loans := make([]*models.Loan, 0, len(docs))
	for _, d := range docs {
		loan, err := d.toModel()
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })

	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		loans, err = c.searchLoans(ctx, loans, term)
		if err != nil {
			return nil, err
		}
	}

	sortLoans(loans, q.Ordering)
	return loans, nil
}

func (c *Client) searchLoans(ctx context.Context, loans []*models.Loan, term string) ([]*models.Loan, error) {
	ids := make([]int64, 0, len(loans))
	for _, l := range loans {
		ids = append(ids, l.BookID)
	}
	books, err := c.GetBooks(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := []*models.Loan{}
	for _, l := range loans {
		if b, ok := books[l.BookID]; ok && strings.Contains(strings.ToLower(b.Title), term) {
			results = append(results, l)
		}
	}
	return results, nil
}

// sortLoans zakłada wejście posortowane po id; brak daty zwrotu jest traktowany jak najmniejsza wartość
func sortLoans(loans []*models.Loan, o models.LoanOrdering) {
	returnKey := func(l *models.Loan) string {
		if l.ReturnDate == nil {
			return ""
		}
		return l.ReturnDate.String()
	}

	var less func(a, b *models.Loan) bool
	switch o {
	case models.OrderLoanDateAsc:
		less = func(a, b *models.Loan) bool { return a.LoanDate.Before(b.LoanDate.Time) }
	case models.OrderLoanDateDesc:
		less = func(a, b *models.Loan) bool { return a.LoanDate.After(b.LoanDate.Time) }
	case models.OrderReturnDateAsc:
		less = func(a, b *models.Loan) bool { return returnKey(a) < returnKey(b) }
	case models.OrderReturnDateDesc:
		less = func(a, b *models.Loan) bool { return returnKey(a) > returnKey(b) }
	default:
		return
	}
	sort.SliceStable(loans, func(i, j int) bool { return less(loans[i], loans[j]) })
}

// CreateLoan zapisuje wypożyczenie i dostępność książki w jednej transakcji
func (c *Client) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if loan == nil {
		return fmt.Errorf("wypożyczenie nie może być nil")
	}
	if loan.LoanDate.IsZero() {
		loan.LoanDate = models.Today()
	}
	loan.MarkReturned(models.Today())
	if err := loan.Validate(); err != nil {
		return err
	}

	return c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := c.checkLoanRefs(tx, loan); err != nil {
			return err
		}
		active, err := c.otherActiveLoans(tx, loan.BookID, 0)
		if err != nil {
			return err
		}
		changes, err := availabilityChanges(nil, loan, map[int64]int{loan.BookID: active})
		if err != nil {
			return err
		}
		id, err := c.reserveID(tx, LoansCollection)
		if err != nil {
			return err
		}

		if err := c.commitID(tx, LoansCollection, id); err != nil {
			return err
		}
		stored := *loan
		stored.ID = id
		if err := tx.Create(c.doc(LoansCollection, id), newLoanDoc(&stored)); err != nil {
			return fmt.Errorf("błąd zapisywania wypożyczenia: %w", err)
		}
		if err := c.setAvailability(tx, changes); err != nil {
			return err
		}
		loan.ID = id
		return nil
	})
}

// UpdateLoan aktualizuje wypożyczenie; data wypożyczenia pozostaje bez zmian
func (c *Client) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	if loan == nil {
		return fmt.Errorf("wypożyczenie nie może być nil")
	}

	return c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := c.getLoanTx(tx, loan.ID)
		if err != nil {
			return err
		}
		loan.LoanDate = current.LoanDate
		loan.MarkReturned(models.Today())
		if err := loan.Validate(); err != nil {
			return err
		}
		if err := c.checkLoanRefs(tx, loan); err != nil {
			return err
		}
		otherActive := make(map[int64]int, 2)
		for _, bookID := range []int64{loan.BookID, current.BookID} {
			if _, seen := otherActive[bookID]; seen {
				continue
			}
			if otherActive[bookID], err = c.otherActiveLoans(tx, bookID, loan.ID); err != nil {
				return err
			}
		}
		// Przeniesienie wypożyczenia na inną książkę zwalnia poprzednią
		changes, err := availabilityChanges(current, loan, otherActive)
		if err != nil {
			return err
		}

		if err := tx.Set(c.doc(LoansCollection, loan.ID), newLoanDoc(loan)); err != nil {
			return fmt.Errorf("błąd aktualizacji wypożyczenia %d: %w", loan.ID, err)
		}
		return c.setAvailability(tx, changes)
	})
}

// DeleteLoan usuwa wypożyczenie; usunięcie aktywnego zwalnia książkę
func (c *Client) DeleteLoan(ctx context.Context, id int64) error {
	return c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := c.getLoanTx(tx, id)
		if err != nil {
			return err
		}
		active, err := c.otherActiveLoans(tx, current.BookID, id)
		if err != nil {
			return err
		}
		changes, err := availabilityChanges(current, nil, map[int64]int{current.BookID: active})
		if err != nil {
			return err
		}

		if err := tx.Delete(c.doc(LoansCollection, id)); err != nil {
			return fmt.Errorf("błąd usuwania wypożyczenia %d: %w", id, err)
		}
		return c.setAvailability(tx, changes)
	})
}

func (c *Client) checkLoanRefs(tx *firestore.Transaction, loan *models.Loan) error {
	ok, err := exists(tx, c.doc(UsersCollection, loan.UserID))
	if err != nil {
		return fmt.Errorf("błąd sprawdzania użytkownika: %w", err)
	}
	if !ok {
		return &storage.ReferenceError{Field: "usuario", ID: loan.UserID}
	}

	ok, err = exists(tx, c.doc(BooksCollection, loan.BookID))
	if err != nil {
		return fmt.Errorf("błąd sprawdzania książki: %w", err)
	}
	if !ok {
		return &storage.ReferenceError{Field: "libro", ID: loan.BookID}
	}
	return nil
}

func (c *Client) setAvailable(tx *firestore.Transaction, bookID int64, available bool) error {
	err := tx.Update(c.doc(BooksCollection, bookID), []firestore.Update{{Path: "available", Value: available}})
	if err != nil {
		return fmt.Errorf("błąd aktualizacji dostępności książki %d: %w", bookID, err)
	}
	return nil
}
