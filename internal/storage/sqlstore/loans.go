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

var loanColumns = []interface{}{
	goqu.I("l.id"), goqu.I("l.user_id"), goqu.I("l.book_id"),
	goqu.I("l.loan_date"), goqu.I("l.return_date"), goqu.I("l.returned"),
}

// GetLoan pobiera wypożyczenie po ID
func (s *Store) GetLoan(ctx context.Context, id int64) (*models.Loan, error) {
	return s.getLoan(ctx, s.db, id, false)
}

func (s *Store) getLoan(ctx context.Context, q sqlx.QueryerContext, id int64, lock bool) (*models.Loan, error) {
	var loan models.Loan
	ds := s.from(goqu.T(LoansTable).As("l")).Select(loanColumns...).Where(goqu.I("l.id").Eq(id))
	if lock && s.driver == DriverPostgres {
		ds = ds.ForUpdate(exp.Wait)
	}
	if err := s.get(ctx, q, &loan, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania wypożyczenia %d: %w", id, err)
	}
	return &loan, nil
}

// ListLoans pobiera wypożyczenia, opcjonalnie jednego czytelnika
func (s *Store) ListLoans(ctx context.Context, q models.LoanQuery) ([]*models.Loan, error) {
	ds := s.from(goqu.T(LoansTable).As("l")).Select(loanColumns...)

	if q.UserID > 0 {
		ds = ds.Where(goqu.I("l.user_id").Eq(q.UserID))
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		ds = ds.
			Join(goqu.T(BooksTable).As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
			Where(s.containsFold(goqu.I("b.title"), term))
	}
	ds = ds.Order(loanOrder(q.Ordering)...)

	loans := []*models.Loan{}
	if err := s.selectAll(ctx, s.db, &loans, ds); err != nil {
		return nil, fmt.Errorf("błąd pobierania wypożyczeń: %w", err)
	}
	return loans, nil
}

func loanOrder(o models.LoanOrdering) []exp.OrderedExpression {
	byID := goqu.I("l.id").Asc()
	switch o {
	case models.OrderLoanDateAsc:
		return []exp.OrderedExpression{goqu.I("l.loan_date").Asc(), byID}
	case models.OrderLoanDateDesc:
		return []exp.OrderedExpression{goqu.I("l.loan_date").Desc(), byID}
	case models.OrderReturnDateAsc:
		return []exp.OrderedExpression{goqu.I("l.return_date").Asc(), byID}
	case models.OrderReturnDateDesc:
		return []exp.OrderedExpression{goqu.I("l.return_date").Desc(), byID}
	}
	return []exp.OrderedExpression{byID}
}

// CreateLoan zapisuje wypożyczenie i ustawia dostępność książki w jednej transakcji
func (s *Store) CreateLoan(ctx context.Context, loan *models.Loan) error {
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

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.checkLoanRefs(ctx, tx, loan); err != nil {
			return err
		}
		if err := s.checkBookFree(ctx, tx, loan); err != nil {
			return err
		}

		rec := loanRecord(loan)
		rec["loan_date"] = loan.LoanDate.String()
		id, err := s.insert(ctx, tx, s.insertInto(LoansTable).Rows(rec))
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrBookOnLoan
			}
			return fmt.Errorf("błąd zapisywania wypożyczenia: %w", err)
		}
		loan.ID = id

		return s.syncBookAvailability(ctx, tx, loan.BookID)
	})
}

// UpdateLoan aktualizuje wypożyczenie; data wypożyczenia pozostaje bez zmian
func (s *Store) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	if loan == nil {
		return fmt.Errorf("wypożyczenie nie może być nil")
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.getLoan(ctx, tx, loan.ID, true)
		if err != nil {
			return err
		}
		loan.LoanDate = current.LoanDate
		loan.MarkReturned(models.Today())
		if err := loan.Validate(); err != nil {
			return err
		}
		if err := s.checkLoanRefs(ctx, tx, loan); err != nil {
			return err
		}
		if err := s.checkBookFree(ctx, tx, loan); err != nil {
			return err
		}

		ds := s.update(LoansTable).Set(loanRecord(loan)).Where(goqu.C("id").Eq(loan.ID))
		if _, err := s.exec(ctx, tx, ds); err != nil {
			if isUniqueViolation(err) {
				return storage.ErrBookOnLoan
			}
			return fmt.Errorf("błąd aktualizacji wypożyczenia %d: %w", loan.ID, err)
		}

		// Przeniesienie wypożyczenia na inną książkę zwalnia poprzednią
		if current.BookID != loan.BookID {
			if err := s.syncBookAvailability(ctx, tx, current.BookID); err != nil {
				return err
			}
		}
		return s.syncBookAvailability(ctx, tx, loan.BookID)
	})
}

// DeleteLoan usuwa wypożyczenie; usunięcie aktywnego zwalnia książkę
func (s *Store) DeleteLoan(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.getLoan(ctx, tx, id, true)
		if err != nil {
			return err
		}

		err = s.execAffecting(ctx, tx, s.deleteFrom(LoansTable).Where(goqu.C("id").Eq(id)))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("wypożyczenie %d nie istnieje: %w", id, err)
			}
			return fmt.Errorf("błąd usuwania wypożyczenia %d: %w", id, err)
		}

		if current.IsActive() {
			return s.syncBookAvailability(ctx, tx, current.BookID)
		}
		return nil
	})
}

func (s *Store) checkLoanRefs(ctx context.Context, q sqlx.QueryerContext, loan *models.Loan) error {
	ok, err := s.exists(ctx, q, UsersTable, loan.UserID)
	if err != nil {
		return fmt.Errorf("błąd sprawdzania użytkownika: %w", err)
	}
	if !ok {
		return &storage.ReferenceError{Field: "usuario", ID: loan.UserID}
	}

	ok, err = s.exists(ctx, q, BooksTable, loan.BookID)
	if err != nil {
		return fmt.Errorf("błąd sprawdzania książki: %w", err)
	}
	if !ok {
		return &storage.ReferenceError{Field: "libro", ID: loan.BookID}
	}
	return nil
}

// checkBookFree odrzuca drugie aktywne wypożyczenie tej samej książki
func (s *Store) checkBookFree(ctx context.Context, q sqlx.QueryerContext, loan *models.Loan) error {
	if !loan.IsActive() {
		return nil
	}
	n, err := s.count(ctx, q, LoansTable,
		goqu.C("book_id").Eq(loan.BookID),
		goqu.C("returned").Eq(false),
		goqu.C("id").Neq(loan.ID),
	)
	if err != nil {
		return fmt.Errorf("błąd sprawdzania aktywnych wypożyczeń: %w", err)
	}
	if n > 0 {
		return storage.ErrBookOnLoan
	}
	return nil
}

// syncBookAvailability ustawia dostępność książki: dostępna gdy nie ma aktywnych wypożyczeń
func (s *Store) syncBookAvailability(ctx context.Context, tx *sqlx.Tx, bookID int64) error {
	active, err := s.count(ctx, tx, LoansTable, goqu.C("book_id").Eq(bookID), goqu.C("returned").Eq(false))
	if err != nil {
		return fmt.Errorf("błąd liczenia aktywnych wypożyczeń książki %d: %w", bookID, err)
	}
	available := active == 0
	ds := s.update(BooksTable).Set(goqu.Record{"available": available}).Where(goqu.C("id").Eq(bookID))
	if _, err := s.exec(ctx, tx, ds); err != nil {
		return fmt.Errorf("błąd aktualizacji dostępności książki %d: %w", bookID, err)
	}
	return nil
}

// loanRecord buduje kolumny zapisu; daty trafiają do bazy jako tekst RRRR-MM-DD
func loanRecord(loan *models.Loan) goqu.Record {
	var returnDate interface{}
	if loan.ReturnDate != nil {
		returnDate = loan.ReturnDate.String()
	}
	return goqu.Record{
		"user_id":     loan.UserID,
		"book_id":     loan.BookID,
		"return_date": returnDate,
		"returned":    loan.Returned,
	}
}
