package sqlstore

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"library-api/internal/models"
)

// CountLoansByBook liczy wypożyczenia każdej książki, najczęściej wypożyczane pierwsze
func (s *Store) CountLoansByBook(ctx context.Context, limit int) ([]models.BorrowCount, error) {
	ds := s.from(LoansTable).
		Select(goqu.C("book_id"), goqu.COUNT(goqu.Star()).As("total")).
		GroupBy(goqu.C("book_id")).
		Order(goqu.I("total").Desc(), goqu.C("book_id").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	counts := []models.BorrowCount{}
	if err := s.selectAll(ctx, s.db, &counts, ds); err != nil {
		return nil, fmt.Errorf("błąd liczenia wypożyczeń książek: %w", err)
	}
	return counts, nil
}

// CountAvailability liczy wszystkie i dostępne książki w jednej transakcji
func (s *Store) CountAvailability(ctx context.Context) (models.Availability, error) {
	var total, available int
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if total, err = s.count(ctx, tx, BooksTable); err != nil {
			return err
		}
		available, err = s.count(ctx, tx, BooksTable, goqu.C("available").Eq(true))
		return err
	})
	if err != nil {
		return models.Availability{}, fmt.Errorf("błąd liczenia dostępności: %w", err)
	}
	return models.NewAvailability(total, available), nil
}

// CountLoansByDate liczy wypożyczenia według daty wypożyczenia, rosnąco
func (s *Store) CountLoansByDate(ctx context.Context) ([]models.DailyLoans, error) {
	ds := s.from(LoansTable).
		Select(goqu.C("loan_date"), goqu.COUNT(goqu.Star()).As("total")).
		GroupBy(goqu.C("loan_date")).
		Order(goqu.C("loan_date").Asc())

	days := []models.DailyLoans{}
	if err := s.selectAll(ctx, s.db, &days, ds); err != nil {
		return nil, fmt.Errorf("błąd liczenia historii wypożyczeń: %w", err)
	}
	return days, nil
}
