package firebase

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"

	"library-api/internal/models"
)

// CountLoansByBook liczy wypożyczenia po stronie aplikacji, Firestore nie grupuje
func (c *Client) CountLoansByBook(ctx context.Context, limit int) ([]models.BorrowCount, error) {
	docs, err := readAll[loanDoc](c.Firestore.Collection(LoansCollection).Select("book_id").Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("błąd liczenia wypożyczeń książek: %w", err)
	}

	totals := make(map[int64]int)
	for _, d := range docs {
		totals[d.BookID]++
	}

	counts := make([]models.BorrowCount, 0, len(totals))
	for bookID, total := range totals {
		counts = append(counts, models.BorrowCount{BookID: bookID, Total: total})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Total != counts[j].Total {
			return counts[i].Total > counts[j].Total
		}
		return counts[i].BookID < counts[j].BookID
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// CountAvailability liczy książki w transakcji tylko do odczytu
func (c *Client) CountAvailability(ctx context.Context) (models.Availability, error) {
	var total, available int
	err := c.Firestore.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := readAll[bookDoc](tx.Documents(c.Firestore.Collection(BooksCollection).Select("available")))
		if err != nil {
			return err
		}
		total, available = len(docs), 0
		for _, d := range docs {
			if d.Available {
				available++
			}
		}
		return nil
	}, firestore.ReadOnly)
	if err != nil {
		return models.Availability{}, fmt.Errorf("błąd liczenia dostępności: %w", err)
	}
	return models.NewAvailability(total, available), nil
}

// CountLoansByDate liczy wypożyczenia według daty wypożyczenia, rosnąco
func (c *Client) CountLoansByDate(ctx context.Context) ([]models.DailyLoans, error) {
	docs, err := readAll[loanDoc](c.Firestore.Collection(LoansCollection).Select("loan_date").Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("błąd liczenia historii wypożyczeń: %w", err)
	}

	totals := make(map[string]int)
	for _, d := range docs {
		totals[d.LoanDate]++
	}

	days := make([]models.DailyLoans, 0, len(totals))
	for day, count := range totals {
		date, err := models.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("błędna data w historii wypożyczeń: %w", err)
		}
		days = append(days, models.DailyLoans{Date: date, Count: count})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date.Time) })
	return days, nil
}
