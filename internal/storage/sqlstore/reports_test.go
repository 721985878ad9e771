package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-api/internal/models"
)

func TestReportsOnEmptyStore(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()

	counts, err := s.CountLoansByBook(ctx, models.MostBorrowedLimit)
	require.NoError(t, err)
	assert.Empty(t, counts)

	availability, err := s.CountAvailability(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Availability{}, availability)

	days, err := s.CountLoansByDate(ctx)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestReportsCountLoans(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	refs := seedCatalog(t, s)
	reader := addUser(t, s, "lector", models.RoleReader)

	a := addBook(t, s, refs, "A", "A")
	b := addBook(t, s, refs, "B", "B")
	c := addBook(t, s, refs, "C", "C")

	first, err := models.ParseDate("2024-05-01")
	require.NoError(t, err)
	second, err := models.ParseDate("2024-05-03")
	require.NoError(t, err)

	// A trzy razy, B dwa razy, C wcale; aktywne zostaje jedno wypożyczenie A
	loans := []*models.Loan{
		{UserID: reader.ID, BookID: b.ID, LoanDate: second, Returned: true},
		{UserID: reader.ID, BookID: a.ID, LoanDate: first, Returned: true},
		{UserID: reader.ID, BookID: a.ID, LoanDate: first, Returned: true},
		{UserID: reader.ID, BookID: b.ID, LoanDate: second, Returned: true},
		{UserID: reader.ID, BookID: a.ID, LoanDate: second},
	}
	for _, l := range loans {
		require.NoError(t, s.CreateLoan(ctx, l))
	}

	counts, err := s.CountLoansByBook(ctx, models.MostBorrowedLimit)
	require.NoError(t, err)
	assert.Equal(t, []models.BorrowCount{{BookID: a.ID, Total: 3}, {BookID: b.ID, Total: 2}}, counts)

	top, err := s.CountLoansByBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.BorrowCount{{BookID: a.ID, Total: 3}}, top)

	availability, err := s.CountAvailability(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Availability{Total: 3, Available: 2, OnLoan: 1}, availability)
	assert.True(t, bookAvailable(t, s, c.ID))

	days, err := s.CountLoansByDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyLoans{{Date: first, Count: 2}, {Date: second, Count: 3}}, days)
}

func TestCountLoansByBookBreaksTiesByBookID(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	refs := seedCatalog(t, s)
	reader := addUser(t, s, "lector", models.RoleReader)

	x := addBook(t, s, refs, "X", "X")
	y := addBook(t, s, refs, "Y", "Y")

	require.NoError(t, s.CreateLoan(ctx, &models.Loan{UserID: reader.ID, BookID: y.ID, Returned: true}))
	require.NoError(t, s.CreateLoan(ctx, &models.Loan{UserID: reader.ID, BookID: x.ID, Returned: true}))

	counts, err := s.CountLoansByBook(ctx, models.MostBorrowedLimit)
	require.NoError(t, err)
	assert.Equal(t, []models.BorrowCount{{BookID: x.ID, Total: 1}, {BookID: y.ID, Total: 1}}, counts)
}
