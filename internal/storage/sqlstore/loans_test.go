package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-api/internal/models"
	"library-api/internal/storage"
)

func bookAvailable(t *testing.T, s *Store, id int64) bool {
	t.Helper()

	book, err := s.GetBook(context.Background(), id)
	require.NoError(t, err)
	return book.Available
}

func TestLoanLifecycleSyncsAvailability(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	refs := seedCatalog(t, s)
	reader := addUser(t, s, "lector", models.RoleReader)
	book := addBook(t, s, refs, "Ficciones", "A1")

	loan := &models.Loan{UserID: reader.ID, BookID: book.ID}
	require.NoError(t, s.CreateLoan(ctx, loan))
	assert.NotZero(t, loan.ID)
	assert.Equal(t, models.Today(), loan.LoanDate)
	assert.False(t, bookAvailable(t, s, book.ID))

	returned := models.Today()
	loan.Returned = true
	loan.ReturnDate = &returned
	require.NoError(t, s.UpdateLoan(ctx, loan))
	assert.True(t, bookAvailable(t, s, book.ID))

	got, err := s.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.Returned)
	require.NotNil(t, got.ReturnDate)
	assert.Equal(t, returned, *got.ReturnDate)

	// Ponowne otwarcie wypożyczenia znów blokuje książkę
	loan.Returned = false
	loan.ReturnDate = nil
	require.NoError(t, s.UpdateLoan(ctx, loan))
	assert.False(t, bookAvailable(t, s, book.ID))

	got, err = s.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReturnDate)
}

func TestCreateLoanRejectsSecondActiveLoan(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	refs := seedCatalog(t, s)
	ana := addUser(t, s, "ana", models.RoleReader)
	luis := addUser(t, s, "luis", models.RoleReader)
	book := addBook(t, s, refs, "Ficciones", "A1")

	first := &models.Loan{UserID: ana.ID, BookID: book.ID}
	require.NoError(t, s.CreateLoan(ctx, first))

	err := s.CreateLoan(ctx, &models.Loan{UserID: luis.ID, BookID: book.ID})
	assert.ErrorIs(t, err, storage.ErrBookOnLoan)

	// Zwrócone wypożyczenie historyczne nie blokuje książki
	require.NoError(t, s.CreateLoan(ctx, &models.Loan{UserID: luis.ID, BookID: book.ID, Returned: true}))
	assert.False(t, bookAvailable(t, s, book.ID))

	first.Returned = true
	require.NoError(t, s.UpdateLoan(ctx, first))
	require.NoError(t, s.CreateLoan(ctx, &models.Loan{UserID: luis.ID, BookID: book.ID}))
	assert.False(t, bookAvailable(t, s, book.ID))

	// Otwarcie zwróconego wypożyczenia, gdy książka jest już wypożyczona
	first.Returned = false
	assert.ErrorIs(t, s.UpdateLoan(ctx, first), storage.ErrBookOnLoan)
}

func TestCreateLoanRejectsMissingReferences(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	refs := seedCatalog(t, s)
	reader := addUser(t, s, "lector", models.RoleReader)
	book := addBook(t, s, refs, "Ficciones", "A1")

	var refErr *storage.ReferenceError

	err := s.CreateLoan(ctx, &models.Loan{UserID: reader.ID + 50, BookID: book.ID})
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "usuario", refErr.Field)

	err = s.CreateLoan(ctx, &models.Loan{UserID: reader.ID, BookID: book.ID + 50})
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "libro", refErr.Field)

	assert.True(t, bookAvailable(t, s, book.ID))
}

func TestUpdateLoanMovesToAnotherBook(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	refs := seedCatalog(t, s)
	reader := addUser(t, s, "lector", models.RoleReader)
	first := addBook(t, s, refs, "Ficciones", "A1")
	second := addBook(t, s, refs, "El Aleph", "A2")

	loan := &models.Loan{UserID: reader.ID, BookID: first.ID}
	require.NoError(t, s.CreateLoan(ctx, loan))
	loanDate := loan.LoanDate

	loan.BookID = second.ID
	loan.LoanDate = models.Date{}
	require.NoError(t, s.UpdateLoan(ctx, loan))

	assert.True(t, bookAvailable(t, s, first.ID))
	assert.False(t, bookAvailable(t, s, second.ID))
	assert.Equal(t, loanDate, loan.LoanDate)
}

func TestDeleteActiveLoanFreesBook(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	refs := seedCatalog(t, s)
	reader := addUser(t, s, "lector", models.RoleReader)
	book := addBook(t, s, refs, "Ficciones", "A1")

	loan := &models.Loan{UserID: reader.ID, BookID: book.ID}
	require.NoError(t, s.CreateLoan(ctx, loan))
	require.NoError(t, s.DeleteLoan(ctx, loan.ID))

	assert.True(t, bookAvailable(t, s, book.ID))
	assert.ErrorIs(t, s.DeleteLoan(ctx, loan.ID), storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdateLoan(ctx, loan), storage.ErrNotFound)
}

func TestListLoansScopeSearchAndOrdering(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	refs := seedCatalog(t, s)
	ana := addUser(t, s, "ana", models.RoleReader)
	luis := addUser(t, s, "luis", models.RoleReader)
	ficciones := addBook(t, s, refs, "Ficciones", "A1")
	aleph := addBook(t, s, refs, "El Aleph", "A2")
	rayuela := addBook(t, s, refs, "Rayuela", "A3")

	early, err := models.ParseDate("2024-01-10")
	require.NoError(t, err)
	late, err := models.ParseDate("2024-03-05")
	require.NoError(t, err)

	l1 := &models.Loan{UserID: ana.ID, BookID: ficciones.ID, LoanDate: late}
	l2 := &models.Loan{UserID: luis.ID, BookID: aleph.ID, LoanDate: early}
	l3 := &models.Loan{UserID: ana.ID, BookID: rayuela.ID, LoanDate: early}
	for _, l := range []*models.Loan{l1, l2, l3} {
		require.NoError(t, s.CreateLoan(ctx, l))
	}

	ids := func(loans []*models.Loan) []int64 {
		out := make([]int64, 0, len(loans))
		for _, l := range loans {
			out = append(out, l.ID)
		}
		return out
	}

	all, err := s.ListLoans(ctx, models.LoanQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int64{l1.ID, l2.ID, l3.ID}, ids(all))

	own, err := s.ListLoans(ctx, models.LoanQuery{UserID: ana.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{l1.ID, l3.ID}, ids(own))

	byDate, err := s.ListLoans(ctx, models.LoanQuery{Ordering: models.OrderLoanDateAsc})
	require.NoError(t, err)
	assert.Equal(t, []int64{l2.ID, l3.ID, l1.ID}, ids(byDate))

	byDateDesc, err := s.ListLoans(ctx, models.LoanQuery{Ordering: models.OrderLoanDateDesc})
	require.NoError(t, err)
	assert.Equal(t, []int64{l1.ID, l2.ID, l3.ID}, ids(byDateDesc))

	search, err := s.ListLoans(ctx, models.LoanQuery{UserID: ana.ID, Search: "aleph"})
	require.NoError(t, err)
	assert.Empty(t, search)

	search, err = s.ListLoans(ctx, models.LoanQuery{Search: "aleph"})
	require.NoError(t, err)
	assert.Equal(t, []int64{l2.ID}, ids(search))
}

func TestListLoansSearchTreatsWildcardsLiterally(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	refs := seedCatalog(t, s)
	ana := addUser(t, s, "ana", models.RoleReader)
	ficciones := addBook(t, s, refs, "Ficciones", "A1")
	rayuela := addBook(t, s, refs, "Rayuela", "A2")
	percent := addBook(t, s, refs, "100% Fantasía", "A3")

	day, err := models.ParseDate("2024-02-01")
	require.NoError(t, err)
	for _, id := range []int64{ficciones.ID, rayuela.ID} {
		require.NoError(t, s.CreateLoan(ctx, &models.Loan{UserID: ana.ID, BookID: id, LoanDate: day}))
	}

	for _, term := range []string{"%", "_", "F_cc"} {
		loans, err := s.ListLoans(ctx, models.LoanQuery{Search: term})
		require.NoError(t, err, term)
		assert.Empty(t, loans, term)
	}

	loan := &models.Loan{UserID: ana.ID, BookID: percent.ID, LoanDate: day}
	require.NoError(t, s.CreateLoan(ctx, loan))

	byPercent, err := s.ListLoans(ctx, models.LoanQuery{Search: "0%"})
	require.NoError(t, err)
	require.Len(t, byPercent, 1)
	assert.Equal(t, loan.ID, byPercent[0].ID)
}
