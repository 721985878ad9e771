package firebase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-api/internal/models"
)

func TestSortBooksKeepsIDOrderOnTies(t *testing.T) {
	books := []*models.Book{
		{ID: 1, Title: "B", PublicationYear: 2000},
		{ID: 2, Title: "A", PublicationYear: 1990},
		{ID: 3, Title: "C", PublicationYear: 2000},
	}

	sortBooks(books, models.OrderYearDesc)
	assert.Equal(t, []int64{1, 3, 2}, []int64{books[0].ID, books[1].ID, books[2].ID})

	sortBooks(books, models.OrderTitleAsc)
	assert.Equal(t, []int64{2, 1, 3}, []int64{books[0].ID, books[1].ID, books[2].ID})
}

func TestSortLoansByReturnDate(t *testing.T) {
	d, err := models.ParseDate("2024-02-01")
	require.NoError(t, err)

	loans := []*models.Loan{
		{ID: 1, ReturnDate: &d},
		{ID: 2},
	}
	sortLoans(loans, models.OrderReturnDateAsc)
	assert.Equal(t, int64(2), loans[0].ID)

	sortLoans(loans, models.OrderReturnDateDesc)
	assert.Equal(t, int64(1), loans[0].ID)
}

func TestLoanDocRoundTrip(t *testing.T) {
	loanDate, err := models.ParseDate("2024-01-15")
	require.NoError(t, err)
	returnDate, err := models.ParseDate("2024-01-20")
	require.NoError(t, err)

	loan := &models.Loan{ID: 7, UserID: 2, BookID: 3, LoanDate: loanDate, ReturnDate: &returnDate, Returned: true}
	doc := newLoanDoc(loan)
	require.NotNil(t, doc.ReturnDate)
	assert.Equal(t, "2024-01-20", *doc.ReturnDate)

	back, err := doc.toModel()
	require.NoError(t, err)
	assert.Equal(t, loan, back)
}
