package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", d.String())

	data, err := json.Marshal(struct {
		D  Date  `json:"d"`
		P  *Date `json:"p"`
		NP *Date `json:"np"`
	}{D: d, P: &d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-03-09","p":"2024-03-09","np":null}`, string(data))

	var back struct {
		D Date  `json:"d"`
		P *Date `json:"p"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-03-09","p":null}`), &back))
	assert.Equal(t, d, back.D)
	assert.Nil(t, back.P)

	assert.Error(t, json.Unmarshal([]byte(`{"d":"09/03/2024"}`), &back))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-03-09"))
	assert.Equal(t, "2024-03-09", d.String())

	require.NoError(t, d.Scan([]byte("2024-03-10T00:00:00Z")))
	assert.Equal(t, "2024-03-10", d.String())

	require.NoError(t, d.Scan(time.Date(2024, 3, 11, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-11", d.String())

	assert.Error(t, d.Scan(42))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", v)
}

func TestNewDateDropsClock(t *testing.T) {
	d := NewDate(time.Date(2024, 3, 9, 17, 30, 0, 0, time.FixedZone("CET", 3600)))
	assert.Equal(t, "2024-03-09", d.String())
	assert.Zero(t, d.Hour())
	assert.Equal(t, time.UTC, d.Location())
}

func TestBookValidate(t *testing.T) {
	valid := Book{Title: "Ficciones", AuthorID: 1, PublisherID: 1, GenreID: 1, PublicationYear: 1944, Code: "863 BOR"}
	assert.NoError(t, valid.Validate())

	err := (&Book{Title: "  ", PublicationYear: -1, Code: strings.Repeat("x", MaxCodeLength+1)}).Validate()
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, []string{MsgBlank}, v.Fields["titulo"])
	assert.Equal(t, []string{MsgRequired}, v.Fields["autor"])
	assert.Equal(t, []string{MsgRequired}, v.Fields["editorial"])
	assert.Equal(t, []string{MsgRequired}, v.Fields["genero"])
	assert.Equal(t, []string{MsgNegative}, v.Fields["anio_publicacion"])
	assert.Equal(t, []string{"Ensure this field has no more than 20 characters."}, v.Fields["codigo"])
}

func TestCatalogEntryValidate(t *testing.T) {
	assert.NoError(t, (&CatalogEntry{Name: "Borges"}).Validate())
	// limit liczony w znakach, nie w bajtach
	assert.NoError(t, (&CatalogEntry{Name: strings.Repeat("ñ", MaxNameLength)}).Validate())
	assert.Error(t, (&CatalogEntry{Name: strings.Repeat("ñ", MaxNameLength+1)}).Validate())
	assert.Error(t, (&CatalogEntry{}).Validate())
}

func TestValidationErrorMessage(t *testing.T) {
	v := &ValidationError{}
	assert.NoError(t, v.Err())

	v.Add("libro", MsgRequired)
	v.Add("autor", MsgRequired)
	assert.EqualError(t, v.Err(), "validation failed: autor: This field is required.; libro: This field is required.")
}

func TestLoanMarkReturned(t *testing.T) {
	today := NewDate(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))

	open := Loan{}
	open.MarkReturned(today)
	assert.Nil(t, open.ReturnDate)

	returned := Loan{Returned: true}
	returned.MarkReturned(today)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, today, *returned.ReturnDate)

	earlier := NewDate(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC))
	dated := Loan{Returned: true, ReturnDate: &earlier}
	dated.MarkReturned(today)
	assert.Equal(t, earlier, *dated.ReturnDate)
}

func TestLoanValidate(t *testing.T) {
	loanDate := NewDate(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	before := NewDate(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, (&Loan{UserID: 1, BookID: 1, LoanDate: loanDate}).Validate())
	assert.NoError(t, (&Loan{UserID: 1, BookID: 1, LoanDate: loanDate, ReturnDate: &loanDate}).Validate())

	err := (&Loan{LoanDate: loanDate, ReturnDate: &before}).Validate()
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "usuario")
	assert.Contains(t, v.Fields, "libro")
	assert.Contains(t, v.Fields, "fecha_devolucion")
}

func TestParseOrdering(t *testing.T) {
	assert.Equal(t, OrderYearDesc, ParseBookOrdering("-anio_publicacion"))
	assert.Equal(t, OrderTitleAsc, ParseBookOrdering("titulo"))
	assert.Equal(t, OrderBookDefault, ParseBookOrdering("codigo"))
	assert.Equal(t, OrderReturnDateDesc, ParseLoanOrdering("-fecha_devolucion"))
	assert.Equal(t, OrderLoanDefault, ParseLoanOrdering("usuario"))
}

func TestTokenExpired(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	token := Token{CreatedAt: created}

	assert.False(t, token.Expired(0, created.Add(1000*time.Hour)))
	assert.False(t, token.Expired(time.Hour, created.Add(time.Hour)))
	assert.True(t, token.Expired(time.Hour, created.Add(time.Hour+time.Second)))
}

func TestNewAvailability(t *testing.T) {
	a := NewAvailability(5, 3)
	assert.Equal(t, 2, a.OnLoan)
	assert.Equal(t, a.Total, a.Available+a.OnLoan)
}
