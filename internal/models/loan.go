package models

// Loan reprezentuje wypożyczenie książki
type Loan struct {
	ID         int64 `json:"id" db:"id"`
	UserID     int64 `json:"usuario" db:"user_id"`
	BookID     int64 `json:"libro" db:"book_id"`
	LoanDate   Date  `json:"fecha_prestamo" db:"loan_date"` // ustawiana przy tworzeniu, niezmienna
	ReturnDate *Date `json:"fecha_devolucion" db:"return_date"`
	Returned   bool  `json:"devuelto" db:"returned"`
}

// IsActive sprawdza czy wypożyczenie nie zostało jeszcze zwrócone
func (l *Loan) IsActive() bool {
	return !l.Returned
}

// MarkReturned ustawia datę zwrotu jeśli wypożyczenie jest zwrócone bez daty
func (l *Loan) MarkReturned(today Date) {
	if l.Returned && l.ReturnDate == nil {
		d := today
		l.ReturnDate = &d
	}
}

// Validate sprawdza pola wypożyczenia
func (l *Loan) Validate() error {
	v := &ValidationError{}
	if l.UserID <= 0 {
		v.Add("usuario", MsgRequired)
	}
	if l.BookID <= 0 {
		v.Add("libro", MsgRequired)
	}
	if l.ReturnDate != nil && !l.LoanDate.IsZero() && l.ReturnDate.Before(l.LoanDate.Time) {
		v.Add("fecha_devolucion", "Return date cannot be before the loan date.")
	}
	return v.Err()
}

// LoanOrdering określa dozwolone sortowanie listy wypożyczeń
type LoanOrdering string

const (
	OrderLoanDefault    LoanOrdering = ""
	OrderLoanDateAsc    LoanOrdering = "fecha_prestamo"
	OrderLoanDateDesc   LoanOrdering = "-fecha_prestamo"
	OrderReturnDateAsc  LoanOrdering = "fecha_devolucion"
	OrderReturnDateDesc LoanOrdering = "-fecha_devolucion"
)

// ParseLoanOrdering zwraca sortowanie; nieznane wartości dają domyślne
func ParseLoanOrdering(s string) LoanOrdering {
	switch o := LoanOrdering(s); o {
	case OrderLoanDateAsc, OrderLoanDateDesc, OrderReturnDateAsc, OrderReturnDateDesc:
		return o
	}
	return OrderLoanDefault
}

// LoanQuery to parametry listowania wypożyczeń.
// UserID > 0 zawęża wynik do wypożyczeń jednego czytelnika.
type LoanQuery struct {
	UserID   int64
	Search   string // po tytule książki
	Ordering LoanOrdering
}
