package models

// MostBorrowedLimit to liczba pozycji w raporcie najczęściej wypożyczanych
const MostBorrowedLimit = 10

// BorrowCount to liczba wypożyczeń jednej książki
type BorrowCount struct {
	BookID int64 `db:"book_id"`
	Total  int   `db:"total"`
}

// MostBorrowed to wiersz raportu najczęściej wypożyczanych książek
type MostBorrowed struct {
	Book        Book `json:"libro"`
	TimesLoaned int  `json:"veces_prestado"`
}

// Availability to raport dostępności książek
type Availability struct {
	Total     int `json:"total_libros"`
	Available int `json:"disponibles"`
	OnLoan    int `json:"prestados"`
}

// NewAvailability wylicza liczbę wypożyczonych z sumy i dostępnych
func NewAvailability(total, available int) Availability {
	return Availability{Total: total, Available: available, OnLoan: total - available}
}

// DailyLoans to wiersz historii wypożyczeń
type DailyLoans struct {
	Date  Date `json:"fecha" db:"loan_date"`
	Count int  `json:"cantidad" db:"total"`
}
