package handlers

import "library-api/internal/models"

// Ciała żądań używają wskaźników, żeby odróżnić brak pola od wartości zerowej.
// PUT wymaga wszystkich pól, PATCH nakłada tylko obecne na istniejący rekord.

type entryPayload struct {
	Name *string `json:"nombre"`
}

func (p *entryPayload) apply(entry *models.CatalogEntry, partial bool) error {
	v := &models.ValidationError{}
	setField(v, "nombre", p.Name, &entry.Name, partial)
	return v.Err()
}

// disponible nie występuje, flaga należy do wypożyczeń
type bookPayload struct {
	Title           *string `json:"titulo"`
	AuthorID        *int64  `json:"autor"`
	PublisherID     *int64  `json:"editorial"`
	GenreID         *int64  `json:"genero"`
	PublicationYear *int    `json:"anio_publicacion"`
	Code            *string `json:"codigo"`
}

func (p *bookPayload) apply(book *models.Book, partial bool) error {
	v := &models.ValidationError{}
	setField(v, "titulo", p.Title, &book.Title, partial)
	setField(v, "autor", p.AuthorID, &book.AuthorID, partial)
	setField(v, "editorial", p.PublisherID, &book.PublisherID, partial)
	setField(v, "genero", p.GenreID, &book.GenreID, partial)
	setField(v, "anio_publicacion", p.PublicationYear, &book.PublicationYear, partial)
	setField(v, "codigo", p.Code, &book.Code, partial)
	return v.Err()
}

// fecha_prestamo nie występuje, ustawia ją serwer
type loanPayload struct {
	UserID     *int64       `json:"usuario"`
	BookID     *int64       `json:"libro"`
	Returned   *bool        `json:"devuelto"`
	ReturnDate optionalDate `json:"fecha_devolucion"`
}

// apply nakłada pola na wypożyczenie; brak usuario zostawia obecnego wypożyczającego
func (p *loanPayload) apply(loan *models.Loan, partial bool) error {
	v := &models.ValidationError{}
	if p.UserID != nil {
		loan.UserID = *p.UserID
	}
	setField(v, "libro", p.BookID, &loan.BookID, partial)

	switch {
	case p.Returned != nil:
		loan.Returned = *p.Returned
	case !partial:
		loan.Returned = false
	}
	switch {
	case p.ReturnDate.Set:
		loan.ReturnDate = p.ReturnDate.Date
	case !partial:
		loan.ReturnDate = nil
	}
	return v.Err()
}

func setField[T any](v *models.ValidationError, field string, src, dst *T, partial bool) {
	if src != nil {
		*dst = *src
		return
	}
	if !partial {
		v.Add(field, models.MsgRequired)
	}
}

// optionalDate odróżnia brak pola od jawnego null
type optionalDate struct {
	Set  bool
	Date *models.Date
}

func (o *optionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Date = nil
		return nil
	}
	var d models.Date
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Date = &d
	return nil
}
