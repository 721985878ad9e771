package models

// Limity pól książki
const (
	MaxTitleLength = 200
	MaxCodeLength  = 20
)

// Book reprezentuje książkę w systemie bibliotecznym
type Book struct {
	ID              int64  `json:"id" db:"id"`
	Title           string `json:"titulo" db:"title"`
	AuthorID        int64  `json:"autor" db:"author_id"`
	PublisherID     int64  `json:"editorial" db:"publisher_id"`
	GenreID         int64  `json:"genero" db:"genre_id"`
	PublicationYear int    `json:"anio_publicacion" db:"publication_year"`
	Code            string `json:"codigo" db:"code"` // sygnatura CDD/CDU, unikalna
	Available       bool   `json:"disponible" db:"available"`
}

// Ref zwraca id wpisu słownika, na który wskazuje książka
func (b *Book) Ref(kind CatalogKind) int64 {
	switch kind {
	case KindAuthor:
		return b.AuthorID
	case KindPublisher:
		return b.PublisherID
	case KindGenre:
		return b.GenreID
	}
	return 0
}

// Validate sprawdza pola książki (bez istnienia referencji, to robi store)
func (b *Book) Validate() error {
	v := &ValidationError{}
	checkText(v, "titulo", b.Title, MaxTitleLength)
	checkText(v, "codigo", b.Code, MaxCodeLength)
	if b.AuthorID <= 0 {
		v.Add("autor", MsgRequired)
	}
	if b.PublisherID <= 0 {
		v.Add("editorial", MsgRequired)
	}
	if b.GenreID <= 0 {
		v.Add("genero", MsgRequired)
	}
	if b.PublicationYear < 0 {
		v.Add("anio_publicacion", MsgNegative)
	}
	return v.Err()
}

// BookOrdering określa dozwolone sortowanie listy książek
type BookOrdering string

const (
	OrderBookDefault BookOrdering = ""
	OrderYearAsc     BookOrdering = "anio_publicacion"
	OrderYearDesc    BookOrdering = "-anio_publicacion"
	OrderTitleAsc    BookOrdering = "titulo"
	OrderTitleDesc   BookOrdering = "-titulo"
)

// ParseBookOrdering zwraca sortowanie; nieznane wartości dają domyślne
func ParseBookOrdering(s string) BookOrdering {
	switch o := BookOrdering(s); o {
	case OrderYearAsc, OrderYearDesc, OrderTitleAsc, OrderTitleDesc:
		return o
	}
	return OrderBookDefault
}

// BookQuery to parametry listowania książek
type BookQuery struct {
	Search   string
	Ordering BookOrdering
}
