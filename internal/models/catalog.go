package models

// CatalogKind określa rodzaj słownika katalogu (autorzy, wydawnictwa, gatunki)
type CatalogKind string

const (
	KindAuthor    CatalogKind = "authors"
	KindPublisher CatalogKind = "publishers"
	KindGenre     CatalogKind = "genres"
)

// CatalogKinds to wszystkie słowniki w kolejności wyświetlania
var CatalogKinds = []CatalogKind{KindAuthor, KindPublisher, KindGenre}

// Valid sprawdza czy rodzaj jest znany
func (k CatalogKind) Valid() bool {
	switch k {
	case KindAuthor, KindPublisher, KindGenre:
		return true
	}
	return false
}

// BookColumn zwraca nazwę kolumny książki wskazującej na ten słownik
func (k CatalogKind) BookColumn() string {
	switch k {
	case KindAuthor:
		return "author_id"
	case KindPublisher:
		return "publisher_id"
	case KindGenre:
		return "genre_id"
	}
	return ""
}

// MaxNameLength to limit długości nazwy wpisu
const MaxNameLength = 100

// CatalogEntry reprezentuje autora, wydawnictwo albo gatunek
type CatalogEntry struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"nombre" db:"name"`
}

// Validate sprawdza pola wpisu
func (e *CatalogEntry) Validate() error {
	v := &ValidationError{}
	checkText(v, "nombre", e.Name, MaxNameLength)
	return v.Err()
}
