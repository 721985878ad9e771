package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"library-api/internal/models"
	"library-api/internal/storage"
)

type seedBook struct {
	Title     string
	Author    string
	Publisher string
	Genre     string
	Year      int
	Code      string
}

var sampleBooks = []seedBook{
	{"Wiedźmin: Ostatnie życzenie", "Andrzej Sapkowski", "SuperNowa", "Fantasy", 1993, "A-12"},
	{"Zbrodnia i kara", "Fiodor Dostojewski", "Świat Książki", "Klasyka", 1866, "B-05"},
	{"Sapiens: Od zwierząt do bogów", "Yuval Noah Harari", "Wydawnictwo Literackie", "Popularnonaukowa", 2011, "C-18"},
	{"Rok 1984", "George Orwell", "Muza", "Science Fiction", 1949, "D-07"},
	{"Atomowe nawyki", "James Clear", "Znak Literanova", "Rozwój osobisty", 2018, "E-22"},
	{"Harry Potter i Kamień Filozoficzny", "J.K. Rowling", "Media Rodzina", "Fantasy", 1997, "A-15"},
	{"Kod da Vinci", "Dan Brown", "Albatros", "Thriller", 2003, "F-09"},
	{"Władca Pierścieni: Drużyna Pierścienia", "J.R.R. Tolkien", "Amber", "Fantasy", 1954, "A-20"},
	{"Mistrz i Małgorzata", "Michaił Bułhakow", "Świat Książki", "Klasyka", 1967, "B-14"},
	{"Thinking, Fast and Slow", "Daniel Kahneman", "Penguin Books", "Psychologia", 2011, "C-25"},
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Dodaje przykładowe książki, jeśli katalog jest pusty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(store storage.Store) error {
				return seedCatalog(cmd.Context(), store, cmd.OutOrStdout())
			})
		},
	}
}

// seedCatalog dodaje sampleBooks wraz ze słownikami; niepusty katalog zostaje bez zmian
func seedCatalog(ctx context.Context, store storage.Store, out io.Writer) error {
	existing, err := store.ListBooks(ctx, models.BookQuery{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Fprintf(out, "Katalog zawiera już %d książek, pomijam\n", len(existing))
		return nil
	}

	ids := map[models.CatalogKind]map[string]int64{}
	entryID := func(kind models.CatalogKind, name string) (int64, error) {
		if ids[kind] == nil {
			ids[kind] = map[string]int64{}
		}
		if id, ok := ids[kind][name]; ok {
			return id, nil
		}
		entry := &models.CatalogEntry{Name: name}
		if err := store.CreateEntry(ctx, kind, entry); err != nil {
			return 0, fmt.Errorf("błąd dodawania %q: %w", name, err)
		}
		ids[kind][name] = entry.ID
		return entry.ID, nil
	}

	for _, b := range sampleBooks {
		book := &models.Book{Title: b.Title, PublicationYear: b.Year, Code: b.Code}
		if book.AuthorID, err = entryID(models.KindAuthor, b.Author); err != nil {
			return err
		}
		if book.PublisherID, err = entryID(models.KindPublisher, b.Publisher); err != nil {
			return err
		}
		if book.GenreID, err = entryID(models.KindGenre, b.Genre); err != nil {
			return err
		}
		if err := store.CreateBook(ctx, book); err != nil {
			return fmt.Errorf("błąd dodawania książki %q: %w", b.Title, err)
		}
		fmt.Fprintf(out, "✓ Dodano: %s - %s\n", b.Title, b.Author)
	}

	fmt.Fprintf(out, "Dodano %d książek\n", len(sampleBooks))
	return nil
}
