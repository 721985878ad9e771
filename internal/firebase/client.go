// Package firebase implementuje magazyn biblioteki na Cloud Firestore.
package firebase

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"library-api/internal/storage"
)

// Nazwy kolekcji w Firestore
const (
	BooksCollection    = "books"
	LoansCollection    = "loans"
	UsersCollection    = "users"
	TokensCollection   = "tokens"
	CountersCollection = "counters"
)

// Config to parametry połączenia z Firebase
type Config struct {
	CredentialsPath string `env:"CREDENTIALS_PATH"`
	CredentialsJSON string `env:"CREDENTIALS_JSON"`
	ProjectID       string `env:"PROJECT_ID"`
}

// Client przechowuje dane biblioteki w Firestore
type Client struct {
	App       *firebase.App
	Firestore *firestore.Client
}

var _ storage.Store = (*Client)(nil)

// NewClient inicjalizuje aplikację Firebase i klienta Firestore
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("błąd inicjalizacji Firebase App: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("błąd inicjalizacji Firestore: %w", err)
	}

	log.Println("Firebase zainicjalizowany pomyślnie")
	return &Client{App: app, Firestore: firestoreClient}, nil
}

func clientOptions(cfg Config) ([]option.ClientOption, error) {
	// Tryb lokalny - plik credentials
	if cfg.CredentialsPath != "" {
		if _, err := os.Stat(cfg.CredentialsPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("plik credentials nie istnieje: %s", cfg.CredentialsPath)
		}
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsPath)}, nil
	}
	// Tryb produkcyjny - JSON ze zmiennej środowiskowej
	if cfg.CredentialsJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))}, nil
	}
	// Emulator nie wymaga uwierzytelnienia
	if os.Getenv("FIRESTORE_EMULATOR_HOST") != "" {
		return []option.ClientOption{option.WithoutAuthentication()}, nil
	}
	return nil, fmt.Errorf("brak FIREBASE_CREDENTIALS_PATH lub FIREBASE_CREDENTIALS_JSON")
}

// Close zamyka połączenia z Firebase
func (c *Client) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}

func (c *Client) doc(collection string, id int64) *firestore.DocumentRef {
	return c.Firestore.Collection(collection).Doc(docID(id))
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// exists sprawdza w transakcji czy dokument istnieje
func exists(tx *firestore.Transaction, ref *firestore.DocumentRef) (bool, error) {
	if _, err := tx.Get(ref); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// readAll dekoduje wszystkie dokumenty z iteratora
func readAll[T any](iter *firestore.DocumentIterator) ([]T, error) {
	defer iter.Stop()

	var out []T
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("błąd iteracji po dokumentach: %w", err)
		}

		var item T
		if err := doc.DataTo(&item); err != nil {
			return nil, fmt.Errorf("błąd parsowania dokumentu %s: %w", doc.Ref.ID, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// refsOf zwraca referencje dokumentów z iteratora bez ich dekodowania
func refsOf(iter *firestore.DocumentIterator) ([]*firestore.DocumentRef, error) {
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("błąd iteracji po dokumentach: %w", err)
		}
		refs = append(refs, doc.Ref)
	}
	return refs, nil
}

type counterDoc struct {
	Last int64 `firestore:"last"`
}

// reserveID czyta licznik kolekcji; zapis następuje przez commitID po wszystkich odczytach
func (c *Client) reserveID(tx *firestore.Transaction, collection string) (int64, error) {
	snap, err := tx.Get(c.Firestore.Collection(CountersCollection).Doc(collection))
	if err != nil {
		if isNotFound(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("błąd odczytu licznika %s: %w", collection, err)
	}

	var counter counterDoc
	if err := snap.DataTo(&counter); err != nil {
		return 0, fmt.Errorf("błąd parsowania licznika %s: %w", collection, err)
	}
	return counter.Last + 1, nil
}

func (c *Client) commitID(tx *firestore.Transaction, collection string, id int64) error {
	return tx.Set(c.Firestore.Collection(CountersCollection).Doc(collection), counterDoc{Last: id})
}
