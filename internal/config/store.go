package config

import (
	"context"
	"fmt"
	"log"

	"library-api/internal/firebase"
	"library-api/internal/storage"
	"library-api/internal/storage/sqlstore"
)

// OpenStore otwiera magazyn wybrany przez DB_DRIVER; bazy SQL są od razu migrowane
func OpenStore(ctx context.Context, cfg *Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case DriverSQLite:
		log.Printf("Magazyn: SQLite (%s)", cfg.SQLitePath)
		store, err := sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverPostgres:
		log.Println("Magazyn: PostgreSQL")
		store, err := sqlstore.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverFirestore:
		log.Println("Magazyn: Firestore")
		client, err := firebase.NewClient(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, fmt.Errorf("nieznany DB_DRIVER: %q", cfg.DBDriver)
}
