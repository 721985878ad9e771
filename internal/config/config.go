// Package config wczytuje konfigurację serwera i narzędzi ze zmiennych środowiskowych.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"library-api/internal/firebase"
)

// Obsługiwane magazyny danych
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
)

// Config to konfiguracja procesu
type Config struct {
	Port              int           `env:"PORT" envDefault:"8080"`
	DBDriver          string        `env:"DB_DRIVER" envDefault:"sqlite"`
	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"biblioteca.db"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"0s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`

	Firebase firebase.Config `envPrefix:"FIREBASE_"`
}

// Load wczytuje opcjonalny plik .env, a potem zmienne środowiskowe
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Brak pliku .env - używam zmiennych systemowych")
	}
	return Parse()
}

// Parse czyta konfigurację wyłącznie ze zmiennych środowiskowych
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("błąd parsowania konfiguracji: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate sprawdza spójność ustawień
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT poza zakresem: %d", c.Port))
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH jest wymagane dla DB_DRIVER=sqlite"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL jest wymagane dla DB_DRIVER=postgres"))
		}
	case DriverFirestore:
		if c.Firebase.ProjectID == "" && c.Firebase.CredentialsPath == "" && c.Firebase.CredentialsJSON == "" {
			errs = append(errs, errors.New("DB_DRIVER=firestore wymaga FIREBASE_PROJECT_ID albo danych uwierzytelniających"))
		}
	default:
		errs = append(errs, fmt.Errorf("nieznany DB_DRIVER: %q", c.DBDriver))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, errors.New("TOKEN_TTL nie może być ujemne"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT musi być dodatnie"))
	}
	return errors.Join(errs...)
}

// Addr zwraca adres nasłuchu serwera
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
