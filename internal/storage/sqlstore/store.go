// Package sqlstore implementuje magazyn biblioteki na SQLite i PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialekt goqu
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialekt goqu
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // sterownik "pgx"
	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"library-api/internal/storage"
)

// Obsługiwane sterowniki
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Nazwy tabel
const (
	BooksTable  = "books"
	LoansTable  = "loans"
	UsersTable  = "users"
	TokensTable = "tokens"
)

// Store przechowuje dane biblioteki w bazie SQL
type Store struct {
	db      *sqlx.DB
	driver  string
	dialect goqu.DialectWrapper
}

var _ storage.Store = (*Store)(nil)

// Open otwiera magazyn dla sterownika i DSN, a następnie stosuje migracje
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("nieobsługiwany sterownik bazy: %q", driver)
	}
}

// OpenSQLite otwiera (lub tworzy) plik SQLite pod path
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ścieżka bazy SQLite jest wymagana")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("błąd tworzenia katalogu bazy: %w", err)
		}
	}

	// klucze obce są potrzebne do kaskadowego usuwania
	dsn := cleanPath +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("błąd otwierania bazy SQLite: %w", err)
	}
	return newStore(ctx, db, DriverSQLite, "sqlite3")
}

// OpenPostgres łączy się z PostgreSQL przez pgx
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	const defaultMaxOpenConnections = 50
	const defaultMaxIdleConnections = 10
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5

	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("DSN bazy PostgreSQL jest wymagany")
	}
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("błąd otwierania bazy PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConnections)
	db.SetMaxIdleConns(defaultMaxIdleConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)

	return newStore(ctx, db, DriverPostgres, "postgres")
}

func newStore(ctx context.Context, db *sqlx.DB, driver, dialect string) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("błąd połączenia z bazą: %w", err)
	}

	s := &Store{db: db, driver: driver, dialect: goqu.Dialect(dialect)}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close zamyka połączenie z bazą
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Budowanie i wykonywanie zapytań
// ---------------------------------------------------------------------------

// likeEscaper zamienia znaki specjalne LIKE na dosłowne
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsFold dopasowuje kolumnę zawierającą term bez względu na wielkość liter.
// % i _ w term są traktowane dosłownie.
func (s *Store) containsFold(col exp.IdentifierExpression, term string) exp.Expression {
	pattern := "%" + likeEscaper.Replace(term) + "%"
	if s.driver == DriverPostgres {
		return goqu.L(`? ILIKE ? ESCAPE '\'`, col, pattern)
	}
	return goqu.L(`? LIKE ? ESCAPE '\'`, col, pattern)
}

type builder interface {
	ToSQL() (string, []interface{}, error)
}

func (s *Store) from(table interface{}) *goqu.SelectDataset {
	return s.dialect.From(table).Prepared(true)
}

func (s *Store) insertInto(table string) *goqu.InsertDataset {
	return s.dialect.Insert(table).Prepared(true)
}

func (s *Store) update(table string) *goqu.UpdateDataset {
	return s.dialect.Update(table).Prepared(true)
}

func (s *Store) deleteFrom(table string) *goqu.DeleteDataset {
	return s.dialect.Delete(table).Prepared(true)
}

func (s *Store) get(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b builder) error {
	query, args, err := b.ToSQL()
	if err != nil {
		return fmt.Errorf("błąd budowania zapytania: %w", err)
	}
	if err := sqlx.GetContext(ctx, q, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) selectAll(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b builder) error {
	query, args, err := b.ToSQL()
	if err != nil {
		return fmt.Errorf("błąd budowania zapytania: %w", err)
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

func (s *Store) exec(ctx context.Context, e sqlx.ExecerContext, b builder) (sql.Result, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("błąd budowania zapytania: %w", err)
	}
	return e.ExecContext(ctx, query, args...)
}

// execAffecting wykonuje zapis i zwraca ErrNotFound gdy nie zmienił żadnego wiersza
func (s *Store) execAffecting(ctx context.Context, e sqlx.ExecerContext, b builder) error {
	res, err := s.exec(ctx, e, b)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("błąd odczytu liczby zmienionych wierszy: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// insert wstawia wiersz i zwraca jego id (RETURNING w PostgreSQL, LastInsertId w SQLite)
func (s *Store) insert(ctx context.Context, q sqlx.ExtContext, ds *goqu.InsertDataset) (int64, error) {
	if s.driver == DriverPostgres {
		var id int64
		if err := s.get(ctx, q, &id, ds.Returning("id")); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := s.exec(ctx, q, ds)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// count zwraca liczbę wierszy tabeli spełniających warunki
func (s *Store) count(ctx context.Context, q sqlx.QueryerContext, table string, where ...exp.Expression) (int, error) {
	var n int
	ds := s.from(table).Select(goqu.COUNT(goqu.Star())).Where(where...)
	if err := s.get(ctx, q, &n, ds); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) exists(ctx context.Context, q sqlx.QueryerContext, table string, id int64) (bool, error) {
	n, err := s.count(ctx, q, table, goqu.C("id").Eq(id))
	return n > 0, err
}

// withTx uruchamia fn w jednej transakcji
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("błąd rozpoczęcia transakcji: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("błąd zatwierdzania transakcji: %w", err)
	}
	return nil
}

// isUniqueViolation rozpoznaje naruszenie unikalności w obu sterownikach
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
