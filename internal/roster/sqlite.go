package roster

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a SQLite-backed roster. It is both a Source for the
// reconciler and the editing surface behind the roster CLI commands.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Person is a stored roster entry with its row id, used by List for
// display and Remove for targeting.
type Person struct {
	ID       int64
	Name     string
	Birthday string
}

// OpenStore opens (creating if needed) the roster database at dbPath and
// applies pending migrations.
func OpenStore(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	// DSN pragmas apply to every pooled connection.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("roster: opening database %s: %w", dbPath, err)
	}

	// Sole-writer pattern: one connection serializes all writes.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations applies pending schema migrations using the goose v3
// Provider API (no global state, context-aware).
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("roster: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("roster: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("roster: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}

// Rows returns all roster entries as raw cells, in insertion order.
func (s *Store) Rows(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, birthday FROM people ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("roster: querying people: %w", err)
	}
	defer rows.Close()

	var out []Row

	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Name, &r.Date); err != nil {
			return nil, fmt.Errorf("roster: scanning person: %w", err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roster: iterating people: %w", err)
	}

	return out, nil
}

// List returns all entries with their ids, in insertion order.
func (s *Store) List(ctx context.Context) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, birthday FROM people ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("roster: listing people: %w", err)
	}
	defer rows.Close()

	var out []Person

	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Birthday); err != nil {
			return nil, fmt.Errorf("roster: scanning person: %w", err)
		}

		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roster: iterating people: %w", err)
	}

	return out, nil
}

// Add inserts a new entry and returns its id. The cells are stored raw;
// an unparseable birthday becomes a skipped row at reconcile time.
func (s *Store) Add(ctx context.Context, name, birthday string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO people (name, birthday, created_at) VALUES (?, ?, ?)",
		name, birthday, time.Now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("roster: inserting %q: %w", name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("roster: reading insert id: %w", err)
	}

	s.logger.Info("roster entry added",
		slog.Int64("id", id), slog.String("name", name), slog.String("birthday", birthday))

	return id, nil
}

// Remove deletes the entry with the given id. Returns sql.ErrNoRows if
// no such entry exists.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM people WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("roster: deleting entry %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("roster: checking delete of entry %d: %w", id, err)
	}

	if n == 0 {
		return fmt.Errorf("roster: entry %d: %w", id, sql.ErrNoRows)
	}

	s.logger.Info("roster entry removed", slog.Int64("id", id))

	return nil
}

var _ Source = (*Store)(nil)
