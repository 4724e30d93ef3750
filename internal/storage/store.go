package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// Sentinel values for the startup write probe. The category is deliberately
// improbable so the probe's delete can never match user rows.
const (
	probeDate     = "0000-00-00"
	probeCategory = "__write_probe__"
)

// Store owns the SQLite handle shared by both ledgers. Open runs the schema
// migrations, switches the store to WAL so readers are not blocked by an
// in-progress writer, and probes each ledger table for write access before
// any operation is accepted.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db}

	for _, kind := range []core.Kind{core.Expense, core.Credit} {
		if err := s.writeProbe(context.Background(), kind.Table()); err != nil {
			db.Close()
			return nil, fmt.Errorf("write probe on %s: %w", kind.Table(), err)
		}
	}

	slog.Info("Ledger store initialized with write access", "path", dbPath)
	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ledger returns the query executor for one ledger kind. The kind must be
// valid; this is enforced at startup wiring, not per call.
func (s *Store) Ledger(kind core.Kind) *Ledger {
	table := kind.Table()
	if table == "" {
		panic(fmt.Sprintf("storage: unknown ledger kind %q", kind))
	}
	return &Ledger{db: s.db, kind: kind, table: table}
}

// writeProbe inserts a sentinel row and deletes it again inside one
// transaction that is rolled back. A store that is present but read-only
// fails on the insert instead of on the first real operation. The rollback
// keeps the probe from consuming identity values, so the first real record
// of a fresh ledger still gets id 1.
func (s *Store) writeProbe(ctx context.Context, table string) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin probe transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+table+"(date, amount, category) VALUES (?, ?, ?)",
		probeDate, 0.0, probeCategory,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert sentinel: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE category = ?", probeCategory,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete sentinel: %w", err)
	}

	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("rollback probe transaction: %w", err)
	}
	return nil
}
