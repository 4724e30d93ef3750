package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/core"
)

// Ledger executes queries against one ledger table. Both ledgers share this
// implementation; only the table name differs. Every operation acquires its
// own connection from the pool and releases it on all exit paths, so
// concurrent calls never share connection state.
//
// The table name is fixed at construction from core.Kind and is the only
// string ever interpolated into SQL; all values travel as parameters.
type Ledger struct {
	db    *sql.DB
	kind  core.Kind
	table string
}

// Kind returns the ledger kind this executor operates on.
func (l *Ledger) Kind() core.Kind {
	return l.kind
}

// Insert appends a new record and returns its assigned id. The commit is
// explicit: once Insert returns, the record is durably visible to
// subsequent calls.
func (l *Ledger) Insert(ctx context.Context, rec core.Record) (int64, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO "+l.table+"(date, amount, category, subcategory, note) VALUES (?, ?, ?, ?, ?)",
		rec.Date, rec.Amount, rec.Category, rec.Subcategory, rec.Note,
	)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("insert %s: %w", l.kind.Noun(), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}

	slog.InfoContext(ctx, "Record saved",
		"ledger", l.kind,
		"id", id,
		"date", rec.Date,
		"category", rec.Category)

	return id, nil
}

// ListRange returns every record whose date falls within [start, end],
// bounds inclusive, ordered by ascending id. Dates compare lexicographically,
// so a start after the end yields an empty sequence, never a swap.
func (l *Ledger) ListRange(ctx context.Context, start, end string) ([]core.Record, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx,
		"SELECT id, date, amount, category, subcategory, note FROM "+l.table+
			" WHERE date BETWEEN ? AND ? ORDER BY id ASC",
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", l.kind.Noun(), err)
	}
	defer rows.Close()

	records := make([]core.Record, 0)
	for rows.Next() {
		var rec core.Record
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Amount, &rec.Category, &rec.Subcategory, &rec.Note); err != nil {
			return nil, fmt.Errorf("scan %s: %w", l.kind.Noun(), err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %ss: %w", l.kind.Noun(), err)
	}

	return records, nil
}

// DeleteExact deletes every record whose five non-id fields all equal the
// given values, including empty-string subcategory/note, and returns the
// deleted rows. Zero matches is core.ErrNotFound, a normal outcome rather
// than a store fault. The select and delete run in one transaction so the
// returned rows are exactly the deleted ones.
func (l *Ledger) DeleteExact(ctx context.Context, rec core.Record) ([]core.Record, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	const match = " WHERE date = ? AND amount = ? AND category = ? AND subcategory = ? AND note = ?"
	args := []any{rec.Date, rec.Amount, rec.Category, rec.Subcategory, rec.Note}

	rows, err := tx.QueryContext(ctx,
		"SELECT id, date, amount, category, subcategory, note FROM "+l.table+match, args...)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("select matching %ss: %w", l.kind.Noun(), err)
	}

	var matched []core.Record
	for rows.Next() {
		var m core.Record
		if err := rows.Scan(&m.ID, &m.Date, &m.Amount, &m.Category, &m.Subcategory, &m.Note); err != nil {
			rows.Close()
			tx.Rollback()
			return nil, fmt.Errorf("scan matching %s: %w", l.kind.Noun(), err)
		}
		matched = append(matched, m)
	}
	if err := rows.Close(); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("read matching %ss: %w", l.kind.Noun(), err)
	}

	if len(matched) == 0 {
		tx.Rollback()
		return nil, core.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+l.table+match, args...); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("delete %ss: %w", l.kind.Noun(), err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Records deleted", "ledger", l.kind, "count", len(matched))
	return matched, nil
}

// UpdateFields applies a partial update to the record with the given id. The
// column set is built at call time from the provided fields and applied as a
// single parameterized statement; values are never interpolated into the
// query text. An empty field set is core.ErrNoFields, an unknown id is
// core.ErrNotFound.
func (l *Ledger) UpdateFields(ctx context.Context, id int64, u core.FieldUpdates) error {
	var assignments []string
	var args []any

	if u.Date != nil {
		assignments = append(assignments, "date = ?")
		args = append(args, *u.Date)
	}
	if u.Amount != nil {
		assignments = append(assignments, "amount = ?")
		args = append(args, *u.Amount)
	}
	if u.Category != nil {
		assignments = append(assignments, "category = ?")
		args = append(args, *u.Category)
	}
	if u.Subcategory != nil {
		assignments = append(assignments, "subcategory = ?")
		args = append(args, *u.Subcategory)
	}
	if u.Note != nil {
		assignments = append(assignments, "note = ?")
		args = append(args, *u.Note)
	}

	if len(assignments) == 0 {
		return core.ErrNoFields
	}
	args = append(args, id)

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx,
		"UPDATE "+l.table+" SET "+strings.Join(assignments, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", l.kind.Noun(), id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Record updated",
		"ledger", l.kind,
		"id", id,
		"fields", len(assignments))

	return nil
}

// Get retrieves a single record by id. Returns core.ErrNotFound when the id
// does not exist.
func (l *Ledger) Get(ctx context.Context, id int64) (core.Record, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return core.Record{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	var rec core.Record
	err = conn.QueryRowContext(ctx,
		"SELECT id, date, amount, category, subcategory, note FROM "+l.table+" WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.Date, &rec.Amount, &rec.Category, &rec.Subcategory, &rec.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get %s %d: %w", l.kind.Noun(), id, err)
	}

	return rec, nil
}

// SummarizeByCategory sums amounts grouped by category over the inclusive
// date range. A non-empty category restricts the result to that single
// group. Rows are ordered by ascending category name; categories with no
// matching records are absent.
func (l *Ledger) SummarizeByCategory(ctx context.Context, start, end, category string) ([]core.CategoryTotal, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	query := "SELECT category, SUM(amount) AS total_amount FROM " + l.table +
		" WHERE date BETWEEN ? AND ?"
	args := []any{start, end}

	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	query += " GROUP BY category ORDER BY category ASC"

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize %ss: %w", l.kind.Noun(), err)
	}
	defer rows.Close()

	totals := make([]core.CategoryTotal, 0)
	for rows.Next() {
		var t core.CategoryTotal
		if err := rows.Scan(&t.Category, &t.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate totals: %w", err)
	}

	return totals, nil
}
