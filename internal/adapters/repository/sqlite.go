package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/okian/quotedesk/internal/domain/model"
	"github.com/okian/quotedesk/pkg/metrics"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store on a single SQLite file. Quote line items and
// invite lists are JSON columns; proposals are kept as their raw JSON payload.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// NewSQLiteStore opens (or creates) the database at dbPath, creating parent
// directories and running migrations.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under the worker pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, opts: o}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveQuote implements Store.
func (s *SQLiteStore) SaveQuote(ctx context.Context, q *model.Quote) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency("save_quote", sinceMs(start)) }()

	if err := s.opts.prepareQuote(q); err != nil {
		return err
	}
	items, err := json.Marshal(nonNil(q.Items))
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	invited, err := json.Marshal(nonNil(q.InvitedSuppliers))
	if err != nil {
		return fmt.Errorf("failed to encode invited suppliers: %w", err)
	}
	var deadline sql.NullInt64
	if q.Deadline != nil {
		deadline = sql.NullInt64{Int64: q.Deadline.UnixNano(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quotes (id, title, items, invited_suppliers, deadline, matrix_override, matrix_visible, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Title, string(items), string(invited), deadline,
		q.MatrixOverride, q.MatrixVisible, q.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrConflict, q.ID)
		}
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	s.refreshGauges(ctx)
	return nil
}

// GetQuote implements Store.
func (s *SQLiteStore) GetQuote(ctx context.Context, id string) (model.Quote, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency("get_quote", sinceMs(start)) }()

	var (
		q                 model.Quote
		items, invited    string
		deadline          sql.NullInt64
		createdAt         int64
		override, visible bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, items, invited_suppliers, deadline, matrix_override, matrix_visible, created_at
		 FROM quotes WHERE id = ?`, id,
	).Scan(&q.ID, &q.Title, &items, &invited, &deadline, &override, &visible, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Quote{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Quote{}, fmt.Errorf("failed to get quote: %w", err)
	}
	if err := json.Unmarshal([]byte(items), &q.Items); err != nil {
		return model.Quote{}, fmt.Errorf("failed to decode items: %w", err)
	}
	if err := json.Unmarshal([]byte(invited), &q.InvitedSuppliers); err != nil {
		return model.Quote{}, fmt.Errorf("failed to decode invited suppliers: %w", err)
	}
	if deadline.Valid {
		d := time.Unix(0, deadline.Int64).UTC()
		q.Deadline = &d
	}
	q.MatrixOverride = override
	q.MatrixVisible = visible
	q.CreatedAt = time.Unix(0, createdAt).UTC()
	return q, nil
}

// SaveProposal implements Store.
func (s *SQLiteStore) SaveProposal(ctx context.Context, p *model.RawProposal) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency("save_proposal", sinceMs(start)) }()

	if err := s.opts.prepareProposal(p); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM quotes WHERE id = ?", p.QuoteID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check quote: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.QuoteID)
	}

	var existingID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM proposals WHERE quote_id = ? AND supplier_id = ?", p.QuoteID, p.SupplierID,
	).Scan(&existingID)
	switch {
	case err == nil:
		p.ID = existingID
	case errors.Is(err, sql.ErrNoRows):
		if p.ID == "" {
			p.ID = s.opts.newID()
		}
		var taken int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM proposals WHERE id = ?", p.ID).Scan(&taken); err != nil {
			return fmt.Errorf("failed to check proposal id: %w", err)
		}
		if taken > 0 {
			return fmt.Errorf("%w: proposal %s", ErrConflict, p.ID)
		}
	default:
		return fmt.Errorf("failed to look up proposal: %w", err)
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode proposal: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO proposals (id, quote_id, supplier_id, payload, submitted_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (quote_id, supplier_id) DO UPDATE SET payload = excluded.payload, submitted_at = excluded.submitted_at`,
		p.ID, p.QuoteID, p.SupplierID, string(payload), p.SubmittedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert proposal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.refreshGauges(ctx)
	return nil
}

// ListProposals implements Store.
func (s *SQLiteStore) ListProposals(ctx context.Context, quoteID string) ([]model.RawProposal, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency("list_proposals", sinceMs(start)) }()

	if _, err := s.GetQuote(ctx, quoteID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM proposals WHERE quote_id = ? ORDER BY seq", quoteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	out := []model.RawProposal{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		var p model.RawProposal
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("failed to decode proposal: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate proposals: %w", err)
	}
	return out, nil
}

// SetOverride implements Store.
func (s *SQLiteStore) SetOverride(ctx context.Context, quoteID string) error {
	return s.setFlag(ctx, quoteID, "matrix_override")
}

// MarkVisible implements Store.
func (s *SQLiteStore) MarkVisible(ctx context.Context, quoteID string) error {
	return s.setFlag(ctx, quoteID, "matrix_visible")
}

// setFlag only ever raises a flag; column is one of the two constants above.
func (s *SQLiteStore) setFlag(ctx context.Context, quoteID, column string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE quotes SET "+column+" = 1 WHERE id = ?", quoteID) //nolint:gosec // column is not user input
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, quoteID)
	}
	return nil
}

// Stats implements Store.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(1) FROM quotes), (SELECT COUNT(1) FROM proposals)",
	).Scan(&st.Quotes, &st.Proposals)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) refreshGauges(ctx context.Context) {
	if st, err := s.Stats(ctx); err == nil {
		metrics.UpdateQuotesTotal(st.Quotes)
		metrics.UpdateProposalsTotal(st.Proposals)
	}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
