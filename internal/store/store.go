// Package store persists risk assessments in SQLite so they can be listed,
// compared and reported on after the request that produced them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no assessment has the requested ID.
var ErrNotFound = errors.New("assessment not found")

const (
	KindContract   = "contract"
	KindLitigation = "litigation"
)

// Record is one saved assessment. Payload holds the full engine output.
type Record struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Title        string          `json:"title,omitempty"`
	Subject      string          `json:"subject"`
	OverallScore int             `json:"overallScore"`
	RiskBand     string          `json:"riskBand"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type Store struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS assessments (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	title TEXT,
	subject TEXT,
	overall_score INTEGER NOT NULL,
	risk_band TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assessments_kind ON assessments(kind, created_at);`

// Open opens the assessment database at path, creating it when missing.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every connection to :memory: is its own database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create assessments table: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts rec, assigning an ID and timestamp when they are unset.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if len(rec.Payload) == 0 {
		rec.Payload = json.RawMessage("null")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, kind, title, subject, overall_score, risk_band, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.Title, rec.Subject, rec.OverallScore, rec.RiskBand, string(rec.Payload), rec.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, title, subject, overall_score, risk_band, payload, created_at
		 FROM assessments WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// List returns the newest records first. An empty kind lists every kind.
func (s *Store) List(ctx context.Context, kind string, limit int) ([]Record, error) {
	return s.query(ctx, kind, `created_at DESC, id`, limit)
}

// Top returns the highest-scoring records, newest first among equal scores.
func (s *Store) Top(ctx context.Context, kind string, limit int) ([]Record, error) {
	return s.query(ctx, kind, `overall_score DESC, created_at DESC, id`, limit)
}

func (s *Store) query(ctx context.Context, kind, order string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, kind, title, subject, overall_score, risk_band, payload, created_at FROM assessments`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY ` + order + ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assessments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// BandCounts returns how many saved assessments fall in each risk band.
func (s *Store) BandCounts(ctx context.Context, kind string) (map[string]int, error) {
	query := `SELECT risk_band, COUNT(*) FROM assessments`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` GROUP BY risk_band`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var band string
		var n int
		if err := rows.Scan(&band, &n); err != nil {
			return nil, err
		}
		counts[band] = n
	}
	return counts, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var rec Record
	var title, subject sql.NullString
	var payload string
	if err := sc.Scan(&rec.ID, &rec.Kind, &title, &subject, &rec.OverallScore, &rec.RiskBand, &payload, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Title = title.String
	rec.Subject = subject.String
	rec.Payload = json.RawMessage(payload)
	return &rec, nil
}
