// Package postgres stores the board document in a PostgreSQL table, one row
// per board name.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/zlnvch/stickyboard/models"
	"github.com/zlnvch/stickyboard/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS boards (
    name TEXT PRIMARY KEY,
    board_data JSONB NOT NULL,
    revision BIGINT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);
`

// boardData mirrors the JSON stored in board_data.
type boardData struct {
	Notes   []models.Note   `json:"postIts"`
	Strokes []models.Stroke `json:"drawingLines"`
}

type PostgresBoardStore struct {
	DB *sql.DB
}

// Open connects to dsn and creates the boards table if needed.
func Open(ctx context.Context, dsn string) (*PostgresBoardStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return New(db), nil
}

func New(db *sql.DB) *PostgresBoardStore {
	return &PostgresBoardStore{DB: db}
}

func (s *PostgresBoardStore) Close() error {
	return s.DB.Close()
}

func (s *PostgresBoardStore) GetBoard(ctx context.Context, name string) (models.Board, error) {
	var (
		raw       []byte
		revision  int64
		updatedAt time.Time
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT board_data, revision, updated_at FROM boards WHERE name = $1`, name,
	).Scan(&raw, &revision, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Board{}, store.ErrItemNotFound
	}
	if err != nil {
		return models.Board{}, fmt.Errorf("GetBoard failed: %w", err)
	}

	return decodeBoard(raw, revision, updatedAt)
}

// ReplaceBoard deletes the previous row and inserts the new one inside a
// single transaction; concurrent readers keep seeing the old row until commit
// and concurrent writers queue on the board's advisory lock.
func (s *PostgresBoardStore) ReplaceBoard(ctx context.Context, name string, notes []models.Note, strokes []models.Stroke) (models.Board, error) {
	raw, err := json.Marshal(boardData{Notes: notes, Strokes: strokes})
	if err != nil {
		return models.Board{}, fmt.Errorf("marshal board: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Board{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Row locks cannot serialise the first save, when there is no row yet.
	// The advisory lock is keyed on the name and held until commit.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
		return models.Board{}, fmt.Errorf("lock board: %w", err)
	}

	var prevRevision int64
	err = tx.QueryRowContext(ctx,
		`SELECT revision FROM boards WHERE name = $1`, name,
	).Scan(&prevRevision)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Board{}, fmt.Errorf("read revision: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE name = $1`, name); err != nil {
		return models.Board{}, fmt.Errorf("delete board: %w", err)
	}

	revision := prevRevision + 1
	var updatedAt time.Time
	err = tx.QueryRowContext(ctx,
		`INSERT INTO boards (name, board_data, revision) VALUES ($1, $2, $3) RETURNING updated_at`,
		name, raw, revision,
	).Scan(&updatedAt)
	if err != nil {
		return models.Board{}, fmt.Errorf("insert board: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Board{}, fmt.Errorf("commit: %w", err)
	}

	return decodeBoard(raw, revision, updatedAt)
}

func decodeBoard(raw []byte, revision int64, updatedAt time.Time) (models.Board, error) {
	var data boardData
	if err := json.Unmarshal(raw, &data); err != nil {
		return models.Board{}, fmt.Errorf("unmarshal board: %w", err)
	}
	if data.Notes == nil {
		data.Notes = []models.Note{}
	}
	if data.Strokes == nil {
		data.Strokes = []models.Stroke{}
	}

	return models.Board{
		Notes:     data.Notes,
		Strokes:   data.Strokes,
		UpdatedAt: updatedAt,
		Revision:  revision,
	}, nil
}
