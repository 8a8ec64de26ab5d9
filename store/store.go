package store

import (
	"context"
	"errors"

	"github.com/zlnvch/stickyboard/models"
)

// BoardStore persists the single board document.
//
// ReplaceBoard must swap the whole document in one atomic step: a reader never
// sees the old document removed without the new one in place, and a failed
// replace leaves the previous document untouched. The store assigns UpdatedAt
// and a Revision strictly greater than the previous one.
type BoardStore interface {
	GetBoard(ctx context.Context, name string) (models.Board, error)
	ReplaceBoard(ctx context.Context, name string, notes []models.Note, strokes []models.Stroke) (models.Board, error)
}

// Custom error types for clarity
var (
	ErrItemNotFound = errors.New("item does not exist")
)
