package cache

import (
	"context"

	"github.com/zlnvch/stickyboard/models"
)

// BoardCache is a read-through copy of the persisted board. The store stays the
// source of truth; a cache entry is only ever replaced by a newer revision.
type BoardCache interface {
	// GetBoard returns the cached board and whether it was present.
	GetBoard(ctx context.Context, name string) (models.Board, bool, error)
	// SetBoard stores board unless the cache already holds the same or a newer
	// revision. It reports whether the entry was written.
	SetBoard(ctx context.Context, name string, board models.Board) (bool, error)
	InvalidateBoard(ctx context.Context, name string) error
}
