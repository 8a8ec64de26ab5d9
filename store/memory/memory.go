// Package memory keeps boards in process memory. It backs local development
// and the end-to-end tests; nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/zlnvch/stickyboard/models"
	"github.com/zlnvch/stickyboard/store"
)

type MemoryBoardStore struct {
	mu     sync.RWMutex
	boards map[string]models.Board
	now    func() time.Time
}

func NewMemoryBoardStore() *MemoryBoardStore {
	return &MemoryBoardStore{
		boards: make(map[string]models.Board),
		now:    time.Now,
	}
}

func (m *MemoryBoardStore) GetBoard(ctx context.Context, name string) (models.Board, error) {
	if err := ctx.Err(); err != nil {
		return models.Board{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.boards[name]
	if !ok {
		return models.Board{}, store.ErrItemNotFound
	}
	return clone(b), nil
}

func (m *MemoryBoardStore) ReplaceBoard(ctx context.Context, name string, notes []models.Note, strokes []models.Stroke) (models.Board, error) {
	if err := ctx.Err(); err != nil {
		return models.Board{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.boards[name]
	updatedAt := m.now().UTC()
	// Keep timestamps strictly increasing even if the clock stalls.
	if !updatedAt.After(prev.UpdatedAt) {
		updatedAt = prev.UpdatedAt.Add(time.Microsecond)
	}

	b := clone(models.Board{
		Notes:     notes,
		Strokes:   strokes,
		UpdatedAt: updatedAt,
		Revision:  prev.Revision + 1,
	})
	m.boards[name] = b
	return clone(b), nil
}

// clone deep-copies b so callers cannot mutate stored state.
func clone(b models.Board) models.Board {
	out := models.Board{
		Notes:     make([]models.Note, len(b.Notes)),
		Strokes:   make([]models.Stroke, len(b.Strokes)),
		UpdatedAt: b.UpdatedAt,
		Revision:  b.Revision,
	}
	copy(out.Notes, b.Notes)
	for i, s := range b.Strokes {
		out.Strokes[i] = models.Stroke{Id: s.Id, Points: slices.Clone(s.Points)}
	}
	return out
}
