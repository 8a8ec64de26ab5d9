package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zlnvch/stickyboard/models"
	"github.com/zlnvch/stickyboard/mq"
	"github.com/zlnvch/stickyboard/store"
)

const (
	cacheTimeout      = 2 * time.Second
	sideEffectTimeout = 5 * time.Second
)

func emptyBoard() models.Board {
	return models.Board{Notes: []models.Note{}, Strokes: []models.Stroke{}}
}

// LoadBoard returns the current board. A board that was never saved comes
// back empty rather than as an error.
func (s *Service) LoadBoard(ctx context.Context, token string) (models.Board, error) {
	if err := s.Authenticate(token); err != nil {
		return models.Board{}, err
	}

	if s.Cache != nil {
		board, ok, err := s.Cache.GetBoard(ctx, models.BoardName)
		if err != nil {
			s.Log.Warnf("board cache read failed: %v", err)
		} else if ok {
			return board, nil
		}
	}

	board, err := s.Store.GetBoard(ctx, models.BoardName)
	if errors.Is(err, store.ErrItemNotFound) {
		return emptyBoard(), nil
	}
	if err != nil {
		s.Log.Errorf("Error loading board: %v", err)
		return models.Board{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	if s.Cache != nil {
		// A concurrent save may already have cached a newer revision; the
		// cache keeps whichever is newest.
		if _, err := s.Cache.SetBoard(ctx, models.BoardName, board); err != nil {
			s.Log.Warnf("board cache fill failed: %v", err)
		}
	}

	return board, nil
}

// SaveBoard replaces the whole board with notes and strokes. Nothing is
// written unless the token is valid and the payload passes validation.
func (s *Service) SaveBoard(ctx context.Context, token string, notes []models.Note, strokes []models.Stroke) (models.Board, error) {
	if err := s.Authenticate(token); err != nil {
		return models.Board{}, err
	}

	notes, err := ValidateBoard(notes, strokes)
	if err != nil {
		return models.Board{}, err
	}
	if strokes == nil {
		strokes = []models.Stroke{}
	}

	board, err := s.Store.ReplaceBoard(ctx, models.BoardName, notes, strokes)
	if err != nil {
		s.Log.Errorf("Error saving board: %v", err)
		return models.Board{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	s.refreshCache(ctx, board)
	s.notifySaved(board)

	return board, nil
}

// refreshCache puts the saved board in the cache before SaveBoard returns, so
// a load that follows the save never sees an older revision. If the write
// fails the entry is dropped and the next load reads the store.
func (s *Service) refreshCache(ctx context.Context, board models.Board) {
	if s.Cache == nil {
		return
	}

	// The board is committed; finish the cache update even if the caller
	// has gone away.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheTimeout)
	defer cancel()

	_, err := s.Cache.SetBoard(ctx, models.BoardName, board)
	if err == nil {
		return
	}
	s.Log.Warnf("board cache refresh failed at revision %d: %v", board.Revision, err)

	if err := s.Cache.InvalidateBoard(ctx, models.BoardName); err != nil {
		s.Log.Errorf("board cache invalidate failed at revision %d: %v", board.Revision, err)
	}
}

// notifySaved enqueues a board-saved message for the cache warmer. It cannot
// fail the save; the caller gets its response as soon as the cache is done.
func (s *Service) notifySaved(board models.Board) {
	if s.MQ == nil {
		return
	}

	s.sideEffects.Add(1)
	go func() {
		defer s.sideEffects.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		msg := mq.BoardSavedMessage{Board: models.BoardName, Revision: board.Revision}
		msgBytes, err := json.Marshal(msg)
		if err != nil {
			s.Log.Errorf("marshal board-saved message: %v", err)
			return
		}
		if err := s.MQ.Send(ctx, string(msgBytes)); err != nil {
			s.Log.Warnf("board-saved enqueue failed at revision %d: %v", board.Revision, err)
		}
	}()
}
