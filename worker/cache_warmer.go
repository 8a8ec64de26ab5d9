package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zlnvch/stickyboard/cache"
	"github.com/zlnvch/stickyboard/mq"
	"github.com/zlnvch/stickyboard/store"
	"go.uber.org/zap"
)

// CacheWarmer reloads saved boards from the store into the cache, so the
// cache converges on the newest revision even when the inline refresh after a
// save failed.
type CacheWarmer struct {
	queue mq.MessageQueue
	store store.BoardStore
	cache cache.BoardCache
	log   *zap.SugaredLogger
}

func NewCacheWarmer(queue mq.MessageQueue, boardStore store.BoardStore, boardCache cache.BoardCache, log *zap.SugaredLogger) *CacheWarmer {
	return &CacheWarmer{
		queue: queue,
		store: boardStore,
		cache: boardCache,
		log:   log,
	}
}

const (
	visibilityTimeout = 30
	receiveRetryDelay = time.Second
)

var errStaleRead = errors.New("store returned an older revision than the message")

// Run polls the queue until shutdownCtx is cancelled.
func (w *CacheWarmer) Run(shutdownCtx context.Context) {
	for {
		msg, err := w.queue.Receive(shutdownCtx, visibilityTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.log.Errorf("cacheWarmer receive error: %v", err)
			select {
			case <-shutdownCtx.Done():
				return
			case <-time.After(receiveRetryDelay):
			}
			continue
		}

		if msg == nil {
			continue
		}

		if err := w.handle(msg); err != nil {
			// Left on the queue; it becomes visible again after the timeout.
			w.log.Warnf("cacheWarmer: %v", err)
			continue
		}

		if err := w.queue.Delete(context.Background(), msg); err != nil {
			w.log.Errorf("cacheWarmer delete error: %v", err)
		}
	}
}

func (w *CacheWarmer) handle(msg *mq.Message) error {
	var saved mq.BoardSavedMessage
	if err := json.Unmarshal([]byte(msg.Body), &saved); err != nil || saved.Board == "" {
		// Malformed messages can never succeed; drop them.
		w.log.Warnf("cacheWarmer dropping malformed message: %q", msg.Body)
		return nil
	}

	// timeout should be a little less than queue visibility timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)
	defer cancel()

	board, err := w.store.GetBoard(ctx, saved.Board)
	if errors.Is(err, store.ErrItemNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load board %s: %w", saved.Board, err)
	}
	if board.Revision < saved.Revision {
		return fmt.Errorf("board %s revision %d: %w", saved.Board, board.Revision, errStaleRead)
	}

	stored, err := w.cache.SetBoard(ctx, saved.Board, board)
	if err != nil {
		return fmt.Errorf("cache board %s: %w", saved.Board, err)
	}
	if stored {
		w.log.Debugf("cacheWarmer cached board %s at revision %d", saved.Board, board.Revision)
	}
	return nil
}
