package service

import (
	"sync"
	"time"

	"github.com/zlnvch/stickyboard/cache"
	"github.com/zlnvch/stickyboard/mq"
	"github.com/zlnvch/stickyboard/store"
	"go.uber.org/zap"
)

type Service struct {
	Store         store.BoardStore
	Cache         cache.BoardCache // nil disables caching
	MQ            mq.MessageQueue  // nil disables board-saved messages
	Log           *zap.SugaredLogger
	BoardPassword string
	JWTSecret     []byte
	Now           func() time.Time

	sideEffects sync.WaitGroup
}

func NewService(
	boardStore store.BoardStore,
	boardCache cache.BoardCache,
	queue mq.MessageQueue,
	boardPassword string,
	jwtSecret []byte,
	log *zap.SugaredLogger,
) *Service {
	return &Service{
		Store:         boardStore,
		Cache:         boardCache,
		MQ:            queue,
		Log:           log,
		BoardPassword: boardPassword,
		JWTSecret:     jwtSecret,
		Now:           time.Now,
	}
}

// Wait blocks until background side effects of earlier saves have finished.
func (s *Service) Wait() {
	s.sideEffects.Wait()
}
