package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/zlnvch/stickyboard/api/guard"
	"github.com/zlnvch/stickyboard/api/rest"
	"github.com/zlnvch/stickyboard/cache"
	"github.com/zlnvch/stickyboard/config"
	"github.com/zlnvch/stickyboard/mq"
	"github.com/zlnvch/stickyboard/service"
	"github.com/zlnvch/stickyboard/store"
	"github.com/zlnvch/stickyboard/worker"
	"go.uber.org/zap"
)

type BoardAPI struct {
	service     *service.Service
	restHandler *rest.Handler
	guard       *guard.Guard
	boardPage   http.Handler
	loginPage   http.Handler
	log         *zap.SugaredLogger
}

// NewBoardAPI wires the service and HTTP handlers. boardCache and queue may be
// nil. When both are set the cache warmer runs until shutdownCtx is done.
func NewBoardAPI(
	boardStore store.BoardStore,
	boardCache cache.BoardCache,
	queue mq.MessageQueue,
	cfg config.Config,
	log *zap.SugaredLogger,
	shutdownCtx context.Context,
) *BoardAPI {
	if boardCache != nil && queue != nil {
		cacheWarmer := worker.NewCacheWarmer(queue, boardStore, boardCache, log)
		go cacheWarmer.Run(shutdownCtx)
	}

	jwtSecret := []byte(cfg.JWTSecret)
	svc := service.NewService(boardStore, boardCache, queue, cfg.BoardPassword, jwtSecret, log)

	return &BoardAPI{
		service:     svc,
		restHandler: rest.NewHandler(svc, log, cfg.Production, cfg.LoginRatePerMinute),
		guard:       guard.New(jwtSecret, cfg.GuardVerifySignature, log),
		boardPage:   newPageHandler(cfg.StaticDir, "board.html", "Board", log),
		loginPage:   newPageHandler(cfg.StaticDir, "login.html", "Login", log),
		log:         log,
	}
}

// Wait blocks until in-flight save side effects have finished.
func (boardAPI *BoardAPI) Wait() {
	boardAPI.service.Wait()
}

func (boardAPI *BoardAPI) RegisterRoutes(mux *http.ServeMux) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /login", boardAPI.restHandler.HandleLogin)
	mux.HandleFunc("/api/login", boardAPI.restHandler.HandleLogin)

	mux.HandleFunc("POST /board", boardAPI.restHandler.HandleBoard)
	mux.HandleFunc("/api/board", boardAPI.restHandler.HandleBoard)

	mux.Handle("GET /login", boardAPI.guard.Middleware(boardAPI.loginPage))

	guardedBoard := boardAPI.guard.Middleware(boardAPI.boardPage)
	mux.HandleFunc("GET /board", func(w http.ResponseWriter, r *http.Request) {
		// GET /board is both the page and the load endpoint. Browsers
		// navigating to it ask for HTML; everything else gets the API.
		if wantsPage(r) {
			guardedBoard.ServeHTTP(w, r)
			return
		}
		boardAPI.restHandler.HandleBoard(w, r)
	})
}

func wantsPage(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html") &&
		!strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ")
}
