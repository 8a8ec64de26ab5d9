package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/zlnvch/stickyboard/models"
	"github.com/zlnvch/stickyboard/service"
	"go.uber.org/zap"
)

// AuthCookie holds the session token set by a successful login.
const AuthCookie = "board-auth"

const (
	maxLoginBody = 4 << 10
	maxBoardBody = 8 << 20
)

type Handler struct {
	Service      *service.Service
	Log          *zap.SugaredLogger
	SecureCookie bool
	limiter      *loginLimiter
}

func NewHandler(svc *service.Service, log *zap.SugaredLogger, secureCookie bool, loginRatePerMinute int) *Handler {
	return &Handler{
		Service:      svc,
		Log:          log,
		SecureCookie: secureCookie,
		limiter:      newLoginLimiter(loginRatePerMinute),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.limiter.allow(r) {
		h.Log.Warnf("Login throttled for %s", r.RemoteAddr)
		h.sendError(w, http.StatusTooManyRequests, errorResponse{Error: "Too many login attempts"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	token, err := h.Service.Login(req.Password)
	switch {
	case errors.Is(err, service.ErrPasswordRequired):
		h.sendError(w, http.StatusBadRequest, errorResponse{Error: "Password required"})
		return
	case errors.Is(err, service.ErrServerMisconfigured):
		h.sendError(w, http.StatusInternalServerError, errorResponse{Error: "Server configuration error"})
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		h.Log.Infof("Invalid password from %s", r.RemoteAddr)
		h.sendError(w, http.StatusUnauthorized, errorResponse{Error: "Invalid password"})
		return
	case err != nil:
		h.Log.Errorf("Login error: %v", err)
		h.sendError(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(service.TokenTTL / time.Second),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.sendResponse(w, loginResponse{Success: true})
}

type boardResponse struct {
	PostIts      []models.Note   `json:"postIts"`
	DrawingLines []models.Stroke `json:"drawingLines"`
	LastUpdated  *time.Time      `json:"lastUpdated"`
}

type saveBoardRequest struct {
	PostIts      []models.Note   `json:"postIts"`
	DrawingLines []models.Stroke `json:"drawingLines"`
}

type saveBoardResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type boardErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	token := GetToken(r)
	switch r.Method {
	case http.MethodGet:
		h.handleLoadBoard(w, r, token)

	case http.MethodPost:
		h.handleSaveBoard(w, r, token)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleLoadBoard(w http.ResponseWriter, r *http.Request, token string) {
	board, err := h.Service.LoadBoard(r.Context(), token)
	if errors.Is(err, service.ErrUnauthorized) {
		h.sendError(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, boardErrorResponse{Error: "Failed to load board"})
		return
	}

	resp := boardResponse{
		PostIts:      board.Notes,
		DrawingLines: board.Strokes,
	}
	if !board.UpdatedAt.IsZero() {
		resp.LastUpdated = &board.UpdatedAt
	}
	h.sendResponse(w, resp)
}

func (h *Handler) handleSaveBoard(w http.ResponseWriter, r *http.Request, token string) {
	// Reject before reading a potentially large body.
	if err := h.Service.Authenticate(token); err != nil {
		h.sendError(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	var req saveBoardRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBoardBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(w, http.StatusRequestEntityTooLarge, boardErrorResponse{Error: "Board too large"})
			return
		}
		h.sendError(w, http.StatusBadRequest, boardErrorResponse{Error: "Invalid board data structure"})
		return
	}

	board, err := h.Service.SaveBoard(r.Context(), token, req.PostIts, req.DrawingLines)
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		h.sendError(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	case errors.Is(err, service.ErrValidation):
		h.Log.Infof("Rejected board: %v", err)
		h.sendError(w, http.StatusBadRequest, boardErrorResponse{Error: "Invalid board data structure"})
		return
	case err != nil:
		h.sendError(w, http.StatusInternalServerError, boardErrorResponse{Error: "Failed to save board"})
		return
	}

	h.sendResponse(w, saveBoardResponse{
		Success:   true,
		Message:   "Board saved successfully (replaced)",
		Timestamp: board.UpdatedAt,
	})
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) sendError(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// GetToken returns the session token from the auth cookie, falling back to an
// Authorization: Bearer header.
func GetToken(r *http.Request) string {
	if c, err := r.Cookie(AuthCookie); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, prefix)
}
