package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/zlnvch/stickyboard/models"
)

var (
	// ErrUnauthorized means the session is missing or expired; the caller
	// should send the user back to the login view.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidPassword is returned by Login for a rejected password.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrTransport wraps network failures reaching the API.
	ErrTransport = errors.New("transport error")
)

// Snapshot is the board as returned by the persistence API.
type Snapshot struct {
	Notes       []models.Note
	Strokes     []models.Stroke
	LastUpdated time.Time // zero when the board was never saved
}

// BoardClient loads and saves the board for an Engine.
type BoardClient interface {
	LoadBoard(ctx context.Context) (Snapshot, error)
	SaveBoard(ctx context.Context, notes []models.Note, strokes []models.Stroke) (time.Time, error)
}

// HTTPClient talks to the board API over HTTP. The session cookie set by
// Login is kept in the client's cookie jar; SetToken adds a bearer token for
// callers that obtained one elsewhere.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewHTTPClient returns a client for the API at baseURL. If httpClient is nil
// or has no cookie jar, one is created.
func NewHTTPClient(baseURL string, httpClient *http.Client) (*HTTPClient, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c := *httpClient
		c.Jar = jar
		httpClient = &c
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}, nil
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

type apiError struct {
	Error string `json:"error"`
}

// StatusError is returned for unexpected HTTP statuses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("board api: status %d", e.Code)
	}
	return fmt.Sprintf("board api: status %d: %s", e.Code, e.Message)
}

func (c *HTTPClient) Login(ctx context.Context, password string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{"password": password})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidPassword
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

type boardPayload struct {
	PostIts      []models.Note   `json:"postIts"`
	DrawingLines []models.Stroke `json:"drawingLines"`
	LastUpdated  *time.Time      `json:"lastUpdated,omitempty"`
}

func (c *HTTPClient) LoadBoard(ctx context.Context) (Snapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/board", nil)
	if err != nil {
		return Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return Snapshot{}, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, statusError(resp)
	}

	var payload boardPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Snapshot{}, fmt.Errorf("decode board: %w", err)
	}

	snap := Snapshot{Notes: payload.PostIts, Strokes: payload.DrawingLines}
	if payload.LastUpdated != nil {
		snap.LastUpdated = *payload.LastUpdated
	}
	return snap, nil
}

type saveResult struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

func (c *HTTPClient) SaveBoard(ctx context.Context, notes []models.Note, strokes []models.Stroke) (time.Time, error) {
	if notes == nil {
		notes = []models.Note{}
	}
	if strokes == nil {
		strokes = []models.Stroke{}
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/board", boardPayload{PostIts: notes, DrawingLines: strokes})
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return time.Time{}, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, statusError(resp)
	}

	var result saveResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return time.Time{}, fmt.Errorf("decode save result: %w", err)
	}
	return result.Timestamp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	var e apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&e)
	return &StatusError{Code: resp.StatusCode, Message: e.Error}
}
