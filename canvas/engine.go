// Package canvas holds the client-side board model: an event-driven engine
// over notes and ink strokes, an HTTP client for the board API and view
// models for rendering.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/zlnvch/stickyboard/models"
	"go.uber.org/zap"
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeEditing
	ModeSketching
	ModeDrawing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeEditing:
		return "editing"
	case ModeSketching:
		return "sketching"
	case ModeDrawing:
		return "drawing"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// SyncStatus is the outcome of Load or Save.
type SyncStatus int

const (
	SyncOK SyncStatus = iota
	// SyncFailed: the request failed; local state is still usable.
	SyncFailed
	// SyncUnauthorized: the caller must send the user to the login view.
	SyncUnauthorized
	// SyncSkipped: another save was already in flight.
	SyncSkipped
)

func (s SyncStatus) String() string {
	switch s {
	case SyncOK:
		return "ok"
	case SyncFailed:
		return "failed"
	case SyncUnauthorized:
		return "unauthorized"
	case SyncSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

const (
	DefaultNoteId = "default"

	// A click this soon after a drag ends on the same note belongs to the
	// drag gesture.
	dragClickWindow = 300 * time.Millisecond

	spawnMargin = 50
	spawnInsetX = 280
	spawnInsetY = 200
)

// DefaultNote is the note shown on a board with no notes.
func DefaultNote() models.Note {
	return models.Note{Id: DefaultNoteId, X: 250, Y: 180, Text: models.PlaceholderText, Type: models.CategoryTodo}
}

type Viewport struct {
	Width  float64
	Height float64
}

// Edit is an open text editor on a note.
type Edit struct {
	NoteId string
	Buffer string
}

// State is an immutable snapshot of the engine.
type State struct {
	Mode        Mode
	Notes       []models.Note
	Strokes     []models.Stroke
	Current     *models.Stroke // in-progress stroke while drawing
	Editing     *Edit
	SketchMode  bool
	Lifted      string // id of the note being dragged
	Loading     bool
	Saving      bool
	LastUpdated time.Time
}

type dragRelease struct {
	noteId string
	at     time.Time
}

// Engine is the board model for one session. Transitions serialise on a
// mutex; Load and Save release it while waiting on the network so local edits
// stay possible.
type Engine struct {
	mu       sync.Mutex
	client   BoardClient
	log      *zap.SugaredLogger
	viewport Viewport
	now      func() time.Time
	random   func() float64

	notes       []models.Note
	strokes     []models.Stroke
	current     *models.Stroke
	editing     *Edit
	sketch      bool
	lifted      string
	released    *dragRelease
	loading     bool
	lastUpdated time.Time

	saving atomic.Bool
}

func NewEngine(client BoardClient, viewport Viewport, log *zap.SugaredLogger) *Engine {
	return &Engine{
		client:   client,
		log:      log,
		viewport: viewport,
		now:      time.Now,
		random:   rand.Float64,
		notes:    []models.Note{DefaultNote()},
		strokes:  []models.Stroke{},
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) SetViewport(v Viewport) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = v
	return e.snapshot()
}

// AddNote places a new placeholder note at a random spot in the viewport.
// An empty category means todo.
func (e *Engine) AddNote(category models.Category) (State, error) {
	if category == "" {
		category = models.CategoryTodo
	}
	c, ok := models.ParseCategory(string(category))
	if !ok {
		return e.State(), fmt.Errorf("unknown category %q", category)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	note := models.Note{
		Id:   e.newId("postit"),
		X:    spawnMargin + e.random()*max(0, e.viewport.Width-spawnInsetX),
		Y:    spawnMargin + e.random()*max(0, e.viewport.Height-spawnInsetY),
		Text: models.PlaceholderText,
		Type: c,
	}
	e.notes = append(e.notes, note)
	return e.snapshot(), nil
}

func (e *Engine) OnDragStart(noteId string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	if e.sketch || e.noteIndex(noteId) < 0 {
		return e.snapshot()
	}
	e.lifted = noteId
	return e.snapshot()
}

func (e *Engine) OnDragEnd(noteId string, x, y float64) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	if e.sketch {
		return e.snapshot()
	}
	if i := e.noteIndex(noteId); i >= 0 {
		e.notes[i].X = x
		e.notes[i].Y = y
		e.released = &dragRelease{noteId: noteId, at: e.now()}
	}
	e.lifted = ""
	return e.snapshot()
}

// OnClick opens the editor on a note. A click that completes a drag gesture
// is ignored.
func (e *Engine) OnClick(noteId string) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	released := e.released
	e.released = nil
	if released != nil && released.noteId == noteId && e.now().Sub(released.at) <= dragClickWindow {
		return e.snapshot()
	}
	if e.sketch || e.lifted == noteId {
		return e.snapshot()
	}

	i := e.noteIndex(noteId)
	if i < 0 {
		return e.snapshot()
	}
	if e.editing != nil {
		if e.editing.NoteId == noteId {
			return e.snapshot()
		}
		e.submitEdit()
		i = e.noteIndex(noteId)
	}

	buffer := e.notes[i].Text
	if buffer == models.PlaceholderText {
		buffer = ""
	}
	e.editing = &Edit{NoteId: noteId, Buffer: buffer}
	return e.snapshot()
}

func (e *Engine) OnEditInput(text string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	if e.editing != nil {
		e.editing.Buffer = text
	}
	return e.snapshot()
}

// OnEditKey handles a key press in the editor: Enter without shift submits,
// Escape cancels. Other keys are left to OnEditInput.
func (e *Engine) OnEditKey(key string, shift bool) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	switch {
	case key == "Enter" && !shift:
		e.submitEdit()
	case key == "Escape":
		e.editing = nil
	}
	return e.snapshot()
}

func (e *Engine) OnEditBlur() State {
	return e.SubmitEdit()
}

func (e *Engine) SubmitEdit() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	e.submitEdit()
	return e.snapshot()
}

func (e *Engine) CancelEdit() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	e.editing = nil
	return e.snapshot()
}

// submitEdit commits the buffer. A blank buffer restores the placeholder.
func (e *Engine) submitEdit() {
	if e.editing == nil {
		return
	}
	text := e.editing.Buffer
	if strings.TrimSpace(text) == "" {
		text = models.PlaceholderText
	}
	if i := e.noteIndex(e.editing.NoteId); i >= 0 {
		e.notes[i].Text = text
	}
	e.editing = nil
}

// ToggleSketchMode flips sketch mode. Entering it discards any open edit;
// leaving it commits a stroke still being drawn.
func (e *Engine) ToggleSketchMode() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	if e.sketch {
		e.commitStroke()
	} else {
		e.editing = nil
		e.lifted = ""
	}
	e.sketch = !e.sketch
	return e.snapshot()
}

func (e *Engine) OnPointerDown(x, y float64) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	if !e.sketch {
		return e.snapshot()
	}
	e.commitStroke()
	e.current = &models.Stroke{Id: e.newId("line"), Points: []float64{x, y}}
	return e.snapshot()
}

func (e *Engine) OnPointerMove(x, y float64) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	if e.current != nil {
		e.current.Points = append(e.current.Points, x, y)
	}
	return e.snapshot()
}

// OnPointerUp ends the current gesture: it commits a stroke being drawn and
// drops a note left lifted by a drag that never ended. It belongs to the same
// gesture as a preceding drag end, so it keeps that drag's click suppression.
func (e *Engine) OnPointerUp() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.commitStroke()
	e.lifted = ""
	return e.snapshot()
}

func (e *Engine) commitStroke() {
	if e.current == nil {
		return
	}
	e.strokes = append(e.strokes, *e.current)
	e.current = nil
}

// Clear empties the board locally. Nothing is persisted until Save.
func (e *Engine) Clear() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = nil

	e.notes = []models.Note{}
	e.strokes = []models.Stroke{}
	e.current = nil
	e.editing = nil
	e.lifted = ""
	return e.snapshot()
}

// Load replaces the local board with the persisted one. A board without
// notes gets the default note. On failures other than SyncUnauthorized the
// engine falls back to the default note and no strokes.
func (e *Engine) Load(ctx context.Context) (State, SyncStatus) {
	e.mu.Lock()
	e.loading = true
	e.mu.Unlock()

	snap, err := e.client.LoadBoard(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	e.released = nil

	if errors.Is(err, ErrUnauthorized) {
		return e.snapshot(), SyncUnauthorized
	}

	e.editing = nil
	e.current = nil
	e.lifted = ""

	if err != nil {
		e.log.Warnf("Error loading board: %v", err)
		e.notes = []models.Note{DefaultNote()}
		e.strokes = []models.Stroke{}
		e.lastUpdated = time.Time{}
		return e.snapshot(), SyncFailed
	}

	e.notes = slices.Clone(snap.Notes)
	if len(e.notes) == 0 {
		e.notes = []models.Note{DefaultNote()}
	}
	e.strokes = cloneStrokes(snap.Strokes)
	e.lastUpdated = snap.LastUpdated
	return e.snapshot(), SyncOK
}

// Save sends all notes and committed strokes. Only one save runs at a time;
// a concurrent call returns SyncSkipped without contacting the server.
func (e *Engine) Save(ctx context.Context) (State, SyncStatus) {
	if !e.saving.CompareAndSwap(false, true) {
		return e.State(), SyncSkipped
	}

	e.mu.Lock()
	notes := slices.Clone(e.notes)
	strokes := cloneStrokes(e.strokes)
	e.mu.Unlock()

	ts, err := e.client.SaveBoard(ctx, notes, strokes)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving.Store(false)

	if errors.Is(err, ErrUnauthorized) {
		return e.snapshot(), SyncUnauthorized
	}
	if err != nil {
		e.log.Errorf("Error saving board: %v", err)
		return e.snapshot(), SyncFailed
	}
	e.lastUpdated = ts
	return e.snapshot(), SyncOK
}

func (e *Engine) noteIndex(id string) int {
	return slices.IndexFunc(e.notes, func(n models.Note) bool { return n.Id == id })
}

// newId returns prefix-<uuid v7>, falling back to a timestamp id if the
// system random source fails.
func (e *Engine) newId(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		e.log.Warnf("uuid generation failed: %v", err)
		return fmt.Sprintf("%s-%d", prefix, e.now().UnixNano())
	}
	return prefix + "-" + id.String()
}

func (e *Engine) snapshot() State {
	s := State{
		Notes:       slices.Clone(e.notes),
		Strokes:     cloneStrokes(e.strokes),
		SketchMode:  e.sketch,
		Lifted:      e.lifted,
		Loading:     e.loading,
		Saving:      e.saving.Load(),
		LastUpdated: e.lastUpdated,
	}
	if e.current != nil {
		c := models.Stroke{Id: e.current.Id, Points: slices.Clone(e.current.Points)}
		s.Current = &c
	}
	if e.editing != nil {
		ed := *e.editing
		s.Editing = &ed
	}

	switch {
	case e.sketch && e.current != nil:
		s.Mode = ModeDrawing
	case e.sketch:
		s.Mode = ModeSketching
	case e.editing != nil:
		s.Mode = ModeEditing
	default:
		s.Mode = ModeIdle
	}
	return s
}

func cloneStrokes(in []models.Stroke) []models.Stroke {
	out := make([]models.Stroke, len(in))
	for i, s := range in {
		out[i] = models.Stroke{Id: s.Id, Points: slices.Clone(s.Points)}
	}
	return out
}
