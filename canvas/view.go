package canvas

import (
	"sync"

	"github.com/zlnvch/stickyboard/models"
)

const (
	NoteWidth  = 240
	NoteHeight = 160

	editorInsetX = 12
	editorInsetY = 50
	editorWidth  = NoteWidth - 2*editorInsetX
	editorHeight = 98

	EditorPlaceholder = "Enter task description..."
	LoaderText        = "Loading..."
)

type CategoryStyle struct {
	Icon  string
	Label string
	Color string
}

var categoryStyles = map[models.Category]CategoryStyle{
	models.CategoryTodo:     {Icon: "📋", Label: "TODO", Color: "#8b5cf6"},
	models.CategoryProgress: {Icon: "⚡", Label: "IN PROGRESS", Color: "#a78bfa"},
	models.CategoryDone:     {Icon: "✅", Label: "DONE", Color: "#34d399"},
	models.CategoryBug:      {Icon: "🐛", Label: "BUG FIX", Color: "#f87171"},
	models.CategoryFeature:  {Icon: "✨", Label: "FEATURE", Color: "#60a5fa"},
}

// StyleFor returns the style of a category. Unknown categories render as todo.
func StyleFor(c models.Category) CategoryStyle {
	if s, ok := categoryStyles[c]; ok {
		return s
	}
	return categoryStyles[models.CategoryTodo]
}

type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

type NoteCard struct {
	Id          string
	Title       string
	Text        string
	Accent      string
	Bounds      Rect
	Placeholder bool // text is the unedited placeholder
	Lifted      bool
	Editing     bool
}

type EditorOverlay struct {
	NoteId      string
	Bounds      Rect
	Value       string
	Placeholder string
}

type ButtonIcon string

const (
	IconPlus   ButtonIcon = "plus"
	IconSave   ButtonIcon = "save"
	IconClear  ButtonIcon = "clear"
	IconSketch ButtonIcon = "sketch"
)

type Button struct {
	Label    string
	Icon     ButtonIcon
	Active   bool
	Disabled bool
}

type Toolbar struct {
	Sketch Button
	Save   Button
	Clear  Button
}

type MenuItem struct {
	Category models.Category
	Icon     string
	Label    string
	Color    string
}

type MenuView struct {
	Open   bool
	Button Button
	Items  []MenuItem
}

type Loader struct {
	Visible bool
	Text    string
}

// BoardView is everything needed to draw one frame.
type BoardView struct {
	Notes   []NoteCard
	Strokes []models.Stroke
	Current *models.Stroke
	Editor  *EditorOverlay
	Toolbar Toolbar
	Loader  Loader
	Cursor  string
}

func Render(s State) BoardView {
	v := BoardView{
		Notes:   make([]NoteCard, 0, len(s.Notes)),
		Strokes: s.Strokes,
		Current: s.Current,
		Toolbar: renderToolbar(s),
		Loader:  Loader{Visible: s.Loading, Text: LoaderText},
		Cursor:  "default",
	}
	if s.SketchMode {
		v.Cursor = "crosshair"
	}

	for _, n := range s.Notes {
		style := StyleFor(n.Type)
		card := NoteCard{
			Id:          n.Id,
			Title:       style.Icon + " " + style.Label,
			Text:        n.Text,
			Accent:      style.Color,
			Bounds:      Rect{X: n.X, Y: n.Y, Width: NoteWidth, Height: NoteHeight},
			Placeholder: n.Text == models.PlaceholderText,
			Lifted:      s.Lifted == n.Id,
		}
		if s.Editing != nil && s.Editing.NoteId == n.Id {
			card.Editing = true
			v.Editor = &EditorOverlay{
				NoteId:      n.Id,
				Bounds:      Rect{X: n.X + editorInsetX, Y: n.Y + editorInsetY, Width: editorWidth, Height: editorHeight},
				Value:       s.Editing.Buffer,
				Placeholder: EditorPlaceholder,
			}
		}
		v.Notes = append(v.Notes, card)
	}
	return v
}

func renderToolbar(s State) Toolbar {
	t := Toolbar{
		Sketch: Button{Label: "Sketch", Icon: IconSketch, Active: s.SketchMode},
		Save:   Button{Label: "Save", Icon: IconSave},
		Clear:  Button{Label: "Clear", Icon: IconClear},
	}
	if s.SketchMode {
		t.Sketch.Label = "Exit Sketch"
	}
	if s.Saving {
		t.Save.Label = "Saving..."
		t.Save.Disabled = true
	}
	return t
}

// AddMenu is the floating add button and its category menu.
type AddMenu struct {
	mu   sync.Mutex
	open bool
}

func (m *AddMenu) Toggle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = !m.open
}

func (m *AddMenu) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
}

// Select adds a note of the chosen category and closes the menu.
func (m *AddMenu) Select(e *Engine, c models.Category) (State, error) {
	m.Close()
	return e.AddNote(c)
}

func (m *AddMenu) View() MenuView {
	m.mu.Lock()
	open := m.open
	m.mu.Unlock()

	v := MenuView{
		Open:   open,
		Button: Button{Label: "Add note", Icon: IconPlus, Active: open},
	}
	if !open {
		return v
	}
	for _, c := range models.Categories {
		style := StyleFor(c)
		v.Items = append(v.Items, MenuItem{Category: c, Icon: style.Icon, Label: style.Label, Color: style.Color})
	}
	return v
}
