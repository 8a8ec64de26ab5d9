package models

import "time"

// BoardName is the fixed name of the single board document.
const BoardName = "main"

// PlaceholderText marks a note whose text has never been edited.
const PlaceholderText = "Task description..."

type Category string

const (
	CategoryTodo     Category = "todo"
	CategoryProgress Category = "progress"
	CategoryDone     Category = "done"
	CategoryBug      Category = "bug"
	CategoryFeature  Category = "feature"
)

// Categories lists the closed set of note categories in menu order.
var Categories = []Category{
	CategoryTodo,
	CategoryProgress,
	CategoryDone,
	CategoryBug,
	CategoryFeature,
}

// ParseCategory normalises a wire value into a Category.
// "in-progress" is accepted as an alias of "progress".
func ParseCategory(s string) (Category, bool) {
	if s == "in-progress" {
		return CategoryProgress, true
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Note struct {
	Id   string   `json:"id"`
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Text string   `json:"text"`
	Type Category `json:"type"`
}

// Stroke is a freehand line. Points are flattened as x0, y0, x1, y1, ...
type Stroke struct {
	Id     string    `json:"id"`
	Points []float64 `json:"points"`
}

// PointCount returns the number of (x, y) pairs in the stroke.
func (s Stroke) PointCount() int {
	return len(s.Points) / 2
}

type Board struct {
	Notes     []Note
	Strokes   []Stroke
	UpdatedAt time.Time // zero until the first save
	Revision  int64
}

// Exists reports whether the board has been written at least once.
func (b Board) Exists() bool {
	return b.Revision > 0
}
