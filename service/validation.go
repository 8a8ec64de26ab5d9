package service

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/zlnvch/stickyboard/models"
)

const (
	maxNotes        = 1000
	maxStrokes      = 5000
	maxStrokePoints = 10000
	maxIdLength     = 128
	maxNoteText     = 10000
)

// ValidateBoard checks a board submitted by a client and returns the notes
// with category aliases normalised. All errors wrap ErrValidation.
func ValidateBoard(notes []models.Note, strokes []models.Stroke) ([]models.Note, error) {
	if notes == nil {
		return nil, fmt.Errorf("%w: postIts must be an array", ErrValidation)
	}
	if err := validateBoard(notes, strokes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	out := make([]models.Note, len(notes))
	for i, n := range notes {
		n.Type, _ = models.ParseCategory(string(n.Type))
		out[i] = n
	}
	return out, nil
}

func validateBoard(notes []models.Note, strokes []models.Stroke) error {
	if len(notes) > maxNotes {
		return fmt.Errorf("too many notes (%d > %d)", len(notes), maxNotes)
	}
	if len(strokes) > maxStrokes {
		return fmt.Errorf("too many strokes (%d > %d)", len(strokes), maxStrokes)
	}

	seen := make(map[string]struct{}, len(notes))
	for i, n := range notes {
		if err := validateId(n.Id); err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
		if _, dup := seen[n.Id]; dup {
			return fmt.Errorf("note %d: duplicate id %q", i, n.Id)
		}
		seen[n.Id] = struct{}{}

		if _, ok := models.ParseCategory(string(n.Type)); !ok {
			return fmt.Errorf("note %d: unknown category %q", i, n.Type)
		}
		if !finite(n.X) || !finite(n.Y) {
			return fmt.Errorf("note %d: non-finite position", i)
		}
		if utf8.RuneCountInString(n.Text) > maxNoteText {
			return fmt.Errorf("note %d: text too long", i)
		}
	}

	seen = make(map[string]struct{}, len(strokes))
	for i, s := range strokes {
		if err := validateId(s.Id); err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
		if _, dup := seen[s.Id]; dup {
			return fmt.Errorf("stroke %d: duplicate id %q", i, s.Id)
		}
		seen[s.Id] = struct{}{}

		if len(s.Points) == 0 || len(s.Points)%2 != 0 {
			return fmt.Errorf("stroke %d: points must be non-empty x,y pairs", i)
		}
		if s.PointCount() > maxStrokePoints {
			return fmt.Errorf("stroke %d: too many points", i)
		}
		for _, p := range s.Points {
			if !finite(p) {
				return fmt.Errorf("stroke %d: non-finite point", i)
			}
		}
	}

	return nil
}

func validateId(id string) error {
	if id == "" {
		return errors.New("empty id")
	}
	if len(id) > maxIdLength {
		return errors.New("id too long")
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
