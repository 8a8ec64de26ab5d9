package dynamo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zlnvch/stickyboard/models"
)

const boardSK = "DOCUMENT"

func boardPK(name string) string {
	return "BOARD#" + name
}

type dynamoBoard struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Content   []byte `dynamodbav:"Content"`
	UpdatedAt string `dynamodbav:"UpdatedAt"`
	Revision  int64  `dynamodbav:"Revision"`
}

// boardContent is stored as an opaque JSON blob in the API's wire shape.
type boardContent struct {
	Notes   []models.Note   `json:"postIts"`
	Strokes []models.Stroke `json:"drawingLines"`
}

// Map domain Board -> Dynamo
func boardToDynamo(name string, notes []models.Note, strokes []models.Stroke, updatedAt time.Time) (dynamoBoard, error) {
	content, err := json.Marshal(boardContent{Notes: notes, Strokes: strokes})
	if err != nil {
		return dynamoBoard{}, fmt.Errorf("marshal board content: %w", err)
	}

	return dynamoBoard{
		PK:        boardPK(name),
		SK:        boardSK,
		Content:   content,
		UpdatedAt: updatedAt.Format(time.RFC3339Nano),
	}, nil
}

// Map Dynamo -> domain Board
func boardFromDynamo(db dynamoBoard) (models.Board, error) {
	var content boardContent
	if len(db.Content) > 0 {
		if err := json.Unmarshal(db.Content, &content); err != nil {
			return models.Board{}, fmt.Errorf("unmarshal board content: %w", err)
		}
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, db.UpdatedAt)
	if err != nil {
		return models.Board{}, fmt.Errorf("parse UpdatedAt: %w", err)
	}

	if content.Notes == nil {
		content.Notes = []models.Note{}
	}
	if content.Strokes == nil {
		content.Strokes = []models.Stroke{}
	}

	return models.Board{
		Notes:     content.Notes,
		Strokes:   content.Strokes,
		UpdatedAt: updatedAt,
		Revision:  db.Revision,
	}, nil
}
