package dynamo

import (
	"context"
	"time"

	"github.com/zlnvch/stickyboard/models"
)

type DynamoBoardStore struct {
	client    dynamoClient
	tableName string
	now       func() time.Time
}

func NewDynamoBoardStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoBoardStore, error) {
	client, err := newDynamoDBClient(ctx, devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	if err := ensureTable(client, ctx, tableName); err != nil {
		return nil, err
	}

	return &DynamoBoardStore{client: client, tableName: tableName, now: time.Now}, nil
}

func (dynamoStore *DynamoBoardStore) GetBoard(ctx context.Context, name string) (models.Board, error) {
	db, err := getItem[dynamoBoard](dynamoStore, ctx, boardPK(name), boardSK, true)
	if err != nil {
		return models.Board{}, err
	}

	return boardFromDynamo(db)
}

// ReplaceBoard overwrites every attribute of the board item in a single
// UpdateItem call, so readers see either the previous document or the new one.
func (dynamoStore *DynamoBoardStore) ReplaceBoard(ctx context.Context, name string, notes []models.Note, strokes []models.Stroke) (models.Board, error) {
	db, err := boardToDynamo(name, notes, strokes, dynamoStore.now().UTC())
	if err != nil {
		return models.Board{}, err
	}

	db, err = replaceItem(dynamoStore, ctx, db, "Revision")
	if err != nil {
		return models.Board{}, err
	}

	return boardFromDynamo(db)
}
