package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/stickyboard/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetBoard(ctx context.Context, name string) (models.Board, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(models.Board), args.Error(1)
}

func (m *MockStore) ReplaceBoard(ctx context.Context, name string, notes []models.Note, strokes []models.Stroke) (models.Board, error) {
	args := m.Called(ctx, name, notes, strokes)
	return args.Get(0).(models.Board), args.Error(1)
}
