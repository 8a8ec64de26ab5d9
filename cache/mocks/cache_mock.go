package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/stickyboard/models"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetBoard(ctx context.Context, name string) (models.Board, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(models.Board), args.Bool(1), args.Error(2)
}

func (m *MockCache) SetBoard(ctx context.Context, name string, board models.Board) (bool, error) {
	args := m.Called(ctx, name, board)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) InvalidateBoard(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
