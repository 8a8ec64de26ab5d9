package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	cachemocks "github.com/zlnvch/stickyboard/cache/mocks"
	"github.com/zlnvch/stickyboard/logger"
	"github.com/zlnvch/stickyboard/models"
	mqmocks "github.com/zlnvch/stickyboard/mq/mocks"
	"github.com/zlnvch/stickyboard/service"
	"github.com/zlnvch/stickyboard/store"
	storemocks "github.com/zlnvch/stickyboard/store/mocks"
)

// Helper to setup the service with mocks and a fixed clock
func setupService(t *testing.T) (*service.Service, *storemocks.MockStore, *cachemocks.MockCache, *mqmocks.MockMQ) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	svc := service.NewService(mockStore, mockCache, mockMQ, "hunter2", testSecret, logger.Nop())
	svc.Now = func() time.Time { return t0 }

	return svc, mockStore, mockCache, mockMQ
}

func login(t *testing.T, svc *service.Service) string {
	t.Helper()
	token, err := svc.Login("hunter2")
	require.NoError(t, err)
	return token
}

func storedBoard(rev int64) models.Board {
	return models.Board{
		Notes:     []models.Note{{Id: "n1", X: 1, Y: 2, Text: "ship it", Type: models.CategoryDone}},
		Strokes:   []models.Stroke{{Id: "s1", Points: []float64{0, 0, 5, 5}}},
		UpdatedAt: t0.Add(time.Minute),
		Revision:  rev,
	}
}

func TestLoadBoard_Unauthorized(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)

	_, err := svc.LoadBoard(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = svc.LoadBoard(context.Background(), "invalid.token.string")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	mockStore.AssertNotCalled(t, "GetBoard", mock.Anything, mock.Anything)
	mockCache.AssertNotCalled(t, "GetBoard", mock.Anything, mock.Anything)
}

func TestLoadBoard_NeverSaved(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	svc.Cache = nil
	ctx := context.Background()

	mockStore.On("GetBoard", ctx, models.BoardName).Return(models.Board{}, store.ErrItemNotFound)

	board, err := svc.LoadBoard(ctx, login(t, svc))
	require.NoError(t, err)
	assert.NotNil(t, board.Notes)
	assert.Empty(t, board.Notes)
	assert.NotNil(t, board.Strokes)
	assert.Empty(t, board.Strokes)
	assert.True(t, board.UpdatedAt.IsZero())
}

func TestLoadBoard_CacheHit(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	mockCache.On("GetBoard", ctx, models.BoardName).Return(storedBoard(2), true, nil)

	board, err := svc.LoadBoard(ctx, login(t, svc))
	require.NoError(t, err)
	assert.Equal(t, storedBoard(2), board)
	mockStore.AssertNotCalled(t, "GetBoard", mock.Anything, mock.Anything)
}

func TestLoadBoard_CacheMissFillsCache(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	mockCache.On("GetBoard", ctx, models.BoardName).Return(models.Board{}, false, nil)
	mockStore.On("GetBoard", ctx, models.BoardName).Return(storedBoard(2), nil)
	mockCache.On("SetBoard", ctx, models.BoardName, storedBoard(2)).Return(true, nil)

	board, err := svc.LoadBoard(ctx, login(t, svc))
	require.NoError(t, err)
	assert.Equal(t, storedBoard(2), board)
	mockCache.AssertExpectations(t)
}

func TestLoadBoard_CacheErrorFallsBackToStore(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	mockCache.On("GetBoard", ctx, models.BoardName).Return(models.Board{}, false, errors.New("redis down"))
	mockStore.On("GetBoard", ctx, models.BoardName).Return(storedBoard(1), nil)
	mockCache.On("SetBoard", ctx, models.BoardName, storedBoard(1)).Return(false, errors.New("redis down"))

	board, err := svc.LoadBoard(ctx, login(t, svc))
	require.NoError(t, err)
	assert.Equal(t, int64(1), board.Revision)
}

func TestLoadBoard_StoreError(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	mockCache.On("GetBoard", ctx, models.BoardName).Return(models.Board{}, false, nil)
	mockStore.On("GetBoard", ctx, models.BoardName).Return(models.Board{}, errors.New("timeout"))

	_, err := svc.LoadBoard(ctx, login(t, svc))
	assert.ErrorIs(t, err, service.ErrStore)
	mockCache.AssertNotCalled(t, "SetBoard", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveBoard_Success(t *testing.T) {
	svc, mockStore, mockCache, mockMQ := setupService(t)
	ctx := context.Background()

	in := []models.Note{
		{Id: "a", X: 10, Y: 20, Text: "one", Type: "in-progress"},
		{Id: "b", X: -5, Y: 0, Text: models.PlaceholderText, Type: models.CategoryBug},
	}
	normalised := []models.Note{
		{Id: "a", X: 10, Y: 20, Text: "one", Type: models.CategoryProgress},
		{Id: "b", X: -5, Y: 0, Text: models.PlaceholderText, Type: models.CategoryBug},
	}
	saved := models.Board{Notes: normalised, Strokes: []models.Stroke{}, UpdatedAt: t0, Revision: 7}

	mockStore.On("ReplaceBoard", ctx, models.BoardName, normalised, []models.Stroke{}).Return(saved, nil)
	mockCache.On("SetBoard", mock.Anything, models.BoardName, saved).Return(true, nil)
	mockMQ.ExpectBoardSaved(models.BoardName, 7).Return(nil)

	board, err := svc.SaveBoard(ctx, login(t, svc), in, nil)
	require.NoError(t, err)
	assert.Equal(t, saved, board)

	svc.Wait()
	mockStore.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockMQ.AssertExpectations(t)
}

func TestSaveBoard_SideEffectFailuresIgnored(t *testing.T) {
	svc, mockStore, mockCache, mockMQ := setupService(t)
	ctx := context.Background()
	saved := models.Board{Notes: []models.Note{}, Strokes: []models.Stroke{}, UpdatedAt: t0, Revision: 1}

	mockStore.On("ReplaceBoard", ctx, models.BoardName, []models.Note{}, []models.Stroke{}).Return(saved, nil)
	mockCache.On("SetBoard", mock.Anything, models.BoardName, saved).Return(false, errors.New("redis down"))
	mockCache.On("InvalidateBoard", mock.Anything, models.BoardName).Return(errors.New("redis down"))
	mockMQ.ExpectBoardSaved(models.BoardName, 1).Return(errors.New("sqs down"))

	_, err := svc.SaveBoard(ctx, login(t, svc), []models.Note{}, []models.Stroke{})
	assert.NoError(t, err)

	svc.Wait()
	mockCache.AssertExpectations(t)
	mockMQ.AssertExpectations(t)
}

func TestSaveBoard_CacheUpdatedBeforeReturn(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	svc.MQ = nil
	ctx := context.Background()
	saved := models.Board{Notes: []models.Note{}, Strokes: []models.Stroke{}, UpdatedAt: t0, Revision: 3}

	mockStore.On("ReplaceBoard", ctx, models.BoardName, []models.Note{}, []models.Stroke{}).Return(saved, nil)
	mockCache.On("SetBoard", mock.Anything, models.BoardName, saved).Return(true, nil)

	_, err := svc.SaveBoard(ctx, login(t, svc), []models.Note{}, nil)
	require.NoError(t, err)

	// No Wait: the cache write is part of the save.
	mockCache.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "InvalidateBoard", mock.Anything, mock.Anything)
}

func TestSaveBoard_FailedCacheWriteInvalidates(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	svc.MQ = nil
	ctx := context.Background()
	saved := models.Board{Notes: []models.Note{}, Strokes: []models.Stroke{}, UpdatedAt: t0, Revision: 4}

	mockStore.On("ReplaceBoard", ctx, models.BoardName, []models.Note{}, []models.Stroke{}).Return(saved, nil)
	mockCache.On("SetBoard", mock.Anything, models.BoardName, saved).Return(false, context.DeadlineExceeded)
	mockCache.On("InvalidateBoard", mock.Anything, models.BoardName).Return(nil)

	_, err := svc.SaveBoard(ctx, login(t, svc), []models.Note{}, nil)
	require.NoError(t, err)
	mockCache.AssertExpectations(t)
}

func TestSaveBoard_CacheWriteSurvivesCancelledRequest(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	svc.MQ = nil
	ctx, cancel := context.WithCancel(context.Background())
	saved := models.Board{Notes: []models.Note{}, Strokes: []models.Stroke{}, UpdatedAt: t0, Revision: 5}

	mockStore.On("ReplaceBoard", ctx, models.BoardName, []models.Note{}, []models.Stroke{}).
		Run(func(mock.Arguments) { cancel() }).
		Return(saved, nil)
	mockCache.On("SetBoard", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), models.BoardName, saved).
		Return(true, nil)

	_, err := svc.SaveBoard(ctx, login(t, svc), []models.Note{}, nil)
	require.NoError(t, err)
	mockCache.AssertExpectations(t)
}

func TestSaveBoard_NoSideEffectsWithoutCacheOrQueue(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	svc.Cache = nil
	svc.MQ = nil
	ctx := context.Background()

	mockStore.On("ReplaceBoard", ctx, models.BoardName, []models.Note{}, []models.Stroke{}).
		Return(models.Board{Notes: []models.Note{}, Strokes: []models.Stroke{}, UpdatedAt: t0, Revision: 1}, nil)

	_, err := svc.SaveBoard(ctx, login(t, svc), []models.Note{}, nil)
	assert.NoError(t, err)
	svc.Wait()
}

func TestSaveBoard_Unauthorized(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)

	_, err := svc.SaveBoard(context.Background(), "", []models.Note{}, nil)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	// Unauthorized wins over an invalid payload.
	_, err = svc.SaveBoard(context.Background(), "", nil, nil)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	mockStore.AssertNotCalled(t, "ReplaceBoard", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveBoard_ValidationPrecedesStore(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	token := login(t, svc)

	_, err := svc.SaveBoard(context.Background(), token, nil, nil)
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.SaveBoard(context.Background(), token, []models.Note{{Id: "a", Type: "urgent"}}, nil)
	assert.ErrorIs(t, err, service.ErrValidation)

	mockStore.AssertNotCalled(t, "ReplaceBoard", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveBoard_StoreError(t *testing.T) {
	svc, mockStore, mockCache, mockMQ := setupService(t)
	ctx := context.Background()

	mockStore.On("ReplaceBoard", ctx, models.BoardName, []models.Note{}, []models.Stroke{}).
		Return(models.Board{}, errors.New("conditional check failed"))

	_, err := svc.SaveBoard(ctx, login(t, svc), []models.Note{}, nil)
	assert.ErrorIs(t, err, service.ErrStore)

	svc.Wait()
	mockCache.AssertNotCalled(t, "SetBoard", mock.Anything, mock.Anything, mock.Anything)
	mockMQ.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
