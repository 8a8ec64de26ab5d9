package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
	"github.com/zlnvch/stickyboard/mq"
)

// MockMQ is a testify mock of mq.MessageQueue with helpers for the
// board-saved traffic the service produces and the cache warmer consumes.
type MockMQ struct {
	mock.Mock
}

func (m *MockMQ) Send(ctx context.Context, body string) error {
	return m.Called(ctx, body).Error(0)
}

func (m *MockMQ) Receive(ctx context.Context, visibilityTimeout int32) (*mq.Message, error) {
	args := m.Called(ctx, visibilityTimeout)
	msg, _ := args.Get(0).(*mq.Message)
	return msg, args.Error(1)
}

func (m *MockMQ) Delete(ctx context.Context, msg *mq.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// BoardSaved builds a received board-saved message.
func BoardSaved(receiptHandle, board string, revision int64) *mq.Message {
	return &mq.Message{ReceiptHandle: receiptHandle, Body: boardSavedBody(board, revision)}
}

// ExpectBoardSaved expects one Send carrying the board-saved message for
// board at revision.
func (m *MockMQ) ExpectBoardSaved(board string, revision int64) *mock.Call {
	return m.On("Send", mock.Anything, boardSavedBody(board, revision)).Once()
}

// DeliverOnce makes the next Receive return msg and the one after it fail
// with context.Canceled, which stops a consumer loop after one message.
func (m *MockMQ) DeliverOnce(msg *mq.Message) {
	m.On("Receive", mock.Anything, mock.Anything).Return(msg, nil).Once()
	m.On("Receive", mock.Anything, mock.Anything).Return(nil, context.Canceled).Once()
}

func boardSavedBody(board string, revision int64) string {
	b, err := json.Marshal(mq.BoardSavedMessage{Board: board, Revision: revision})
	if err != nil {
		panic(err)
	}
	return string(b)
}
