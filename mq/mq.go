package mq

import "context"

// MessageQueue carries background jobs between the API and the worker.
// Delivery is at-least-once; consumers must tolerate duplicates.
type MessageQueue interface {
	Send(ctx context.Context, body string) error
	// Receive long-polls for one message. It returns (nil, nil) when the poll
	// ended without a message.
	Receive(ctx context.Context, visibilityTimeout int32) (*Message, error)
	Delete(ctx context.Context, msg *Message) error
}

type Message struct {
	ReceiptHandle string
	Body          string
}

// BoardSavedMessage is the body of the message sent after every successful
// save. Revision is the revision the save produced.
type BoardSavedMessage struct {
	Board    string `json:"board"`
	Revision int64  `json:"revision"`
}
