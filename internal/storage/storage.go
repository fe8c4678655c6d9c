package storage

import (
	"context"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

// Storage defines a sink for raw log records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}

// EventSink defines a sink for decoded contract events.
type EventSink interface {
	PutEvents(ctx context.Context, events []model.TypedEvent) error
	Close() error
}
