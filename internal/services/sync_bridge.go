package services

import (
	"context"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/usecase"
)

// SyncBridge adapts the processor to the usecase.SyncBuffer port.
type SyncBridge struct {
	processor *SyncProcessor
}

func NewSyncBridge(processor *SyncProcessor) *SyncBridge {
	return &SyncBridge{processor: processor}
}

func (b *SyncBridge) BufferSync(ctx context.Context, op usecase.SyncOp) error {
	if b.processor == nil {
		return domain.ErrInvalidPayload
	}
	return b.processor.Enqueue(op)
}

var _ usecase.SyncBuffer = (*SyncBridge)(nil)
