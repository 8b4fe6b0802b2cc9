package relay

import (
	"context"
	"sync"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

var _ publisher = &publisherMock{}

type publisherMock struct {
	PublishFunc func(ctx context.Context, msgs []domain.OutboxMessage) error

	calls struct {
		Publish []struct {
			Ctx  context.Context
			Msgs []domain.OutboxMessage
		}
	}
	lockPublish sync.RWMutex
}

func (mock *publisherMock) Publish(ctx context.Context, msgs []domain.OutboxMessage) error {
	if mock.PublishFunc == nil {
		panic("publisherMock.PublishFunc: method is nil but publisher.Publish was just called")
	}
	callInfo := struct {
		Ctx  context.Context
		Msgs []domain.OutboxMessage
	}{
		Ctx:  ctx,
		Msgs: msgs,
	}
	mock.lockPublish.Lock()
	mock.calls.Publish = append(mock.calls.Publish, callInfo)
	mock.lockPublish.Unlock()
	return mock.PublishFunc(ctx, msgs)
}

func (mock *publisherMock) PublishCalls() []struct {
	Ctx  context.Context
	Msgs []domain.OutboxMessage
} {
	var calls []struct {
		Ctx  context.Context
		Msgs []domain.OutboxMessage
	}
	mock.lockPublish.RLock()
	calls = mock.calls.Publish
	mock.lockPublish.RUnlock()
	return calls
}
