package registry

import (
	"context"
	"sync"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

var _ outboxWriter = &outboxWriterMock{}

type outboxWriterMock struct {
	EnqueueFunc func(ctx context.Context, msg domain.OutboxMessage) error

	calls struct {
		Enqueue []struct {
			Ctx context.Context
			Msg domain.OutboxMessage
		}
	}
	lockEnqueue sync.RWMutex
}

func (mock *outboxWriterMock) Enqueue(ctx context.Context, msg domain.OutboxMessage) error {
	if mock.EnqueueFunc == nil {
		panic("outboxWriterMock.EnqueueFunc: method is nil but outboxWriter.Enqueue was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Msg domain.OutboxMessage
	}{
		Ctx: ctx,
		Msg: msg,
	}
	mock.lockEnqueue.Lock()
	mock.calls.Enqueue = append(mock.calls.Enqueue, callInfo)
	mock.lockEnqueue.Unlock()
	return mock.EnqueueFunc(ctx, msg)
}

func (mock *outboxWriterMock) EnqueueCalls() []struct {
	Ctx context.Context
	Msg domain.OutboxMessage
} {
	var calls []struct {
		Ctx context.Context
		Msg domain.OutboxMessage
	}
	mock.lockEnqueue.RLock()
	calls = mock.calls.Enqueue
	mock.lockEnqueue.RUnlock()
	return calls
}
