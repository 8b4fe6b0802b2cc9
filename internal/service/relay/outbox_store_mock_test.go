package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

var _ outboxStore = &outboxStoreMock{}

type outboxStoreMock struct {
	FetchPendingFunc  func(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkPublishedFunc func(ctx context.Context, ids []uuid.UUID, at time.Time) error
	MarkFailedFunc    func(ctx context.Context, ids []uuid.UUID, cause string) error
	CountPendingFunc  func(ctx context.Context) (int64, error)

	calls struct {
		FetchPending []struct {
			Ctx   context.Context
			Limit int
		}
		MarkPublished []struct {
			Ctx context.Context
			IDs []uuid.UUID
			At  time.Time
		}
		MarkFailed []struct {
			Ctx   context.Context
			IDs   []uuid.UUID
			Cause string
		}
		CountPending []struct {
			Ctx context.Context
		}
	}
	lockFetchPending  sync.RWMutex
	lockMarkPublished sync.RWMutex
	lockMarkFailed    sync.RWMutex
	lockCountPending  sync.RWMutex
}

func (mock *outboxStoreMock) FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	if mock.FetchPendingFunc == nil {
		panic("outboxStoreMock.FetchPendingFunc: method is nil but outboxStore.FetchPending was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Limit int
	}{
		Ctx:   ctx,
		Limit: limit,
	}
	mock.lockFetchPending.Lock()
	mock.calls.FetchPending = append(mock.calls.FetchPending, callInfo)
	mock.lockFetchPending.Unlock()
	return mock.FetchPendingFunc(ctx, limit)
}

func (mock *outboxStoreMock) FetchPendingCalls() []struct {
	Ctx   context.Context
	Limit int
} {
	var calls []struct {
		Ctx   context.Context
		Limit int
	}
	mock.lockFetchPending.RLock()
	calls = mock.calls.FetchPending
	mock.lockFetchPending.RUnlock()
	return calls
}

func (mock *outboxStoreMock) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if mock.MarkPublishedFunc == nil {
		panic("outboxStoreMock.MarkPublishedFunc: method is nil but outboxStore.MarkPublished was just called")
	}
	callInfo := struct {
		Ctx context.Context
		IDs []uuid.UUID
		At  time.Time
	}{
		Ctx: ctx,
		IDs: ids,
		At:  at,
	}
	mock.lockMarkPublished.Lock()
	mock.calls.MarkPublished = append(mock.calls.MarkPublished, callInfo)
	mock.lockMarkPublished.Unlock()
	return mock.MarkPublishedFunc(ctx, ids, at)
}

func (mock *outboxStoreMock) MarkPublishedCalls() []struct {
	Ctx context.Context
	IDs []uuid.UUID
	At  time.Time
} {
	var calls []struct {
		Ctx context.Context
		IDs []uuid.UUID
		At  time.Time
	}
	mock.lockMarkPublished.RLock()
	calls = mock.calls.MarkPublished
	mock.lockMarkPublished.RUnlock()
	return calls
}

func (mock *outboxStoreMock) MarkFailed(ctx context.Context, ids []uuid.UUID, cause string) error {
	if mock.MarkFailedFunc == nil {
		panic("outboxStoreMock.MarkFailedFunc: method is nil but outboxStore.MarkFailed was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		IDs   []uuid.UUID
		Cause string
	}{
		Ctx:   ctx,
		IDs:   ids,
		Cause: cause,
	}
	mock.lockMarkFailed.Lock()
	mock.calls.MarkFailed = append(mock.calls.MarkFailed, callInfo)
	mock.lockMarkFailed.Unlock()
	return mock.MarkFailedFunc(ctx, ids, cause)
}

func (mock *outboxStoreMock) MarkFailedCalls() []struct {
	Ctx   context.Context
	IDs   []uuid.UUID
	Cause string
} {
	var calls []struct {
		Ctx   context.Context
		IDs   []uuid.UUID
		Cause string
	}
	mock.lockMarkFailed.RLock()
	calls = mock.calls.MarkFailed
	mock.lockMarkFailed.RUnlock()
	return calls
}

func (mock *outboxStoreMock) CountPending(ctx context.Context) (int64, error) {
	if mock.CountPendingFunc == nil {
		panic("outboxStoreMock.CountPendingFunc: method is nil but outboxStore.CountPending was just called")
	}
	callInfo := struct {
		Ctx context.Context
	}{
		Ctx: ctx,
	}
	mock.lockCountPending.Lock()
	mock.calls.CountPending = append(mock.calls.CountPending, callInfo)
	mock.lockCountPending.Unlock()
	return mock.CountPendingFunc(ctx)
}

func (mock *outboxStoreMock) CountPendingCalls() []struct {
	Ctx context.Context
} {
	var calls []struct {
		Ctx context.Context
	}
	mock.lockCountPending.RLock()
	calls = mock.calls.CountPending
	mock.lockCountPending.RUnlock()
	return calls
}
