package ledger

import (
	"context"
	"sync"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

var _ eventStore = &eventStoreMock{}

type eventStoreMock struct {
	AppendFunc   func(ctx context.Context, ev domain.CustodyEvent) error
	GetChainFunc func(ctx context.Context, evidenceID string) ([]domain.CustodyEvent, error)
	GetLastFunc  func(ctx context.Context, evidenceID string) (domain.CustodyEvent, error)

	calls struct {
		Append []struct {
			Ctx context.Context
			Ev  domain.CustodyEvent
		}
		GetChain []struct {
			Ctx        context.Context
			EvidenceID string
		}
		GetLast []struct {
			Ctx        context.Context
			EvidenceID string
		}
	}
	lockAppend   sync.RWMutex
	lockGetChain sync.RWMutex
	lockGetLast  sync.RWMutex
}

func (mock *eventStoreMock) Append(ctx context.Context, ev domain.CustodyEvent) error {
	if mock.AppendFunc == nil {
		panic("eventStoreMock.AppendFunc: method is nil but eventStore.Append was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Ev  domain.CustodyEvent
	}{Ctx: ctx, Ev: ev}
	mock.lockAppend.Lock()
	mock.calls.Append = append(mock.calls.Append, callInfo)
	mock.lockAppend.Unlock()
	return mock.AppendFunc(ctx, ev)
}

func (mock *eventStoreMock) AppendCalls() []struct {
	Ctx context.Context
	Ev  domain.CustodyEvent
} {
	mock.lockAppend.RLock()
	calls := mock.calls.Append
	mock.lockAppend.RUnlock()
	return calls
}

func (mock *eventStoreMock) GetChain(ctx context.Context, evidenceID string) ([]domain.CustodyEvent, error) {
	if mock.GetChainFunc == nil {
		panic("eventStoreMock.GetChainFunc: method is nil but eventStore.GetChain was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		EvidenceID string
	}{Ctx: ctx, EvidenceID: evidenceID}
	mock.lockGetChain.Lock()
	mock.calls.GetChain = append(mock.calls.GetChain, callInfo)
	mock.lockGetChain.Unlock()
	return mock.GetChainFunc(ctx, evidenceID)
}

func (mock *eventStoreMock) GetChainCalls() []struct {
	Ctx        context.Context
	EvidenceID string
} {
	mock.lockGetChain.RLock()
	calls := mock.calls.GetChain
	mock.lockGetChain.RUnlock()
	return calls
}

func (mock *eventStoreMock) GetLast(ctx context.Context, evidenceID string) (domain.CustodyEvent, error) {
	if mock.GetLastFunc == nil {
		panic("eventStoreMock.GetLastFunc: method is nil but eventStore.GetLast was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		EvidenceID string
	}{Ctx: ctx, EvidenceID: evidenceID}
	mock.lockGetLast.Lock()
	mock.calls.GetLast = append(mock.calls.GetLast, callInfo)
	mock.lockGetLast.Unlock()
	return mock.GetLastFunc(ctx, evidenceID)
}

func (mock *eventStoreMock) GetLastCalls() []struct {
	Ctx        context.Context
	EvidenceID string
} {
	mock.lockGetLast.RLock()
	calls := mock.calls.GetLast
	mock.lockGetLast.RUnlock()
	return calls
}
