package verifier

import (
	"context"
	"sync"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

var _ chainReader = &chainReaderMock{}

type chainReaderMock struct {
	GetLastEventFunc func(ctx context.Context, evidenceID string) (domain.CustodyEvent, error)
	VerifyChainFunc  func(ctx context.Context, evidenceID string) (domain.ChainReport, error)

	calls struct {
		GetLastEvent []struct {
			Ctx        context.Context
			EvidenceID string
		}
		VerifyChain []struct {
			Ctx        context.Context
			EvidenceID string
		}
	}
	lockGetLastEvent sync.RWMutex
	lockVerifyChain  sync.RWMutex
}

func (mock *chainReaderMock) GetLastEvent(ctx context.Context, evidenceID string) (domain.CustodyEvent, error) {
	if mock.GetLastEventFunc == nil {
		panic("chainReaderMock.GetLastEventFunc: method is nil but chainReader.GetLastEvent was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		EvidenceID string
	}{
		Ctx:        ctx,
		EvidenceID: evidenceID,
	}
	mock.lockGetLastEvent.Lock()
	mock.calls.GetLastEvent = append(mock.calls.GetLastEvent, callInfo)
	mock.lockGetLastEvent.Unlock()
	return mock.GetLastEventFunc(ctx, evidenceID)
}

func (mock *chainReaderMock) GetLastEventCalls() []struct {
	Ctx        context.Context
	EvidenceID string
} {
	var calls []struct {
		Ctx        context.Context
		EvidenceID string
	}
	mock.lockGetLastEvent.RLock()
	calls = mock.calls.GetLastEvent
	mock.lockGetLastEvent.RUnlock()
	return calls
}

func (mock *chainReaderMock) VerifyChain(ctx context.Context, evidenceID string) (domain.ChainReport, error) {
	if mock.VerifyChainFunc == nil {
		panic("chainReaderMock.VerifyChainFunc: method is nil but chainReader.VerifyChain was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		EvidenceID string
	}{
		Ctx:        ctx,
		EvidenceID: evidenceID,
	}
	mock.lockVerifyChain.Lock()
	mock.calls.VerifyChain = append(mock.calls.VerifyChain, callInfo)
	mock.lockVerifyChain.Unlock()
	return mock.VerifyChainFunc(ctx, evidenceID)
}

func (mock *chainReaderMock) VerifyChainCalls() []struct {
	Ctx        context.Context
	EvidenceID string
} {
	var calls []struct {
		Ctx        context.Context
		EvidenceID string
	}
	mock.lockVerifyChain.RLock()
	calls = mock.calls.VerifyChain
	mock.lockVerifyChain.RUnlock()
	return calls
}
