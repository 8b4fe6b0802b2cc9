package verifier

import (
	"context"
	"sync"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

var _ recordReader = &recordReaderMock{}

type recordReaderMock struct {
	GetByIDFunc    func(ctx context.Context, evidenceID string) (domain.EvidenceRecord, error)
	ListByCaseFunc func(ctx context.Context, caseID string) ([]domain.EvidenceRecord, error)

	calls struct {
		GetByID []struct {
			Ctx        context.Context
			EvidenceID string
		}
		ListByCase []struct {
			Ctx    context.Context
			CaseID string
		}
	}
	lockGetByID    sync.RWMutex
	lockListByCase sync.RWMutex
}

func (mock *recordReaderMock) GetByID(ctx context.Context, evidenceID string) (domain.EvidenceRecord, error) {
	if mock.GetByIDFunc == nil {
		panic("recordReaderMock.GetByIDFunc: method is nil but recordReader.GetByID was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		EvidenceID string
	}{
		Ctx:        ctx,
		EvidenceID: evidenceID,
	}
	mock.lockGetByID.Lock()
	mock.calls.GetByID = append(mock.calls.GetByID, callInfo)
	mock.lockGetByID.Unlock()
	return mock.GetByIDFunc(ctx, evidenceID)
}

func (mock *recordReaderMock) GetByIDCalls() []struct {
	Ctx        context.Context
	EvidenceID string
} {
	var calls []struct {
		Ctx        context.Context
		EvidenceID string
	}
	mock.lockGetByID.RLock()
	calls = mock.calls.GetByID
	mock.lockGetByID.RUnlock()
	return calls
}

func (mock *recordReaderMock) ListByCase(ctx context.Context, caseID string) ([]domain.EvidenceRecord, error) {
	if mock.ListByCaseFunc == nil {
		panic("recordReaderMock.ListByCaseFunc: method is nil but recordReader.ListByCase was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		CaseID string
	}{
		Ctx:    ctx,
		CaseID: caseID,
	}
	mock.lockListByCase.Lock()
	mock.calls.ListByCase = append(mock.calls.ListByCase, callInfo)
	mock.lockListByCase.Unlock()
	return mock.ListByCaseFunc(ctx, caseID)
}

func (mock *recordReaderMock) ListByCaseCalls() []struct {
	Ctx    context.Context
	CaseID string
} {
	var calls []struct {
		Ctx    context.Context
		CaseID string
	}
	mock.lockListByCase.RLock()
	calls = mock.calls.ListByCase
	mock.lockListByCase.RUnlock()
	return calls
}
