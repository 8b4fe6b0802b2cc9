package registry

import (
	"context"
	"sync"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

var _ auditLogger = &auditLoggerMock{}

type auditLoggerMock struct {
	GetByEvidenceFunc func(ctx context.Context, evidenceID string, limit int) ([]domain.AuditRecord, error)
	LogFunc           func(ctx context.Context, record domain.AuditRecord) error

	calls struct {
		GetByEvidence []struct {
			Ctx        context.Context
			EvidenceID string
			Limit      int
		}
		Log []struct {
			Ctx    context.Context
			Record domain.AuditRecord
		}
	}
	lockGetByEvidence sync.RWMutex
	lockLog           sync.RWMutex
}

func (mock *auditLoggerMock) GetByEvidence(ctx context.Context, evidenceID string, limit int) ([]domain.AuditRecord, error) {
	if mock.GetByEvidenceFunc == nil {
		panic("auditLoggerMock.GetByEvidenceFunc: method is nil but auditLogger.GetByEvidence was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		EvidenceID string
		Limit      int
	}{
		Ctx:        ctx,
		EvidenceID: evidenceID,
		Limit:      limit,
	}
	mock.lockGetByEvidence.Lock()
	mock.calls.GetByEvidence = append(mock.calls.GetByEvidence, callInfo)
	mock.lockGetByEvidence.Unlock()
	return mock.GetByEvidenceFunc(ctx, evidenceID, limit)
}

func (mock *auditLoggerMock) GetByEvidenceCalls() []struct {
	Ctx        context.Context
	EvidenceID string
	Limit      int
} {
	var calls []struct {
		Ctx        context.Context
		EvidenceID string
		Limit      int
	}
	mock.lockGetByEvidence.RLock()
	calls = mock.calls.GetByEvidence
	mock.lockGetByEvidence.RUnlock()
	return calls
}

func (mock *auditLoggerMock) Log(ctx context.Context, record domain.AuditRecord) error {
	if mock.LogFunc == nil {
		panic("auditLoggerMock.LogFunc: method is nil but auditLogger.Log was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		Record domain.AuditRecord
	}{
		Ctx:    ctx,
		Record: record,
	}
	mock.lockLog.Lock()
	mock.calls.Log = append(mock.calls.Log, callInfo)
	mock.lockLog.Unlock()
	return mock.LogFunc(ctx, record)
}

func (mock *auditLoggerMock) LogCalls() []struct {
	Ctx    context.Context
	Record domain.AuditRecord
} {
	var calls []struct {
		Ctx    context.Context
		Record domain.AuditRecord
	}
	mock.lockLog.RLock()
	calls = mock.calls.Log
	mock.lockLog.RUnlock()
	return calls
}
