package registry

import (
	"context"
	"sync"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

var _ custodyLedger = &custodyLedgerMock{}

type custodyLedgerMock struct {
	AppendGenesisFunc  func(ctx context.Context, evidenceID string, initialHolder string, contentHash string) (domain.CustodyEvent, error)
	AppendTransferFunc func(ctx context.Context, evidenceID string, toParty string, reason string, assertedHash string) (domain.CustodyEvent, error)

	calls struct {
		AppendGenesis []struct {
			Ctx           context.Context
			EvidenceID    string
			InitialHolder string
			ContentHash   string
		}
		AppendTransfer []struct {
			Ctx          context.Context
			EvidenceID   string
			ToParty      string
			Reason       string
			AssertedHash string
		}
	}
	lockAppendGenesis  sync.RWMutex
	lockAppendTransfer sync.RWMutex
}

func (mock *custodyLedgerMock) AppendGenesis(ctx context.Context, evidenceID string, initialHolder string, contentHash string) (domain.CustodyEvent, error) {
	if mock.AppendGenesisFunc == nil {
		panic("custodyLedgerMock.AppendGenesisFunc: method is nil but custodyLedger.AppendGenesis was just called")
	}
	callInfo := struct {
		Ctx           context.Context
		EvidenceID    string
		InitialHolder string
		ContentHash   string
	}{
		Ctx:           ctx,
		EvidenceID:    evidenceID,
		InitialHolder: initialHolder,
		ContentHash:   contentHash,
	}
	mock.lockAppendGenesis.Lock()
	mock.calls.AppendGenesis = append(mock.calls.AppendGenesis, callInfo)
	mock.lockAppendGenesis.Unlock()
	return mock.AppendGenesisFunc(ctx, evidenceID, initialHolder, contentHash)
}

func (mock *custodyLedgerMock) AppendGenesisCalls() []struct {
	Ctx           context.Context
	EvidenceID    string
	InitialHolder string
	ContentHash   string
} {
	var calls []struct {
		Ctx           context.Context
		EvidenceID    string
		InitialHolder string
		ContentHash   string
	}
	mock.lockAppendGenesis.RLock()
	calls = mock.calls.AppendGenesis
	mock.lockAppendGenesis.RUnlock()
	return calls
}

func (mock *custodyLedgerMock) AppendTransfer(ctx context.Context, evidenceID string, toParty string, reason string, assertedHash string) (domain.CustodyEvent, error) {
	if mock.AppendTransferFunc == nil {
		panic("custodyLedgerMock.AppendTransferFunc: method is nil but custodyLedger.AppendTransfer was just called")
	}
	callInfo := struct {
		Ctx          context.Context
		EvidenceID   string
		ToParty      string
		Reason       string
		AssertedHash string
	}{
		Ctx:          ctx,
		EvidenceID:   evidenceID,
		ToParty:      toParty,
		Reason:       reason,
		AssertedHash: assertedHash,
	}
	mock.lockAppendTransfer.Lock()
	mock.calls.AppendTransfer = append(mock.calls.AppendTransfer, callInfo)
	mock.lockAppendTransfer.Unlock()
	return mock.AppendTransferFunc(ctx, evidenceID, toParty, reason, assertedHash)
}

func (mock *custodyLedgerMock) AppendTransferCalls() []struct {
	Ctx          context.Context
	EvidenceID   string
	ToParty      string
	Reason       string
	AssertedHash string
} {
	var calls []struct {
		Ctx          context.Context
		EvidenceID   string
		ToParty      string
		Reason       string
		AssertedHash string
	}
	mock.lockAppendTransfer.RLock()
	calls = mock.calls.AppendTransfer
	mock.lockAppendTransfer.RUnlock()
	return calls
}
