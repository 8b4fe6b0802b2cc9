package cli

import (
	"time"

	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/service/verifier"
)

type caseView struct {
	ID        string    `json:"id"         yaml:"id"`
	Title     string    `json:"title"      yaml:"title"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

func toCaseView(c domain.Case) caseView {
	return caseView{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt}
}

type evidenceView struct {
	EvidenceID       string    `json:"evidence_id"                  yaml:"evidence_id"`
	CaseID           string    `json:"case_id"                      yaml:"case_id"`
	FileName         string    `json:"file_name"                    yaml:"file_name"`
	FileSize         int64     `json:"file_size"                    yaml:"file_size"`
	MimeType         string    `json:"mime_type"                    yaml:"mime_type"`
	ContentHash      string    `json:"content_hash"                 yaml:"content_hash"`
	CurrentHolder    string    `json:"current_holder"               yaml:"current_holder"`
	Status           string    `json:"status"                       yaml:"status"`
	ParentEvidenceID string    `json:"parent_evidence_id,omitempty" yaml:"parent_evidence_id,omitempty"`
	Revision         int       `json:"revision"                     yaml:"revision"`
	CreatedAt        time.Time `json:"created_at"                   yaml:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"                   yaml:"updated_at"`
}

func toEvidenceView(r domain.EvidenceRecord) evidenceView {
	v := evidenceView{
		EvidenceID:    r.EvidenceID,
		CaseID:        r.CaseID,
		FileName:      r.FileName,
		FileSize:      r.FileSize,
		MimeType:      r.MimeType,
		ContentHash:   r.ContentHash,
		CurrentHolder: r.CurrentHolder,
		Status:        r.Status.String(),
		Revision:      r.Revision,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.ParentEvidenceID != nil {
		v.ParentEvidenceID = *r.ParentEvidenceID
	}
	return v
}

func toEvidenceViews(rs []domain.EvidenceRecord) []evidenceView {
	out := make([]evidenceView, len(rs))
	for i, r := range rs {
		out[i] = toEvidenceView(r)
	}
	return out
}

type eventView struct {
	Sequence      int64     `json:"sequence_number"           yaml:"sequence_number"`
	FromParty     string    `json:"from_party"                yaml:"from_party"`
	ToParty       string    `json:"to_party"                  yaml:"to_party"`
	Reason        string    `json:"reason"                    yaml:"reason"`
	RecordedHash  string    `json:"recorded_hash"             yaml:"recorded_hash"`
	RecordedBy    string    `json:"recorded_by"               yaml:"recorded_by"`
	PrevEventHash string    `json:"prev_event_hash,omitempty" yaml:"prev_event_hash,omitempty"`
	EventHash     string    `json:"event_hash"                yaml:"event_hash"`
	Timestamp     time.Time `json:"timestamp"                 yaml:"timestamp"`
}

func toEventViews(chain domain.Chain) []eventView {
	out := make([]eventView, 0, chain.Len())
	for _, ev := range chain.All() {
		out = append(out, eventView{
			Sequence:      ev.SequenceNumber,
			FromParty:     ev.FromParty,
			ToParty:       ev.ToParty,
			Reason:        ev.Reason,
			RecordedHash:  ev.RecordedHash,
			RecordedBy:    ev.RecordedBy,
			PrevEventHash: ev.PrevEventHash,
			EventHash:     ev.EventHash,
			Timestamp:     ev.Timestamp,
		})
	}
	return out
}

type auditView struct {
	Actor     string         `json:"actor"      yaml:"actor"`
	Action    string         `json:"action"     yaml:"action"`
	Changes   map[string]any `json:"changes"    yaml:"changes"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
}

func toAuditViews(rs []domain.AuditRecord) []auditView {
	out := make([]auditView, len(rs))
	for i, r := range rs {
		out[i] = auditView{Actor: r.Actor, Action: string(r.Action), Changes: r.Changes, CreatedAt: r.CreatedAt}
	}
	return out
}

type problemView struct {
	Sequence int64  `json:"sequence" yaml:"sequence"`
	Kind     string `json:"kind"     yaml:"kind"`
	Detail   string `json:"detail"   yaml:"detail"`
}

type reportView struct {
	EvidenceID string        `json:"evidence_id"        yaml:"evidence_id"`
	Length     int           `json:"length"             yaml:"length"`
	Intact     bool          `json:"intact"             yaml:"intact"`
	Problems   []problemView `json:"problems,omitempty" yaml:"problems,omitempty"`
}

func toReportView(r domain.ChainReport) reportView {
	v := reportView{EvidenceID: r.EvidenceID, Length: r.Length, Intact: r.Intact}
	for _, p := range r.Problems {
		v.Problems = append(v.Problems, problemView{Sequence: p.Sequence, Kind: string(p.Kind), Detail: p.Detail})
	}
	return v
}

type sweepView struct {
	Checked  int          `json:"checked"  yaml:"checked"`
	Tampered []reportView `json:"tampered" yaml:"tampered"`
}

func toSweepView(r verifier.SweepReport) sweepView {
	v := sweepView{Checked: r.Checked, Tampered: make([]reportView, 0, len(r.Tampered))}
	for _, t := range r.Tampered {
		v.Tampered = append(v.Tampered, toReportView(t))
	}
	return v
}

type resultView struct {
	EvidenceID          string    `json:"evidence_id"          yaml:"evidence_id"`
	ProvidedHash        string    `json:"provided_hash"        yaml:"provided_hash"`
	StoredHash          string    `json:"stored_hash"          yaml:"stored_hash"`
	LedgerHash          string    `json:"ledger_hash"          yaml:"ledger_hash"`
	LastSequence        int64     `json:"last_sequence"        yaml:"last_sequence"`
	IsValid             bool      `json:"is_valid"             yaml:"is_valid"`
	DiscrepancyDetected bool      `json:"discrepancy_detected" yaml:"discrepancy_detected"`
	VerifiedAt          time.Time `json:"verified_at"          yaml:"verified_at"`
}

func toResultView(r domain.VerificationResult) resultView {
	return resultView{
		EvidenceID:          r.EvidenceID,
		ProvidedHash:        r.ProvidedHash,
		StoredHash:          r.StoredHash,
		LedgerHash:          r.LedgerHash,
		LastSequence:        r.LastSequence,
		IsValid:             r.IsValid,
		DiscrepancyDetected: r.DiscrepancyDetected,
		VerifiedAt:          r.VerifiedAt,
	}
}
