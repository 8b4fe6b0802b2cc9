package registry

import (
	"strings"

	"github.com/heartmarshall/ndep-backend/internal/domain"
	"github.com/heartmarshall/ndep-backend/internal/hashing"
)

const (
	maxFileNameLen = 255
	maxMimeTypeLen = 127
	maxPartyLen    = 128
	maxReasonLen   = 2000
	maxCaseIDLen   = 64
	maxTitleLen    = 500

	invalidTextMsg = "must be valid UTF-8 without NUL bytes"

	defaultMimeType     = "application/octet-stream"
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// RegisterInput holds the parameters for registering a new evidence item.
// At least one of Payload and ContentHash must be set. When both are, the
// hash must match the payload.
type RegisterInput struct {
	CaseID      string
	FileName    string
	FileSize    int64
	MimeType    string
	Payload     []byte
	ContentHash string
	CollectedBy string
}

// Validate checks all fields and collects all errors.
func (i *RegisterInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.CaseID) == "" {
		errs = append(errs, domain.FieldError{Field: "case_id", Message: "required"})
	}
	errs = append(errs, validateFile(i.FileName, i.FileSize, i.MimeType, i.Payload, i.ContentHash)...)
	errs = append(errs, validateParty("collected_by", i.CollectedBy)...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// TransferInput holds the parameters for a custody transfer. ExpectedHolder
// is optional: when set, the transfer only succeeds if that party still holds
// the item once it is locked.
type TransferInput struct {
	EvidenceID     string
	ToParty        string
	Reason         string
	ExpectedHolder string
}

// Validate checks the fields the ledger does not check itself.
func (i *TransferInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.EvidenceID) == "" {
		errs = append(errs, domain.FieldError{Field: "evidence_id", Message: "required"})
	}
	if len(i.ToParty) > maxPartyLen {
		errs = append(errs, domain.FieldError{Field: "to_party", Message: "too long (max 128)"})
	} else if !domain.IsStorableText(i.ToParty) {
		errs = append(errs, domain.FieldError{Field: "to_party", Message: invalidTextMsg})
	}
	if len(i.Reason) > maxReasonLen {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "too long (max 2000)"})
	} else if !domain.IsStorableText(i.Reason) {
		errs = append(errs, domain.FieldError{Field: "reason", Message: invalidTextMsg})
	}
	if !domain.IsStorableText(i.ExpectedHolder) {
		errs = append(errs, domain.FieldError{Field: "expected_holder", Message: invalidTextMsg})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// StatusInput holds the parameters for a status change.
type StatusInput struct {
	EvidenceID string
	Status     domain.EvidenceStatus
	Reason     string
}

// Validate checks all fields and collects all errors.
func (i *StatusInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.EvidenceID) == "" {
		errs = append(errs, domain.FieldError{Field: "evidence_id", Message: "required"})
	}
	if !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "must be ACTIVE, ARCHIVED or DESTROYED"})
	}
	errs = append(errs, validateReason(i.Reason)...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// RevisionInput holds the parameters for registering modified content of an
// existing evidence item.
type RevisionInput struct {
	ParentID    string
	FileName    string
	FileSize    int64
	MimeType    string
	Payload     []byte
	ContentHash string
	Reason      string
}

// Validate checks all fields and collects all errors.
func (i *RevisionInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.ParentID) == "" {
		errs = append(errs, domain.FieldError{Field: "parent_id", Message: "required"})
	}
	errs = append(errs, validateFile(i.FileName, i.FileSize, i.MimeType, i.Payload, i.ContentHash)...)
	errs = append(errs, validateReason(i.Reason)...)

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// CreateCaseInput holds the parameters for opening a case.
type CreateCaseInput struct {
	ID    string
	Title string
}

// Validate checks all fields and collects all errors.
func (i *CreateCaseInput) Validate() error {
	var errs []domain.FieldError

	id := strings.TrimSpace(i.ID)
	if id == "" {
		errs = append(errs, domain.FieldError{Field: "id", Message: "required"})
	} else if len(id) > maxCaseIDLen {
		errs = append(errs, domain.FieldError{Field: "id", Message: "too long (max 64)"})
	} else if !domain.IsStorableText(id) {
		errs = append(errs, domain.FieldError{Field: "id", Message: invalidTextMsg})
	}
	if len(i.Title) > maxTitleLen {
		errs = append(errs, domain.FieldError{Field: "title", Message: "too long (max 500)"})
	} else if !domain.IsStorableText(i.Title) {
		errs = append(errs, domain.FieldError{Field: "title", Message: invalidTextMsg})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Shared field rules
// ---------------------------------------------------------------------------

func validateFile(name string, size int64, mime string, payload []byte, hash string) []domain.FieldError {
	var errs []domain.FieldError

	if strings.TrimSpace(name) == "" {
		errs = append(errs, domain.FieldError{Field: "file_name", Message: "required"})
	} else if len(name) > maxFileNameLen {
		errs = append(errs, domain.FieldError{Field: "file_name", Message: "too long (max 255)"})
	} else if !domain.IsStorableText(name) {
		errs = append(errs, domain.FieldError{Field: "file_name", Message: invalidTextMsg})
	}
	if size < 0 {
		errs = append(errs, domain.FieldError{Field: "file_size", Message: "must not be negative"})
	} else if payload != nil && size != 0 && size != int64(len(payload)) {
		errs = append(errs, domain.FieldError{Field: "file_size", Message: "does not match payload length"})
	}
	if len(mime) > maxMimeTypeLen {
		errs = append(errs, domain.FieldError{Field: "mime_type", Message: "too long (max 127)"})
	} else if !domain.IsStorableText(mime) {
		errs = append(errs, domain.FieldError{Field: "mime_type", Message: invalidTextMsg})
	}

	switch {
	case payload == nil && hash == "":
		errs = append(errs, domain.FieldError{Field: "content_hash", Message: "payload or content hash required"})
	case hash != "" && !hashing.ValidHex(hash):
		errs = append(errs, domain.FieldError{Field: "content_hash", Message: "must be 64 hex characters"})
	}

	return errs
}

func validateParty(field, party string) []domain.FieldError {
	switch p := strings.TrimSpace(party); {
	case p == "":
		return []domain.FieldError{{Field: field, Message: "required"}}
	case p == domain.SystemParty:
		return []domain.FieldError{{Field: field, Message: "reserved party name"}}
	case len(p) > maxPartyLen:
		return []domain.FieldError{{Field: field, Message: "too long (max 128)"}}
	case !domain.IsStorableText(p):
		return []domain.FieldError{{Field: field, Message: invalidTextMsg}}
	}
	return nil
}

func validateReason(reason string) []domain.FieldError {
	switch {
	case strings.TrimSpace(reason) == "":
		return []domain.FieldError{{Field: "reason", Message: "required"}}
	case len(reason) > maxReasonLen:
		return []domain.FieldError{{Field: "reason", Message: "too long (max 2000)"}}
	case !domain.IsStorableText(reason):
		return []domain.FieldError{{Field: "reason", Message: invalidTextMsg}}
	}
	return nil
}
