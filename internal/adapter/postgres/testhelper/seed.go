package testhelper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/ndep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ndep-backend/internal/domain"
)

// UniqueSuffix returns a short unique string for generating non-conflicting test data.
func UniqueSuffix() string {
	return uuid.New().String()[:8]
}

// HashOf returns the lowercase SHA-256 hex digest of s.
func HashOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SeedCase inserts a case with a unique ID.
func SeedCase(t *testing.T, q postgres.Querier) domain.Case {
	t.Helper()

	c := domain.Case{
		ID:        "CASE-" + UniqueSuffix(),
		Title:     "Test case",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := q.Exec(context.Background(),
		`INSERT INTO cases (id, title, created_at) VALUES ($1, $2, $3)`,
		c.ID, c.Title, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCase: %v", err)
	}
	return c
}

// SeedEvidence inserts an ACTIVE evidence record for caseID held by holder.
// No custody events are written.
func SeedEvidence(t *testing.T, q postgres.Querier, caseID, holder string) domain.EvidenceRecord {
	t.Helper()

	suffix := UniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := domain.EvidenceRecord{
		EvidenceID:    "TEST-" + suffix,
		CaseID:        caseID,
		FileName:      "photo-" + suffix + ".jpg",
		FileSize:      1024,
		MimeType:      "image/jpeg",
		ContentHash:   HashOf("payload-" + suffix),
		CurrentHolder: holder,
		Status:        domain.EvidenceStatusActive,
		Revision:      1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := q.Exec(context.Background(),
		`INSERT INTO evidence_records
		   (evidence_id, case_id, file_name, file_size, mime_type, content_hash,
		    current_holder, status, revision, lock_version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11)`,
		rec.EvidenceID, rec.CaseID, rec.FileName, rec.FileSize, rec.MimeType, rec.ContentHash,
		rec.CurrentHolder, string(rec.Status), rec.Revision, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedEvidence: %v", err)
	}
	return rec
}
