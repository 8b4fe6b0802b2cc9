package domain

import (
	"fmt"
	"strings"
)

// EvidenceStatus is the lifecycle state of an evidence record.
type EvidenceStatus string

const (
	EvidenceStatusActive    EvidenceStatus = "ACTIVE"
	EvidenceStatusArchived  EvidenceStatus = "ARCHIVED"
	EvidenceStatusDestroyed EvidenceStatus = "DESTROYED"
)

func (s EvidenceStatus) String() string { return string(s) }

func (s EvidenceStatus) IsValid() bool {
	switch s {
	case EvidenceStatusActive, EvidenceStatusArchived, EvidenceStatusDestroyed:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Statuses only move forward: ACTIVE -> ARCHIVED -> DESTROYED, or ACTIVE -> DESTROYED.
func (s EvidenceStatus) CanTransitionTo(next EvidenceStatus) bool {
	switch s {
	case EvidenceStatusActive:
		return next == EvidenceStatusArchived || next == EvidenceStatusDestroyed
	case EvidenceStatusArchived:
		return next == EvidenceStatusDestroyed
	}
	return false
}

// Role is the organisational function of a party handling evidence.
type Role string

const (
	RolePolice      Role = "POLICE"
	RoleForensic    Role = "FORENSIC"
	RoleProsecution Role = "PROSECUTION"
	RoleJudicial    Role = "JUDICIAL"
	RoleAdmin       Role = "ADMIN"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	switch r {
	case RolePolice, RoleForensic, RoleProsecution, RoleJudicial, RoleAdmin:
		return true
	}
	return false
}

// CanOverrideHolder reports whether the role may record a transfer on behalf
// of a holder other than itself.
func (r Role) CanOverrideHolder() bool {
	return r == RoleAdmin
}

// ParseRole converts user input into a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", NewValidationError("role", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

// AuditAction represents the kind of mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionRegister     AuditAction = "REGISTER"
	AuditActionTransfer     AuditAction = "TRANSFER"
	AuditActionStatusChange AuditAction = "STATUS_CHANGE"
	AuditActionRevision     AuditAction = "REVISION"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionRegister, AuditActionTransfer, AuditActionStatusChange, AuditActionRevision:
		return true
	}
	return false
}

// ChainProblemKind classifies an integrity defect found in a custody chain.
type ChainProblemKind string

const (
	ChainProblemSequenceGap   ChainProblemKind = "SEQUENCE_GAP"
	ChainProblemGenesis       ChainProblemKind = "BAD_GENESIS"
	ChainProblemContinuity    ChainProblemKind = "CONTINUITY_BREAK"
	ChainProblemLinkMismatch  ChainProblemKind = "LINK_MISMATCH"
	ChainProblemHashMismatch  ChainProblemKind = "EVENT_HASH_MISMATCH"
	ChainProblemContentDrift  ChainProblemKind = "CONTENT_HASH_DRIFT"
	ChainProblemHolderDrift   ChainProblemKind = "HOLDER_DRIFT"
	ChainProblemRegistryDrift ChainProblemKind = "REGISTRY_HASH_DRIFT"
)

func (k ChainProblemKind) String() string { return string(k) }
