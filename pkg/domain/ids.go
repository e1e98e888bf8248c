// Package domain holds small, dependency-free value types shared across the
// analyzer: typed identifiers and enums that would otherwise be passed
// around as bare strings or uuid.UUID.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/ltdomains/domain-analyzer/pkg/domainerrors"
)

// DomainID identifies a row in the store's domain table. It is a distinct
// type from TaskID so the compiler rejects accidental swaps at call sites.
type DomainID uuid.UUID

// TaskID identifies one orchestrator run over a single domain.
type TaskID uuid.UUID

// NewDomainID generates a fresh, random DomainID.
func NewDomainID() DomainID { return DomainID(uuid.New()) }

// NewTaskID generates a fresh, random TaskID.
func NewTaskID() TaskID { return TaskID(uuid.New()) }

// ParseDomainID validates and constructs a DomainID from external input.
func ParseDomainID(s string) (DomainID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return DomainID{}, err
	}
	return DomainID(u), nil
}

// ParseTaskID validates and constructs a TaskID from external input.
func ParseTaskID(s string) (TaskID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return TaskID{}, err
	}
	return TaskID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be nil")
	}
	return u, nil
}

func (id DomainID) String() string { return uuid.UUID(id).String() }
func (id TaskID) String() string   { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero-value UUID.
func (id DomainID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TaskID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
