// Package store defines the narrow persistence contract the orchestrator
// depends on (spec.md §4.12): four methods, no ORM, no transaction leakage
// into the caller.
package store

import (
	"context"
	"time"

	"github.com/ltdomains/domain-analyzer/pkg/domain"
)

// Tristate models a tri-state boolean flag: unknown, true, or false.
type Tristate int

const (
	TristateUnknown Tristate = iota
	TristateTrue
	TristateFalse
)

// FlagUpdate carries the optional flag values an orchestrator transition
// may write; a nil pointer means "leave unchanged".
type FlagUpdate struct {
	IsRegistered *bool
	IsActive     *bool
}

// DomainRecord is one row of the domains table.
type DomainRecord struct {
	ID           domain.DomainID
	Name         string // normalized, lowercase, punycoded
	IsRegistered Tristate
	IsActive     Tristate
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResultRecord is one row of the results table: one per orchestrator run
// for a domain. Data is treated as an opaque structured blob by the store.
type ResultRecord struct {
	DomainID          domain.DomainID
	TaskID            domain.TaskID
	Status            string // success | partial | skipped
	SkipReason        string
	ProfilesRequested []string
	ProfilesExecuted  []string
	Data              map[string]any
	CreatedAt         time.Time
}

// DiscoveryRecord is one row of the discovery table: append-only, one per
// capture event (not deduplicated — unlike the domains table itself).
type DiscoveryRecord struct {
	Name           string
	DiscoveredFrom string
	Method         string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// Store is the orchestrator's entire persistence dependency.
type Store interface {
	// GetOrCreateDomain returns the domain_id for name, creating a row if
	// none exists yet. name is normalized/punycoded by the caller; the
	// store enforces case-insensitive uniqueness.
	GetOrCreateDomain(ctx context.Context, name string) (domain.DomainID, error)

	// UpdateDomainFlags writes whichever of update's fields are non-nil,
	// leaving the rest untouched, and refreshes updated_at.
	UpdateDomainFlags(ctx context.Context, id domain.DomainID, update FlagUpdate) error

	// SaveResult inserts a new results row; it never updates or deletes a
	// prior row for the same domain (idempotence is per-scan, not
	// per-domain).
	SaveResult(ctx context.Context, domainID domain.DomainID, taskID domain.TaskID, result ResultRecord) error

	// InsertCapturedDomain records a discovery event unconditionally and
	// upserts the captured domain's row. inserted reports whether the
	// domain row was newly created (false if it already existed).
	InsertCapturedDomain(ctx context.Context, name, discoveredFrom, method string, metadata map[string]any) (inserted bool, err error)
}
