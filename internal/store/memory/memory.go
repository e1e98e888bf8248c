// Package memory implements store.Store with an in-process, mutex-guarded
// map. Intended for tests and single-process deployments.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ltdomains/domain-analyzer/internal/store"
	"github.com/ltdomains/domain-analyzer/pkg/domain"
	dErrors "github.com/ltdomains/domain-analyzer/pkg/domainerrors"
)

func domainNotFound(id domain.DomainID) error {
	return dErrors.Newf(dErrors.CodeStoreError, "domain %s not found", id.String())
}

// Store is an in-memory store.Store implementation.
type Store struct {
	mu sync.Mutex

	domainsByName map[string]*store.DomainRecord
	domainsByID   map[domain.DomainID]*store.DomainRecord
	results       []store.ResultRecord
	discoveries   []store.DiscoveryRecord

	now func() time.Time
}

// New builds an empty Store.
func New() *Store {
	return &Store{
		domainsByName: make(map[string]*store.DomainRecord),
		domainsByID:   make(map[domain.DomainID]*store.DomainRecord),
		now:           time.Now,
	}
}

func (s *Store) GetOrCreateDomain(_ context.Context, name string) (domain.DomainID, error) {
	key := strings.ToLower(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.domainsByName[key]; ok {
		return existing.ID, nil
	}

	id := domain.NewDomainID()
	now := s.now()
	record := &store.DomainRecord{
		ID:        id,
		Name:      key,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.domainsByName[key] = record
	s.domainsByID[id] = record
	return id, nil
}

func (s *Store) UpdateDomainFlags(_ context.Context, id domain.DomainID, update store.FlagUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.domainsByID[id]
	if !ok {
		return domainNotFound(id)
	}

	if update.IsRegistered != nil {
		record.IsRegistered = boolToTristate(*update.IsRegistered)
	}
	if update.IsActive != nil {
		record.IsActive = boolToTristate(*update.IsActive)
	}
	record.UpdatedAt = s.now()
	return nil
}

func (s *Store) SaveResult(_ context.Context, domainID domain.DomainID, taskID domain.TaskID, result store.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result.DomainID = domainID
	result.TaskID = taskID
	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.now()
	}
	s.results = append(s.results, result)
	return nil
}

func (s *Store) InsertCapturedDomain(_ context.Context, name, discoveredFrom, method string, metadata map[string]any) (bool, error) {
	key := strings.ToLower(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.discoveries = append(s.discoveries, store.DiscoveryRecord{
		Name:           key,
		DiscoveredFrom: discoveredFrom,
		Method:         method,
		Metadata:       metadata,
		CreatedAt:      now,
	})

	if _, ok := s.domainsByName[key]; ok {
		return false, nil
	}

	id := domain.NewDomainID()
	record := &store.DomainRecord{ID: id, Name: key, CreatedAt: now, UpdatedAt: now}
	s.domainsByName[key] = record
	s.domainsByID[id] = record
	return true, nil
}

// Results returns a snapshot of all saved result rows, for test assertions.
func (s *Store) Results() []store.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.ResultRecord, len(s.results))
	copy(out, s.results)
	return out
}

// Discoveries returns a snapshot of all discovery rows, for test assertions.
func (s *Store) Discoveries() []store.DiscoveryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.DiscoveryRecord, len(s.discoveries))
	copy(out, s.discoveries)
	return out
}

// Domain returns a snapshot of one domain's row, for test assertions.
func (s *Store) Domain(id domain.DomainID) (store.DomainRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.domainsByID[id]
	if !ok {
		return store.DomainRecord{}, false
	}
	return *record, true
}

func boolToTristate(b bool) store.Tristate {
	if b {
		return store.TristateTrue
	}
	return store.TristateFalse
}
