package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ltdomains/domain-analyzer/internal/store"
	"github.com/ltdomains/domain-analyzer/pkg/domain"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) TestGetOrCreateDomain_CreatesThenReuses() {
	id1, err := s.store.GetOrCreateDomain(s.ctx, "Example.LT")
	s.Require().NoError(err)

	id2, err := s.store.GetOrCreateDomain(s.ctx, "example.lt")
	s.Require().NoError(err)

	s.Equal(id1, id2, "case-insensitive lookup must return the same domain id")
}

func (s *MemoryStoreSuite) TestUpdateDomainFlags_PartialUpdateLeavesOtherFieldUnchanged() {
	id, err := s.store.GetOrCreateDomain(s.ctx, "example.lt")
	s.Require().NoError(err)

	registered := true
	s.Require().NoError(s.store.UpdateDomainFlags(s.ctx, id, store.FlagUpdate{IsRegistered: &registered}))

	record, ok := s.store.Domain(id)
	s.Require().True(ok)
	s.Equal(store.TristateTrue, record.IsRegistered)
	s.Equal(store.TristateUnknown, record.IsActive)

	active := false
	s.Require().NoError(s.store.UpdateDomainFlags(s.ctx, id, store.FlagUpdate{IsActive: &active}))

	record, _ = s.store.Domain(id)
	s.Equal(store.TristateTrue, record.IsRegistered, "unrelated flag update must not reset prior value")
	s.Equal(store.TristateFalse, record.IsActive)
}

func (s *MemoryStoreSuite) TestUpdateDomainFlags_UnknownDomainErrors() {
	err := s.store.UpdateDomainFlags(s.ctx, domain.NewDomainID(), store.FlagUpdate{})
	s.Require().Error(err)
}

func (s *MemoryStoreSuite) TestSaveResult_AppendsRatherThanReplaces() {
	id, _ := s.store.GetOrCreateDomain(s.ctx, "example.lt")
	taskID := domain.NewTaskID()

	s.Require().NoError(s.store.SaveResult(s.ctx, id, taskID, store.ResultRecord{Status: "success"}))
	s.Require().NoError(s.store.SaveResult(s.ctx, id, taskID, store.ResultRecord{Status: "partial"}))

	results := s.store.Results()
	s.Len(results, 2, "re-running for the same domain must not delete prior history")
}

func (s *MemoryStoreSuite) TestInsertCapturedDomain_IdempotentByNameButDiscoveryIsAppendOnly() {
	inserted1, err := s.store.InsertCapturedDomain(s.ctx, "augalyn.lt", "gyvigali.lt", "redirect", nil)
	s.Require().NoError(err)
	s.True(inserted1)

	inserted2, err := s.store.InsertCapturedDomain(s.ctx, "augalyn.lt", "other.lt", "redirect", nil)
	s.Require().NoError(err)
	s.False(inserted2, "second insert of the same name must not create a duplicate domain row")

	discoveries := s.store.Discoveries()
	s.Len(discoveries, 2, "discovery rows are append-only regardless of domain-row idempotence")
}
