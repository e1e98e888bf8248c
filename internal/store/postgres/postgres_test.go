//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ltdomains/domain-analyzer/internal/store"
	"github.com/ltdomains/domain-analyzer/pkg/domain"
	"github.com/ltdomains/domain-analyzer/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = New(s.pg.DB)
	s.ctx = context.Background()
	s.Require().NoError(s.store.Migrate(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "discoveries", "results", "domains"))
}

func (s *PostgresStoreSuite) TestGetOrCreateDomain_CreatesThenReuses() {
	id1, err := s.store.GetOrCreateDomain(s.ctx, "Example.LT")
	s.Require().NoError(err)

	id2, err := s.store.GetOrCreateDomain(s.ctx, "example.lt")
	s.Require().NoError(err)

	s.Equal(id1, id2)
}

func (s *PostgresStoreSuite) TestUpdateDomainFlags_PartialUpdateLeavesOtherFieldUnchanged() {
	id, err := s.store.GetOrCreateDomain(s.ctx, "example.lt")
	s.Require().NoError(err)

	registered := true
	s.Require().NoError(s.store.UpdateDomainFlags(s.ctx, id, store.FlagUpdate{IsRegistered: &registered}))

	active := false
	s.Require().NoError(s.store.UpdateDomainFlags(s.ctx, id, store.FlagUpdate{IsActive: &active}))

	var isRegistered, isActive int
	err = s.pg.DB.QueryRowContext(s.ctx, "SELECT is_registered, is_active FROM domains WHERE id = $1", id).
		Scan(&isRegistered, &isActive)
	s.Require().NoError(err)
	s.Equal(int(store.TristateTrue), isRegistered)
	s.Equal(int(store.TristateFalse), isActive)
}

func (s *PostgresStoreSuite) TestUpdateDomainFlags_UnknownDomainErrors() {
	err := s.store.UpdateDomainFlags(s.ctx, domain.NewDomainID(), store.FlagUpdate{})
	s.Require().NoError(err, "no-op update never touches storage, so it cannot fail on a missing row")

	registered := true
	err = s.store.UpdateDomainFlags(s.ctx, domain.NewDomainID(), store.FlagUpdate{IsRegistered: &registered})
	s.Require().Error(err)
}

func (s *PostgresStoreSuite) TestSaveResult_AppendsRatherThanReplaces() {
	id, err := s.store.GetOrCreateDomain(s.ctx, "example.lt")
	s.Require().NoError(err)
	taskID := domain.NewTaskID()

	s.Require().NoError(s.store.SaveResult(s.ctx, id, taskID, store.ResultRecord{Status: "success"}))
	s.Require().NoError(s.store.SaveResult(s.ctx, id, taskID, store.ResultRecord{Status: "partial"}))

	var count int
	err = s.pg.DB.QueryRowContext(s.ctx, "SELECT COUNT(*) FROM results WHERE domain_id = $1", id).Scan(&count)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *PostgresStoreSuite) TestInsertCapturedDomain_IdempotentByNameButDiscoveryIsAppendOnly() {
	inserted1, err := s.store.InsertCapturedDomain(s.ctx, "augalyn.lt", "gyvigali.lt", "redirect", nil)
	s.Require().NoError(err)
	s.True(inserted1)

	inserted2, err := s.store.InsertCapturedDomain(s.ctx, "augalyn.lt", "other.lt", "redirect", nil)
	s.Require().NoError(err)
	s.False(inserted2)

	var domainCount, discoveryCount int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx, "SELECT COUNT(*) FROM domains WHERE name = $1", "augalyn.lt").Scan(&domainCount))
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx, "SELECT COUNT(*) FROM discoveries WHERE name = $1", "augalyn.lt").Scan(&discoveryCount))
	s.Equal(1, domainCount)
	s.Equal(2, discoveryCount)
}
