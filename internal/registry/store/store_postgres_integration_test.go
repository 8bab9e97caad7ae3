//go:build integration

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"attestry/internal/registry/models"
	id "attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
	"attestry/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *containers.PostgresContainer
	store     *Postgres
	ctx       context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.container = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(EnsureSchema(s.ctx, s.container.DB))
	s.store = NewPostgres(s.container.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.container.TruncateTables(s.ctx, "identity_records"))
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	record := &models.IdentityRecord{Principal: id.NewPrincipalID(), Name: "Jane Roe"}
	s.Require().NoError(s.store.Create(s.ctx, record))

	found, err := s.store.Find(s.ctx, record.Principal)
	s.Require().NoError(err)
	s.Equal("Jane Roe", found.Name)
	s.False(found.Verified)
	s.Equal(int64(0), found.AttestedAt)
	s.True(found.AttestedBy.IsZero())

	s.Run("empty name round-trips", func() {
		anon := &models.IdentityRecord{Principal: id.NewPrincipalID()}
		s.Require().NoError(s.store.Create(s.ctx, anon))
		found, err := s.store.Find(s.ctx, anon.Principal)
		s.Require().NoError(err)
		s.Equal("", found.Name)
	})

	s.Run("unknown principal", func() {
		_, err := s.store.Find(s.ctx, id.NewPrincipalID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestCreateConflict() {
	record := &models.IdentityRecord{Principal: id.NewPrincipalID(), Name: "first"}
	s.Require().NoError(s.store.Create(s.ctx, record))

	err := s.store.Create(s.ctx, &models.IdentityRecord{Principal: record.Principal, Name: "second"})
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

	found, err := s.store.Find(s.ctx, record.Principal)
	s.Require().NoError(err)
	s.Equal("first", found.Name)
}

func (s *PostgresStoreSuite) TestAttest() {
	record := &models.IdentityRecord{Principal: id.NewPrincipalID(), Name: "target"}
	s.Require().NoError(s.store.Create(s.ctx, record))

	attester := id.NewPrincipalID()
	s.Require().NoError(s.store.Attest(s.ctx, record.Principal, models.Attestation{
		AttestedAt: 1700000000, AttestedBy: attester,
	}))

	found, err := s.store.Find(s.ctx, record.Principal)
	s.Require().NoError(err)
	s.True(found.Verified)
	s.Equal(int64(1700000000), found.AttestedAt)
	s.Equal(attester, found.AttestedBy)

	s.Run("re-attestation overwrites", func() {
		later := id.NewPrincipalID()
		s.Require().NoError(s.store.Attest(s.ctx, record.Principal, models.Attestation{
			AttestedAt: 1700000100, AttestedBy: later,
		}))
		found, err := s.store.Find(s.ctx, record.Principal)
		s.Require().NoError(err)
		s.Equal(int64(1700000100), found.AttestedAt)
		s.Equal(later, found.AttestedBy)
	})

	s.Run("unregistered target", func() {
		err := s.store.Attest(s.ctx, id.NewPrincipalID(), models.Attestation{
			AttestedAt: 1, AttestedBy: attester,
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestConcurrentCreateSingleWinner() {
	principal := id.NewPrincipalID()
	const workers = 16

	var wg sync.WaitGroup
	var successes atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(s.ctx, &models.IdentityRecord{Principal: principal, Name: "racer"})
			if err == nil {
				successes.Add(1)
			} else if !errors.Is(err, sentinel.ErrAlreadyUsed) {
				s.T().Error(err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
}
