//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"registrar/internal/voter/store"
	"registrar/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	storeContractSuite
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	pg := store.NewPostgres(s.postgres.DB)
	s.Require().NoError(pg.EnsureSchema(context.Background()))
	s.store = pg
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "voters"))
}

func (s *PostgresStoreSuite) TestEnsureSchemaIsIdempotent() {
	pg := store.NewPostgres(s.postgres.DB)
	s.Require().NoError(pg.EnsureSchema(context.Background()))
	s.Require().NoError(pg.Health(context.Background()))
}
