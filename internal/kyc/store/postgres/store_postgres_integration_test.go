//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "fecgate/pkg/domain"
	"fecgate/pkg/testutil/containers"
)

const schema = `
CREATE TABLE IF NOT EXISTS kyc_verifications (
    contributor_id TEXT PRIMARY KEY,
    verified_at    TIMESTAMPTZ NOT NULL
);
`

type PostgresKYCSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *Store
}

func TestPostgresKYCSuite(t *testing.T) {
	suite.Run(t, new(PostgresKYCSuite))
}

func (s *PostgresKYCSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.Exec(s.T(), schema)
	s.store = New(s.pg.DB)
}

func (s *PostgresKYCSuite) TearDownSuite() {
	_ = s.pg.DB.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *PostgresKYCSuite) SetupTest() {
	s.pg.Exec(s.T(), `TRUNCATE kyc_verifications`)
}

func (s *PostgresKYCSuite) TestUnknownContributorIsUnverified() {
	contributorID, err := id.ParseContributorID("donor-unknown")
	s.Require().NoError(err)

	status, err := s.store.Status(context.Background(), contributorID)
	s.Require().NoError(err)
	s.False(status.Verified)
	s.Nil(status.VerifiedAt)
}

func (s *PostgresKYCSuite) TestMarkVerifiedRoundTrip() {
	contributorID, err := id.ParseContributorID("donor-verified")
	s.Require().NoError(err)
	at := time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)

	s.Require().NoError(s.store.MarkVerified(context.Background(), contributorID, at))

	status, err := s.store.Status(context.Background(), contributorID)
	s.Require().NoError(err)
	s.True(status.Verified)
	s.Require().NotNil(status.VerifiedAt)
	s.True(status.VerifiedAt.Equal(at))
}

func (s *PostgresKYCSuite) TestMarkVerifiedIdempotentKeepsFirstTime() {
	contributorID, err := id.ParseContributorID("donor-repeat")
	s.Require().NoError(err)
	first := time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)

	s.Require().NoError(s.store.MarkVerified(context.Background(), contributorID, first))
	s.Require().NoError(s.store.MarkVerified(context.Background(), contributorID, first.Add(72*time.Hour)))

	status, err := s.store.Status(context.Background(), contributorID)
	s.Require().NoError(err)
	s.Require().NotNil(status.VerifiedAt)
	s.True(status.VerifiedAt.Equal(first))
}
