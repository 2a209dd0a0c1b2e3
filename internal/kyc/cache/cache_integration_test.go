//go:build integration

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fecgate/internal/kyc"
	kycmemory "fecgate/internal/kyc/store/memory"
	id "fecgate/pkg/domain"
	"fecgate/pkg/testutil/containers"
)

// countingStore wraps the memory store and counts backing reads so cache hits
// are observable.
type countingStore struct {
	kyc.Store
	mu    sync.Mutex
	reads int
}

func (c *countingStore) Status(ctx context.Context, contributorID id.ContributorID) (kyc.Status, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.Store.Status(ctx, contributorID)
}

func (c *countingStore) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

type RedisCacheSuite struct {
	suite.Suite

	redis   *containers.RedisContainer
	backing *countingStore
	cached  kyc.Store
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisCacheSuite) TearDownSuite() {
	_ = s.redis.Client.Close()
	_ = s.redis.Container.Terminate(context.Background())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backing = &countingStore{Store: kycmemory.New()}
	s.cached = New(s.backing, s.redis.Client, time.Minute)
}

func (s *RedisCacheSuite) TestSecondLookupServedFromCache() {
	contributorID, err := id.ParseContributorID("donor-cache")
	s.Require().NoError(err)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.backing.MarkVerified(context.Background(), contributorID, at))

	for range 3 {
		status, err := s.cached.Status(context.Background(), contributorID)
		s.Require().NoError(err)
		s.True(status.Verified)
		s.Require().NotNil(status.VerifiedAt)
		s.True(status.VerifiedAt.Equal(at))
	}

	s.Equal(1, s.backing.readCount(), "only the first lookup should reach the store")
}

func (s *RedisCacheSuite) TestUnverifiedStatusIsCachedToo() {
	contributorID, err := id.ParseContributorID("donor-nobody")
	s.Require().NoError(err)

	for range 2 {
		status, err := s.cached.Status(context.Background(), contributorID)
		s.Require().NoError(err)
		s.False(status.Verified)
	}
	s.Equal(1, s.backing.readCount())
}

func (s *RedisCacheSuite) TestMarkVerifiedInvalidatesCachedStatus() {
	contributorID, err := id.ParseContributorID("donor-flip")
	s.Require().NoError(err)

	// Prime the cache with "unverified".
	status, err := s.cached.Status(context.Background(), contributorID)
	s.Require().NoError(err)
	s.False(status.Verified)

	at := time.Now().UTC().Truncate(time.Second)
	s.Require().NoError(s.cached.MarkVerified(context.Background(), contributorID, at))

	status, err = s.cached.Status(context.Background(), contributorID)
	s.Require().NoError(err)
	s.True(status.Verified, "stale unverified status must not survive verification")
}
