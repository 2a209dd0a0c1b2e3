// Package cache decorates a KYC store with a Redis read-through cache.
//
// Verification status is read-mostly and does not need to be
// millisecond-fresh (unlike cumulative totals, which are never cached), so a
// short TTL keeps registry load off the hot evaluation path. Cache failures
// degrade to the backing store rather than failing the lookup.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"fecgate/internal/kyc"
	kycmetrics "fecgate/internal/kyc/metrics"
	id "fecgate/pkg/domain"
	"fecgate/pkg/platform/circuit"
)

const statusKeyPrefix = "kyc:status:"

// Store wraps a kyc.Store with Redis caching of Status lookups. A circuit
// breaker stops hammering Redis during an outage; while it is open, lookups
// go straight to the backing store.
type Store struct {
	next    kyc.Store
	client  *redis.Client
	ttl     time.Duration
	metrics *kycmetrics.Metrics
	breaker *circuit.Breaker
}

// Option configures the cache.
type Option func(*Store)

// WithMetrics sets the metrics collector used for hit/miss counters.
func WithMetrics(m *kycmetrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New wraps next with a Redis cache. A nil client disables caching and
// returns next unchanged.
func New(next kyc.Store, client *redis.Client, ttl time.Duration, opts ...Option) kyc.Store {
	if client == nil {
		return next
	}
	s := &Store{
		next:    next,
		client:  client,
		ttl:     ttl,
		breaker: circuit.New("kyc-cache", circuit.WithFailureThreshold(3)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Status(ctx context.Context, contributorID id.ContributorID) (kyc.Status, error) {
	if s.breaker.IsOpen() {
		s.metrics.IncrementCache("bypass")
		status, err := s.next.Status(ctx, contributorID)
		if err == nil {
			// Ping the cache on the side so the breaker can close again.
			if pingErr := s.client.Ping(ctx).Err(); pingErr == nil {
				s.breaker.RecordSuccess()
			}
		}
		return status, err
	}

	key := statusKeyPrefix + contributorID.String()

	cached, err := s.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		s.breaker.RecordSuccess()
		if status, ok := decodeStatus(contributorID, cached); ok {
			s.metrics.IncrementCache("hit")
			return status, nil
		}
		// Unparseable value: fall through to the store and overwrite.
	case errors.Is(err, redis.Nil):
		s.breaker.RecordSuccess()
	default:
		// Cache being down must not fail the lookup; the store still has
		// the truth.
		s.breaker.RecordFailure()
		s.metrics.IncrementCache("bypass")
		return s.next.Status(ctx, contributorID)
	}

	s.metrics.IncrementCache("miss")
	status, err := s.next.Status(ctx, contributorID)
	if err != nil {
		return kyc.Status{}, err
	}

	_ = s.client.Set(ctx, key, encodeStatus(status), s.ttl).Err()
	return status, nil
}

func (s *Store) MarkVerified(ctx context.Context, contributorID id.ContributorID, at time.Time) error {
	if err := s.next.MarkVerified(ctx, contributorID, at); err != nil {
		return err
	}
	// Invalidate rather than write through: the store decides which
	// verification time wins on concurrent marks.
	_ = s.client.Del(ctx, statusKeyPrefix+contributorID.String()).Err()
	return nil
}

// Cached values are "0" (unverified) or "1:<unix-nanos>" (verified at).
func encodeStatus(status kyc.Status) string {
	if !status.Verified || status.VerifiedAt == nil {
		return "0"
	}
	return "1:" + strconv.FormatInt(status.VerifiedAt.UnixNano(), 10)
}

func decodeStatus(contributorID id.ContributorID, v string) (kyc.Status, bool) {
	if v == "0" {
		return kyc.Status{ContributorID: contributorID}, true
	}
	if len(v) > 2 && v[:2] == "1:" {
		nanos, err := strconv.ParseInt(v[2:], 10, 64)
		if err != nil {
			return kyc.Status{}, false
		}
		at := time.Unix(0, nanos).UTC()
		return kyc.Status{ContributorID: contributorID, Verified: true, VerifiedAt: &at}, true
	}
	return kyc.Status{}, false
}
