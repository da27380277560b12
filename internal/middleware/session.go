package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"greenledger-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	principalPrefix     = "principal:"
	defaultPrincipalTTL = 5 * time.Minute
)

// PrincipalCache keeps resolved principals in Redis so each request does not hit
// the profiles table. Entries must be forgotten when a profile's org or role changes.
type PrincipalCache struct {
	Rdb *redis.Client
	TTL time.Duration
}

func (pc *PrincipalCache) ttl() time.Duration {
	if pc.TTL > 0 {
		return pc.TTL
	}
	return defaultPrincipalTTL
}

// Get returns the cached principal, or nil on a miss. A nil cache always misses.
func (pc *PrincipalCache) Get(ctx context.Context, id uuid.UUID) (*domain.Principal, error) {
	if pc == nil || pc.Rdb == nil {
		return nil, nil
	}
	b, err := pc.Rdb.Get(ctx, principalPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p domain.Principal
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, nil
	}
	return &p, nil
}

func (pc *PrincipalCache) Set(ctx context.Context, p *domain.Principal) error {
	if pc == nil || pc.Rdb == nil {
		return nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return pc.Rdb.Set(ctx, principalPrefix+p.ProfileID.String(), b, pc.ttl()).Err()
}

func (pc *PrincipalCache) Forget(ctx context.Context, id uuid.UUID) error {
	if pc == nil || pc.Rdb == nil {
		return nil
	}
	return pc.Rdb.Del(ctx, principalPrefix+id.String()).Err()
}
