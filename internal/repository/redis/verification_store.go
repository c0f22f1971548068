package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/nexivent/nexivent-api/internal/domain/repository"
	apperrors "github.com/nexivent/nexivent-api/internal/pkg/errors"
)

// expiryGrace keeps an expired entry around past its logical deadline so a
// redemption attempt can still be answered with "expired" rather than "not
// found". Once the grace elapses the key vanishes and redemption reports
// NotFound; the HTTP layer merges the two messages anyway.
const expiryGrace = time.Hour

// redeemScript performs the compare-and-delete atomically on the Redis side
// so concurrent redemptions across instances cannot both succeed.
// Return codes: -2 no entry, -1 expired (deleted), 0 mismatch (kept),
// 1 redeemed (deleted).
var redeemScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then return -2 end
local sep = string.find(v, '|')
local code = string.sub(v, 1, sep - 1)
local deadline = tonumber(string.sub(v, sep + 1))
if tonumber(ARGV[2]) > deadline then
  redis.call('DEL', KEYS[1])
  return -1
end
if code ~= ARGV[1] then return 0 end
redis.call('DEL', KEYS[1])
return 1
`)

// VerificationStore is the shared, externally-synchronized variant of the
// verification code store for multi-instance deployments.
type VerificationStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewVerificationStore(client redis.UniversalClient) (*VerificationStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for VerificationStore")
	}
	return &VerificationStore{client: client, keyPrefix: "verification:"}, nil
}

func (s *VerificationStore) Issue(ctx context.Context, identifier string, ttl time.Duration) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("%w: empty identifier", apperrors.ErrValidation)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: non-positive ttl", apperrors.ErrValidation)
	}

	code, err := repository.GenerateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	// Value carries the logical deadline; the Redis TTL only bounds growth.
	deadline := time.Now().Add(ttl).Unix()
	value := code + "|" + strconv.FormatInt(deadline, 10)
	if err := s.client.Set(ctx, s.keyPrefix+identifier, value, ttl+expiryGrace).Err(); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}

	return code, nil
}

func (s *VerificationStore) Redeem(ctx context.Context, identifier, code string) error {
	res, err := redeemScript.Run(ctx, s.client,
		[]string{s.keyPrefix + identifier},
		code, time.Now().Unix(),
	).Int()
	if err != nil {
		return fmt.Errorf("redeem script failed: %w", err)
	}

	switch res {
	case 1:
		return nil
	case 0:
		return repository.ErrCodeMismatch
	case -1:
		return repository.ErrCodeExpired
	default:
		return repository.ErrCodeNotFound
	}
}

// DeleteExpired is a no-op here: Redis expires keys natively.
func (s *VerificationStore) DeleteExpired(ctx context.Context) (int, error) {
	return 0, nil
}
