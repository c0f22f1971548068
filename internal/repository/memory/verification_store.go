package memory

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/nexivent/nexivent-api/internal/domain/repository"
	apperrors "github.com/nexivent/nexivent-api/internal/pkg/errors"
)

type entry struct {
	code      string
	expiresAt time.Time
}

// VerificationStore keeps verification codes in process memory behind a
// single mutex. Issue and Redeem for the same identifier are serialized by
// the lock, which is held only for the map access, never across I/O.
//
// Single-instance only: a multi-instance deployment must use the Redis store
// so the single-use guarantee holds across processes.
type VerificationStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewVerificationStore() *VerificationStore {
	return &VerificationStore{entries: make(map[string]entry)}
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

	s.mu.Lock()
	s.entries[identifier] = entry{code: code, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()

	return code, nil
}

func (s *VerificationStore) Redeem(ctx context.Context, identifier, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[identifier]
	if !ok {
		return repository.ErrCodeNotFound
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, identifier)
		return repository.ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(e.code), []byte(code)) != 1 {
		// A wrong guess does not consume the entry; the caller may retry.
		return repository.ErrCodeMismatch
	}

	delete(s.entries, identifier)
	return nil
}

func (s *VerificationStore) DeleteExpired(ctx context.Context) (int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for identifier, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, identifier)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of live entries (including not-yet-swept expired
// ones). Used by the reaper log line and tests.
func (s *VerificationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
