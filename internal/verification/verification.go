package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"thesisarchive/internal/crypto"
)

var (
	ErrNotConfigured = errors.New("redis_not_configured")
	ErrInvalidToken  = errors.New("invalid_token")
)

// Record is what a pending email verification token points at.
type Record struct {
	AdminID  string `json:"admin_id"`
	Email    string `json:"email"`
	IssuedAt int64  `json:"issued_at"`
}

// Store keeps single-use verification tokens in redis. Only the token hash
// is used as the key.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: client, ttl: ttl}
}

func (s *Store) Enabled() bool {
	return s != nil && s.redis != nil
}

// Issue creates a token for record and stores it with the configured TTL.
func (s *Store) Issue(ctx context.Context, record Record) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	token, err := crypto.NewVerificationToken()
	if err != nil {
		return "", err
	}
	if record.IssuedAt == 0 {
		record.IssuedAt = time.Now().UTC().Unix()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, verificationKey(token), data, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Consume returns the record and deletes it; a token works once.
func (s *Store) Consume(ctx context.Context, token string) (Record, error) {
	if !s.Enabled() {
		return Record{}, ErrNotConfigured
	}
	if token == "" {
		return Record{}, ErrInvalidToken
	}
	value, err := s.redis.GetDel(ctx, verificationKey(token)).Result()
	if err == redis.Nil {
		return Record{}, ErrInvalidToken
	}
	if err != nil {
		return Record{}, err
	}
	var record Record
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return Record{}, err
	}
	return record, nil
}

func verificationKey(token string) string {
	return fmt.Sprintf("email_verification:%s", crypto.HashToken(token))
}
