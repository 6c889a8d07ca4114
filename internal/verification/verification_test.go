package verification

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestStoreWithoutRedis(t *testing.T) {
	store := NewStore(nil, time.Hour)
	if store.Enabled() {
		t.Fatalf("expected disabled store")
	}
	if _, err := store.Issue(context.Background(), Record{AdminID: "a1"}); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := store.Consume(context.Background(), "token"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestVerificationKeyHidesToken(t *testing.T) {
	key := verificationKey("plain-token")
	if key == "email_verification:plain-token" {
		t.Fatalf("raw token must not be used as key")
	}
	if key != verificationKey("plain-token") {
		t.Fatalf("key must be deterministic")
	}
}

func TestIssueAndConsume(t *testing.T) {
	addr := os.Getenv("THESIS_ARCHIVE_TEST_REDIS")
	if addr == "" {
		t.Skip("THESIS_ARCHIVE_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	store := NewStore(client, time.Minute)
	ctx := context.Background()

	token, err := store.Issue(ctx, Record{AdminID: "a1", Email: "a@u.edu"})
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if ttl := client.TTL(ctx, verificationKey(token)).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	record, err := store.Consume(ctx, token)
	if err != nil {
		t.Fatalf("consume error: %v", err)
	}
	if record.AdminID != "a1" || record.Email != "a@u.edu" || record.IssuedAt == 0 {
		t.Fatalf("unexpected record: %+v", record)
	}

	if _, err := store.Consume(ctx, token); err != ErrInvalidToken {
		t.Fatalf("expected single use, got %v", err)
	}
}
