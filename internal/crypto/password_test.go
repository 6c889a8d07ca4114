package crypto

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret", 4)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if err := CheckPassword(hash, "secret"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestHashPasswordFallsBackToDefaultCost(t *testing.T) {
	hash, err := HashPassword("secret", 99)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash[:7] != "$2a$10$" {
		t.Fatalf("expected default cost prefix, got %s", hash[:7])
	}
}

func TestCheckPasswordRejectsGarbageHash(t *testing.T) {
	if err := CheckPassword("not-a-hash", "secret"); err == nil {
		t.Fatalf("expected malformed hash to fail")
	}
}
