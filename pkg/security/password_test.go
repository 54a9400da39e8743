package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/angelmondragon/mallrent-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("local-owner-pass", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	ok, err := security.VerifyPassword("local-owner-pass", hash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword failed for the correct password: ok=%v err=%v", ok, err)
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	if _, err := security.VerifyPassword("pw", "$bcrypt$nope"); !errors.Is(err, security.ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
	if _, err := security.HashPassword("", testPasswordConfig()); err == nil {
		t.Fatal("expected empty password error")
	}
}

func TestCheckStrength(t *testing.T) {
	if err := security.CheckStrength("abc12"); !errors.Is(err, security.ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if err := security.CheckStrength("añoñoñ"); err != nil {
		t.Fatalf("six runes should pass: %v", err)
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := testPasswordConfig()
	hash, err := security.HashPassword("local-owner-pass", weak)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if security.NeedsRehash(hash, weak) {
		t.Fatal("hash made with current params should not need rehash")
	}
	stronger := weak
	stronger.ArgonTime = 3
	if !security.NeedsRehash(hash, stronger) {
		t.Fatal("expected rehash when time cost increases")
	}
	if !security.NeedsRehash("garbage", weak) {
		t.Fatal("malformed hash should need rehash")
	}
}

func TestHashEncodesConfiguredCosts(t *testing.T) {
	cfg := testPasswordConfig()
	cfg.ArgonParallelism = 0 // clamped up to 1
	hash, err := security.HashPassword("local-owner-pass", cfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$") {
		t.Fatalf("unexpected hash layout: %s", hash)
	}

	tampered := strings.Replace(hash, "v=19", "v=16", 1)
	if _, err := security.VerifyPassword("local-owner-pass", tampered); !errors.Is(err, security.ErrInvalidHash) {
		t.Fatalf("expected unsupported version to be rejected, got %v", err)
	}
}
