package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// cheap parameters keep the suite fast
var testConfig = Config{
	MemoryKiB:   1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestHash(t *testing.T) {
	h := NewHasher(testConfig)

	hash, err := h.Hash("correcthorsebatterystaple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Errorf("Hash() format invalid, got %s", hash)
	}
	if !strings.Contains(hash, "m=1024,t=1,p=1") {
		t.Errorf("Hash() params not encoded, got %s", hash)
	}
	if parts := strings.Split(hash, "$"); len(parts) != 6 {
		t.Errorf("Hash() expected 6 parts, got %d", len(parts))
	}
}

func TestVerify(t *testing.T) {
	h := NewHasher(testConfig)
	const password = "mysecretpassword"

	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	legacy, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error
	}{
		{"correct password", hash, password, nil},
		{"wrong password", hash, "wrongpassword", ErrMismatch},
		{"empty password", hash, "", ErrMismatch},
		{"bcrypt correct", string(legacy), password, nil},
		{"bcrypt wrong", string(legacy), "nope", ErrMismatch},
		{"empty hash", "", password, ErrInvalidHash},
		{"garbage", "notahash", password, ErrInvalidHash},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g", password, ErrInvalidHash},
		{"malformed params", "$argon2id$v=19$invalid$c29tZXNhbHQ$c29tZWhhc2g", password, ErrInvalidHash},
		{"wrong version", "$argon2id$v=16$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g", password, ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.Verify(tt.hash, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashUniqueness(t *testing.T) {
	h := NewHasher(testConfig)

	hash1, _ := h.Hash("samepassword")
	hash2, _ := h.Hash("samepassword")

	if hash1 == hash2 {
		t.Error("Hash() should produce unique hashes for same password")
	}
	if !h.Match(hash1, "samepassword") || !h.Match(hash2, "samepassword") {
		t.Error("both hashes should verify")
	}
}

func TestNeedsRehash(t *testing.T) {
	current := NewHasher(testConfig)
	hash, _ := current.Hash("pw")
	if current.NeedsRehash(hash) {
		t.Error("NeedsRehash() should be false for current params")
	}

	stronger := testConfig
	stronger.Iterations = 2
	if !NewHasher(stronger).NeedsRehash(hash) {
		t.Error("NeedsRehash() should be true after params change")
	}

	legacy, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if !current.NeedsRehash(string(legacy)) {
		t.Error("NeedsRehash() should be true for bcrypt hashes")
	}
}

func TestLowMemoryMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LowMemoryMode = true
	if got := cfg.params().Memory; got != 32*1024 {
		t.Errorf("params().Memory = %d, want %d", got, 32*1024)
	}
}
