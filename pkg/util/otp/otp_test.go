package otp

import (
	"errors"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr error
	}{
		{"default", DefaultLength, nil},
		{"min", MinLength, nil},
		{"max", MaxLength, nil},
		{"too short", MinLength - 1, ErrInvalidLength},
		{"too long", MaxLength + 1, ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := Generate(tt.length)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Generate(%d) error = %v, want %v", tt.length, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(code) != tt.length {
				t.Errorf("len(code) = %d, want %d", len(code), tt.length)
			}
			for _, r := range code {
				if r < '0' || r > '9' {
					t.Fatalf("code %q contains non-digit %q", code, r)
				}
			}
		})
	}
}

func TestGeneratorVerify(t *testing.T) {
	g, err := NewGenerator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	code, hash, err := g.New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := Verify(hash, code); err != nil {
		t.Errorf("Verify() with correct code = %v", err)
	}
	if err := Verify(hash, " "+code+"\n"); err != nil {
		t.Errorf("Verify() with padded code = %v", err)
	}
	if err := Verify(hash, "not-it"); !errors.Is(err, ErrMismatch) {
		t.Errorf("Verify() with wrong code = %v, want ErrMismatch", err)
	}
}

func TestNewGeneratorRejectsBadLength(t *testing.T) {
	if _, err := NewGenerator(Config{Length: 2}); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("NewGenerator() error = %v, want ErrInvalidLength", err)
	}
}
