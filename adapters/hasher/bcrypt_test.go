package hasher

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/satriahrh/diet-coach/domain"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := New(bcrypt.MinCost)

	hash, err := h.Hash("s3cret!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatalf("hash must not equal the password")
	}
	if err := h.Compare(hash, "s3cret!"); err != nil {
		t.Fatalf("Compare with correct password: %v", err)
	}
	if err := h.Compare(hash, "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("Compare with wrong password = %v", err)
	}
}
