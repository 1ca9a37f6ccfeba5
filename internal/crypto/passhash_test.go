package crypto

import (
	"bytes"
	"testing"
)

func TestNewSalt(t *testing.T) {
	t.Parallel()

	a, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	if len(a) != SaltLen {
		t.Fatalf("len=%d, want=%d", len(a), SaltLen)
	}
	b, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two accounts got the same salt")
	}
}

func TestNewDigest_SameSecretDifferentAccounts(t *testing.T) {
	t.Parallel()

	d1, s1, err := NewDigest("hunter22")
	if err != nil {
		t.Fatalf("NewDigest: %v", err)
	}
	d2, s2, err := NewDigest("hunter22")
	if err != nil {
		t.Fatalf("NewDigest(2): %v", err)
	}
	if bytes.Equal(d1, d2) {
		t.Fatalf("equal passwords must not share a digest")
	}
	if bytes.Contains(d1, []byte("hunter22")) {
		t.Fatalf("digest contains the password")
	}
	if !Matches("hunter22", s1, d1) || !Matches("hunter22", s2, d2) {
		t.Fatalf("fresh digests must match their password")
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	salt := []byte("salty-salt-12345")
	digest := Digest("correct horse battery staple", salt)

	if !Matches("correct horse battery staple", salt, digest) {
		t.Fatalf("expected a match for the right password")
	}
	if Matches("Correct horse battery staple", salt, digest) {
		t.Fatalf("passwords are case sensitive")
	}
	if Matches("correct horse battery staple", []byte("other-salt"), digest) {
		t.Fatalf("expected no match under another salt")
	}
	if Matches("correct horse battery staple", nil, digest) || Matches("x", salt, nil) {
		t.Fatalf("a record missing salt or digest must not match")
	}
}
