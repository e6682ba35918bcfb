package util

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// DigestLength is the length of a hex-encoded salted SHA-256 digest
const DigestLength = sha256.Size * 2

// Credential is a stored secret that a login attempt is checked against.
// Implementations: HashedCredential, BcryptCredential, PlaintextCredential, NoCredential.
type Credential interface {
	Verify(password string) bool
	sealed()
}

// HashedCredential is a salted SHA-256 hex digest
type HashedCredential struct {
	Digest string
	Salt   string
}

// BcryptCredential is a bcrypt hash
type BcryptCredential struct {
	Hash string
}

// PlaintextCredential is a legacy password stored as-is
type PlaintextCredential struct {
	Value string
}

// NoCredential never verifies.
type NoCredential struct{}

func (c HashedCredential) Verify(password string) bool {
	if len(c.Digest) != DigestLength {
		return false
	}
	want := strings.ToLower(c.Digest)
	got := DigestPassword(c.Salt, password)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func (c BcryptCredential) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(password)) == nil
}

func (c PlaintextCredential) Verify(password string) bool {
	if c.Value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(password)) == 1
}

func (NoCredential) Verify(string) bool { return false }

func (HashedCredential) sealed()    {}
func (BcryptCredential) sealed()    {}
func (PlaintextCredential) sealed() {}
func (NoCredential) sealed()        {}

// DigestPassword returns hex(sha256(salt + password))
func DigestPassword(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

// IsDigest reports whether s is a hex-encoded SHA-256 digest.
func IsDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// HashBcrypt hashes a plain text password with bcrypt
func HashBcrypt(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// IsBcryptHash reports whether s carries a bcrypt version prefix.
func IsBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// SecretCredential interprets a configured secret: bcrypt hashes are compared
// as hashes. Literal secrets are hashed here so the allow-list never holds
// them in clear; a secret bcrypt refuses (over 72 bytes) stays a literal.
func SecretCredential(secret string) Credential {
	if secret == "" {
		return NoCredential{}
	}
	if IsBcryptHash(secret) {
		return BcryptCredential{Hash: secret}
	}
	hash, err := HashBcrypt(secret)
	if err != nil {
		return PlaintextCredential{Value: secret}
	}
	return BcryptCredential{Hash: hash}
}
