package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for password digests.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64MB
	argon2Threads = 4
	argon2KeyLen  = 32
)

const (
	// SaltLength is the length of a freshly generated password salt.
	SaltLength = 32

	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// Bytes at or above this value are rejected so every symbol is equally likely.
	alphabetCutoff = 256 - 256%len(alphanumeric)
)

// SecretService implements ports.SecretService.
type SecretService struct {
	time    uint32
	memory  uint32
	threads uint8
}

// SecretOption tunes a SecretService.
type SecretOption func(*SecretService)

// WithArgon2Params overrides the Argon2id cost parameters. memory is in KiB.
func WithArgon2Params(time, memory uint32, threads uint8) SecretOption {
	return func(s *SecretService) {
		s.time, s.memory, s.threads = time, memory, threads
	}
}

// NewSecretService creates a secret service with the default Argon2id cost.
func NewSecretService(opts ...SecretOption) *SecretService {
	s := &SecretService{
		time:    argon2Time,
		memory:  argon2Memory,
		threads: argon2Threads,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateSalt returns SaltLength random alphanumeric characters.
func (s *SecretService) GenerateSalt() (string, error) {
	return s.GenerateRandomToken(SaltLength)
}

// GenerateRandomToken returns length random alphanumeric characters read
// from crypto/rand.
func (s *SecretService) GenerateRandomToken(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", length)
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= alphabetCutoff {
				continue
			}
			out = append(out, alphanumeric[int(b)%len(alphanumeric)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// HashPassword derives the stored password digest: Argon2id over
// salt+plaintext, keyed with the salt, hex encoded.
func (s *SecretService) HashPassword(salt, plaintext string) string {
	key := argon2.IDKey([]byte(salt+plaintext), []byte(salt), s.time, s.memory, s.threads, argon2KeyLen)
	return hex.EncodeToString(key)
}

// HashToken digests a high-entropy token (reset keys) for storage and lookup.
func (s *SecretService) HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Equal compares two digests in constant time.
func (s *SecretService) Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
