// Package cryptox hashes and verifies account passwords.
//
// Hashes use the "method$salt$hex" layout written by werkzeug, so records
// created by earlier deployments keep verifying:
//
//	pbkdf2:sha256:600000$<salt>$<hex>
//	scrypt:32768:8:1$<salt>$<hex>
//
// New hashes are always pbkdf2.
package cryptox

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	DefaultIterations = 600000
	saltLength        = 16
	saltChars         = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	scryptKeyLen      = 64
)

var ErrMalformedHash = errors.New("malformed password hash")

var digests = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// Hasher produces pbkdf2-sha256 hashes with a fixed iteration count.
type Hasher struct {
	Iterations int
}

func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{Iterations: iterations}
}

// Hash returns the encoded hash of password under a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt, err := GenerateSalt(saltLength)
	if err != nil {
		return "", err
	}
	sum := pbkdf2.Key([]byte(password), []byte(salt), h.Iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", h.Iterations, salt, hex.EncodeToString(sum)), nil
}

// Verify reports whether password matches encoded. Unparseable hashes never match.
func Verify(encoded, password string) bool {
	method, salt, want, ok := split(encoded)
	if !ok {
		return false
	}
	got, err := derive(method, salt, password)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(got)), []byte(want)) == 1
}

// Dummy runs one verification against a throwaway hash so that a lookup
// miss costs about as much as a wrong password.
func (h *Hasher) Dummy(password string) {
	encoded := fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", h.Iterations, strings.Repeat("x", saltLength), strings.Repeat("0", 2*sha256.Size))
	_ = Verify(encoded, password)
}

// GenerateSalt returns n random characters from [A-Za-z0-9].
func GenerateSalt(n int) (string, error) {
	limit := big.NewInt(int64(len(saltChars)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		b[i] = saltChars[idx.Int64()]
	}
	return string(b), nil
}

func split(encoded string) (method, salt, sum string, ok bool) {
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func derive(method, salt, password string) ([]byte, error) {
	fields := strings.Split(method, ":")
	switch fields[0] {
	case "pbkdf2":
		return derivePBKDF2(fields[1:], salt, password)
	case "scrypt":
		return deriveScrypt(fields[1:], salt, password)
	default:
		return nil, fmt.Errorf("%w: unknown method %q", ErrMalformedHash, fields[0])
	}
}

func derivePBKDF2(args []string, salt, password string) ([]byte, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, ErrMalformedHash
	}
	newHash, ok := digests[args[0]]
	if !ok {
		return nil, fmt.Errorf("%w: unknown digest %q", ErrMalformedHash, args[0])
	}
	iterations := DefaultIterations
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return nil, ErrMalformedHash
		}
		iterations = n
	}
	return pbkdf2.Key([]byte(password), []byte(salt), iterations, newHash().Size(), newHash), nil
}

func deriveScrypt(args []string, salt, password string) ([]byte, error) {
	n, r, p := 1<<15, 8, 1
	if len(args) != 0 && len(args) != 3 {
		return nil, ErrMalformedHash
	}
	if len(args) == 3 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil {
			return nil, ErrMalformedHash
		}
		if r, err = strconv.Atoi(args[1]); err != nil {
			return nil, ErrMalformedHash
		}
		if p, err = strconv.Atoi(args[2]); err != nil {
			return nil, ErrMalformedHash
		}
	}
	return scrypt.Key([]byte(password), []byte(salt), n, r, p, scryptKeyLen)
}
