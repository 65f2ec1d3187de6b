package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2SaltLen = 16
	argon2KeyLen  = 32

	// Upper bounds accepted from stored hashes.
	argon2MaxMemory  = 1024 * 1024
	argon2MaxTime    = 16
	argon2MaxThreads = 64
)

// Argon2id encodes hashes in PHC format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2id struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

func DefaultArgon2id() Argon2id {
	return Argon2id{Time: 1, Memory: 64 * 1024, Threads: 4}
}

func (a Argon2id) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if a.Time == 0 || a.Memory == 0 || a.Threads == 0 {
		a = DefaultArgon2id()
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2id salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.Time, a.Memory, a.Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.Memory,
		a.Time,
		a.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (Argon2id) Verify(encoded, password string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	if threads == 0 || threads > argon2MaxThreads || time == 0 || time > argon2MaxTime || memory == 0 || memory > argon2MaxMemory {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 || len(expected) > 1024 {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
