package hash

import (
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// Algorithm is a single one-way password hashing scheme.
// Verify must return false, never panic, for malformed hashes.
type Algorithm interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

type Bcrypt struct {
	Cost int
}

const bcryptMaxInput = 72

// bcryptInput pre-hashes passwords longer than bcrypt accepts. The base64 of a
// SHA-384 digest is 64 bytes, so every byte of a long password stays significant.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha512.Sum384([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (b Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	cost := b.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashbytes, err := bcrypt.GenerateFromPassword(bcryptInput(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func (Bcrypt) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

// Auto hashes with Primary and verifies any supported stored format.
type Auto struct {
	Primary  Algorithm
	bcrypt   Bcrypt
	argon2id Argon2id
}

func NewAuto(primary Algorithm) *Auto {
	return &Auto{Primary: primary}
}

func (a *Auto) Hash(password string) (string, error) {
	return a.Primary.Hash(password)
}

func (a *Auto) Verify(hash, password string) bool {
	switch {
	case IsBcrypt(hash):
		return a.bcrypt.Verify(hash, password)
	case IsArgon2id(hash):
		return a.argon2id.Verify(hash, password)
	default:
		return false
	}
}

func IsBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func IsArgon2id(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}

// New builds the configured primary algorithm wrapped in Auto.
func New(kind string, bcryptCost int) (*Auto, error) {
	switch kind {
	case "", "bcrypt":
		return NewAuto(Bcrypt{Cost: bcryptCost}), nil
	case "argon2id":
		return NewAuto(DefaultArgon2id()), nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", kind)
	}
}
