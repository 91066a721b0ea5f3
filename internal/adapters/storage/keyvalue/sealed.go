package keyvalue

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// KeySize is the length of a sealing key in bytes.
const KeySize = 32

const nonceSize = 24

// ErrUnsealable is returned by Sealed.Get when a stored value cannot be
// opened with the configured key.
var ErrUnsealable = errors.New("stored value cannot be opened")

// ParseKey decodes a hex-encoded 32-byte sealing key.
func ParseKey(hexKey string) (*[KeySize]byte, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("store key is not hex: %w", err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("store key must be %d bytes, got %d", KeySize, len(raw))
	}
	var key [KeySize]byte
	copy(key[:], raw)
	return &key, nil
}

// Sealed wraps a Store and encrypts values at rest with NaCl secretbox.
// Stored form is base64(nonce || box).
type Sealed struct {
	inner Store
	key   *[KeySize]byte
	rand  io.Reader
}

// NewSealed wraps inner so every value is sealed with key.
// PRE: key is non-nil
func NewSealed(inner Store, key *[KeySize]byte) *Sealed {
	return &Sealed{inner: inner, key: key, rand: rand.Reader}
}

// Get opens the value stored under key.
// POST: Returns the plaintext, ErrNotFound, or ErrUnsealable
func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	stored, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrUnsealable
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, s.key)
	if !ok {
		return "", ErrUnsealable
	}
	return string(plain), nil
}

// Set seals value under a fresh random nonce and stores it.
func (s *Sealed) Set(ctx context.Context, key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(s.rand, nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, s.key)
	return s.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(box))
}

// Delete removes key from the inner store.
func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
