package keys

import (
	"crypto/rand"
	"errors"
	"io"
)

const userKeyLength = 64

// ErrInvalidUserKey reports unwrapped material of the wrong shape.
var ErrInvalidUserKey = errors.New("invalid user key material")

// UserKey is the long-lived symmetric key protecting the account's stored
// data: 32 bytes of AES key followed by 32 bytes of MAC key. It is
// transmitted only in wrapped form and unwrapped locally.
type UserKey struct {
	key []byte
}

// NewUserKey generates a fresh random user key. Used when provisioning an
// account and in round-trip tests.
func NewUserKey() (*UserKey, error) {
	key := make([]byte, userKeyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return &UserKey{key: key}, nil
}

func userKeyFromBytes(b []byte) (*UserKey, error) {
	if len(b) != userKeyLength {
		Zero(b)
		return nil, ErrInvalidUserKey
	}
	return &UserKey{key: b}, nil
}

// EncryptionKey returns the AES half. The caller must not retain it past
// the operation it was fetched for.
func (u *UserKey) EncryptionKey() []byte {
	return u.key[:32]
}

// MacKey returns the MAC half.
func (u *UserKey) MacKey() []byte {
	return u.key[32:]
}

// Equal compares two user keys; nil-safe.
func (u *UserKey) Equal(other *UserKey) bool {
	if u == nil || other == nil {
		return u == other
	}
	if len(u.key) != len(other.key) {
		return false
	}
	var diff byte
	for i := range u.key {
		diff |= u.key[i] ^ other.key[i]
	}
	return diff == 0
}

// Destroy zeroes the key material. The UserKey must not be used after.
func (u *UserKey) Destroy() {
	if u == nil {
		return
	}
	Zero(u.key)
	u.key = nil
}

func (u *UserKey) bytes() []byte {
	return u.key
}
