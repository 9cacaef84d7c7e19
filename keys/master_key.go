package keys

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// HashPurpose tags a password hash with the single use it is valid for.
// The two purposes use different iteration counts so a captured server
// hash can never be replayed to pass local verification.
type HashPurpose uint8

const (
	// HashServerAuthorization is the hash transmitted to the identity
	// endpoint to authenticate.
	HashServerAuthorization HashPurpose = 1
	// HashLocalAuthorization is the hash kept on the device to verify the
	// password offline (unlock) without a network round trip.
	HashLocalAuthorization HashPurpose = 2
)

var errUnknownHashPurpose = errors.New("unknown hash purpose")

// MasterKey is the 256-bit KDF output. It exists only in process memory,
// is never persisted, and is consumed to compute password hashes and to
// unwrap the account user key.
type MasterKey struct {
	key []byte
}

// HashPassword produces the purpose-tagged digest of (password, master key)
// as standard base64. Deterministic for identical inputs; used both to
// generate and to verify hashes.
func (k *MasterKey) HashPassword(password []byte, purpose HashPurpose) (string, error) {
	var iterations int
	switch purpose {
	case HashServerAuthorization:
		iterations = 1
	case HashLocalAuthorization:
		iterations = 2
	default:
		return "", errUnknownHashPurpose
	}

	// The master key already carries the KDF work factor; the outer PBKDF2
	// only binds the hash to its purpose.
	hash := pbkdf2.Key(k.key, password, iterations, masterKeyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(hash), nil
}

// UnwrapUserKey decrypts the server-stored wrapped user key with the
// stretched master key. A MAC mismatch means the master key is wrong, which
// is the effective invalid-password signal when no local hash is available.
func (k *MasterKey) UnwrapUserKey(wrapped string) (*UserKey, error) {
	enc, mac := k.stretch()
	defer Zero(enc)
	defer Zero(mac)

	plain, err := decryptEncString(wrapped, enc, mac)
	if err != nil {
		return nil, err
	}
	return userKeyFromBytes(plain)
}

// WrapUserKey encrypts the user key under the stretched master key,
// producing the enc-string form the server stores. Inverse of
// UnwrapUserKey for any (masterKey, userKey) pair.
func (k *MasterKey) WrapUserKey(u *UserKey) (string, error) {
	enc, mac := k.stretch()
	defer Zero(enc)
	defer Zero(mac)

	return encryptEncString(u.bytes(), enc, mac)
}

// Destroy zeroes the key material. The MasterKey must not be used after.
func (k *MasterKey) Destroy() {
	if k == nil {
		return
	}
	Zero(k.key)
	k.key = nil
}

// stretch expands the 32-byte master key into independent 32-byte
// encryption and MAC keys via HKDF-SHA256.
func (k *MasterKey) stretch() (encKey, macKey []byte) {
	encKey = hkdfExpand(k.key, "enc", 32)
	macKey = hkdfExpand(k.key, "mac", 32)
	return encKey, macKey
}

func hkdfExpand(prk []byte, info string, size int) []byte {
	out := make([]byte, size)
	r := hkdf.Expand(sha256.New, prk, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		// Expand of 32 bytes from a SHA-256 PRK cannot fail.
		panic(err)
	}
	return out
}

// Zero overwrites b so key material does not linger for crash dumps or
// swapped pages to pick up.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
