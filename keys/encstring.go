package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

// Enc-string wire form: "<type>.<b64 iv>|<b64 ciphertext>|<b64 mac>".
// Type 2 is AES-256-CBC with HMAC-SHA256 over iv||ciphertext. This is the
// only type the login engine produces or accepts.
const encStringTypeAesCbc256HmacSha256 = "2"

var (
	// ErrDecryption reports wrapped material that does not unwrap under
	// the supplied key. Callers must surface it identically to a rejected
	// credential; distinguishing the two is an oracle for attackers.
	ErrDecryption = errors.New("decryption failed")

	errMalformedEncString = errors.New("malformed enc string")
)

func encryptEncString(plain, encKey, macKey []byte) (string, error) {
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	padded := pkcs7Pad(plain, aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	mac := hmac.New(sha256.New, macKey)
	mac.Write(iv)
	mac.Write(ct)

	b64 := base64.StdEncoding
	return encStringTypeAesCbc256HmacSha256 + "." +
		b64.EncodeToString(iv) + "|" +
		b64.EncodeToString(ct) + "|" +
		b64.EncodeToString(mac.Sum(nil)), nil
}

func decryptEncString(s string, encKey, macKey []byte) ([]byte, error) {
	iv, ct, macTag, err := parseEncString(s)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, macKey)
	mac.Write(iv)
	mac.Write(ct)
	if !hmac.Equal(mac.Sum(nil), macTag) {
		return nil, ErrDecryption
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	unpadded, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		// Padding errors after a valid MAC mean corrupt input, but they
		// must not be distinguishable from a wrong key either.
		return nil, ErrDecryption
	}
	return unpadded, nil
}

func parseEncString(s string) (iv, ct, mac []byte, err error) {
	typ, rest, ok := strings.Cut(s, ".")
	if !ok || typ != encStringTypeAesCbc256HmacSha256 {
		return nil, nil, nil, errMalformedEncString
	}

	parts := strings.Split(rest, "|")
	if len(parts) != 3 {
		return nil, nil, nil, errMalformedEncString
	}

	b64 := base64.StdEncoding
	if iv, err = b64.DecodeString(parts[0]); err != nil {
		return nil, nil, nil, errMalformedEncString
	}
	if ct, err = b64.DecodeString(parts[1]); err != nil {
		return nil, nil, nil, errMalformedEncString
	}
	if mac, err = b64.DecodeString(parts[2]); err != nil {
		return nil, nil, nil, errMalformedEncString
	}

	if len(iv) != aes.BlockSize || len(ct) == 0 || len(ct)%aes.BlockSize != 0 || len(mac) != sha256.Size {
		return nil, nil, nil, errMalformedEncString
	}
	return iv, ct, mac, nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, errMalformedEncString
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, errMalformedEncString
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errMalformedEncString
		}
	}
	return b[:len(b)-n], nil
}
