package securestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters sized for mobile devices: N=2^15 keeps derivation
// under Android per-app memory limits while staying expensive enough for
// offline brute force.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
)

// ErrWrongPassphrase indicates the sealed blob could not be opened with the
// supplied passphrase.
var ErrWrongPassphrase = errors.New("securestore: wrong passphrase")

type sealedBlob struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Cipher  []byte `json:"cipher"`
}

// Seal encrypts plaintext under a passphrase with a scrypt-derived AES-GCM
// key. The output is a self-describing JSON blob suitable for a Store.
func Seal(plaintext, passphrase []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	blob := sealedBlob{
		Version: 1,
		Salt:    salt,
		Nonce:   nonce,
		Cipher:  aead.Seal(nil, nonce, plaintext, nil),
	}
	return json.Marshal(blob)
}

// Open decrypts a blob produced by Seal. Returns ErrWrongPassphrase when
// authentication fails, which covers both a bad passphrase and a tampered
// blob.
func Open(sealed, passphrase []byte) ([]byte, error) {
	var blob sealedBlob
	if err := json.Unmarshal(sealed, &blob); err != nil {
		return nil, fmt.Errorf("decode sealed blob: %w", err)
	}
	if blob.Version != 1 {
		return nil, fmt.Errorf("unsupported sealed blob version %d", blob.Version)
	}

	aead, err := newAEAD(passphrase, blob.Salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, blob.Nonce, blob.Cipher, nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}

func newAEAD(passphrase, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
