package client

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const saltSize = 16

// ErrWrongPassphrase is returned when a sealed session cannot be opened.
var ErrWrongPassphrase = errors.New("session: wrong passphrase or corrupted file")

type sealedEnvelope struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// SealedFileStore is a FileStore whose contents are encrypted with AES-GCM
// under a key derived from a passphrase with argon2id. A fresh salt and nonce
// are drawn on every save.
type SealedFileStore struct {
	path       string
	passphrase []byte
}

// NewSealedFileStore returns a store sealing the snapshot at path.
func NewSealedFileStore(path string, passphrase []byte) (*SealedFileStore, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("session: passphrase is required")
	}
	return &SealedFileStore{path: path, passphrase: append([]byte(nil), passphrase...)}, nil
}

func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (s *SealedFileStore) Load() (Snapshot, bool, error) {
	raw, ok, err := readSlot(s.path)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	var env sealedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Snapshot{}, false, ErrWrongPassphrase
	}
	aead, err := newGCM(deriveKey(s.passphrase, env.Salt))
	if err != nil {
		return Snapshot{}, false, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return Snapshot{}, false, ErrWrongPassphrase
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Data, nil)
	if err != nil {
		return Snapshot{}, false, ErrWrongPassphrase
	}
	var snap Snapshot
	if err := json.Unmarshal(plaintext, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode sealed session: %w", err)
	}
	return snap, true, nil
}

func (s *SealedFileStore) Save(snap Snapshot) error {
	plaintext, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	aead, err := newGCM(deriveKey(s.passphrase, salt))
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	raw, err := json.Marshal(sealedEnvelope{
		Salt:  salt,
		Nonce: nonce,
		Data:  aead.Seal(nil, nonce, plaintext, nil),
	})
	if err != nil {
		return err
	}
	return writeSlot(s.path, raw)
}

func (s *SealedFileStore) Clear() error {
	return clearSlot(s.path)
}
