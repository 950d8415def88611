package agent

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// keystoreFile is the on-disk layout: the identity seed sealed with
// XChaCha20-Poly1305 under a key stretched from the passphrase.
type keystoreFile struct {
	Version    int    `json:"version"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

const keystoreVersion = 1

// argon2id parameters, the library's recommended interactive settings.
const (
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
)

// ErrKeystoreMissing reports that no keystore exists at the given path.
var ErrKeystoreMissing = errors.New("keystore file not found")

// SaveIdentity seals the identity's seed under passphrase and writes the
// keystore to path with 0600 permissions.
func SaveIdentity(path string, id *Identity, passphrase []byte) error {
	seed, err := id.Seed()
	if err != nil {
		return err
	}

	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	key, err := sealingKey(passphrase, salt)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	file := keystoreFile{
		Version:    keystoreVersion,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, seed, nil),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create keystore dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	return nil
}

// LoadIdentity opens the keystore at path and recovers the identity.
func LoadIdentity(path string, passphrase []byte) (*Identity, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrKeystoreMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}

	var file keystoreFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse keystore: %w", err)
	}
	if file.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", file.Version)
	}

	key, err := sealingKey(passphrase, file.Salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	seed, err := aead.Open(nil, file.Nonce, file.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("unseal keystore: %w", err)
	}
	return IdentityFromSeed(seed)
}

// sealingKey stretches the passphrase with argon2id and expands the
// result through HKDF-SHA256 into the XChaCha20 sealing key.
func sealingKey(passphrase, salt []byte) ([]byte, error) {
	stretched := argon2.IDKey(passphrase, salt, kdfTime, kdfMemory, kdfThreads, 32)
	r := hkdf.New(sha256.New, stretched, salt, []byte("trueorigin-keystore-seal"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	return key, nil
}
