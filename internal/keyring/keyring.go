// Package keyring manages the local master key and the purpose-bound keys
// derived from it.
//
// The master key is random, generated on first use and persisted next to the
// data directory with owner-only permissions. Purpose keys are derived with
// PBKDF2 so the database passphrase and the backup signing key can never be
// used interchangeably.
package keyring

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	masterKeySize = 32
	keyIterations = 4096
	derivedSize   = 32
)

// Keyring derives purpose-bound keys from a persisted master key.
type Keyring struct {
	master []byte
}

// Open loads the master key from path, generating and persisting a new one
// when the file does not exist yet.
func Open(path string) (*Keyring, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		master, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode master key: %w", err)
		}
		if len(master) != masterKeySize {
			return nil, fmt.Errorf("master key has %d bytes, want %d", len(master), masterKeySize)
		}
		return &Keyring{master: master}, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read master key: %w", err)
	}

	master := make([]byte, masterKeySize)
	if _, err := rand.Read(master); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create keyring dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(master)+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("persist master key: %w", err)
	}

	return &Keyring{master: master}, nil
}

func (k *Keyring) derive(purpose string) []byte {
	return pbkdf2.Key(k.master, []byte(purpose), keyIterations, derivedSize, sha256.New)
}

// DatabasePassphrase returns the passphrase applied to the database file.
func (k *Keyring) DatabasePassphrase() string {
	return hex.EncodeToString(k.derive("database"))
}

// BackupSigningKey returns the key used to authenticate backup metadata.
func (k *Keyring) BackupSigningKey() []byte {
	return k.derive("backup-signing")
}
