package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

var (
	ErrKeystorePath    = errors.New("crypto: admin keystore path required")
	ErrKeystoreExists  = errors.New("crypto: admin keystore already exists")
	ErrWrongPassphrase = errors.New("crypto: admin keystore passphrase incorrect")
)

// AdminKeystore is the v3 keystore file holding the token admin key. The
// address is stored in clear next to the ciphertext, so the admin account is
// known without unlocking the key.
type AdminKeystore struct {
	Path    string
	ScryptN int
	ScryptP int
}

// NewAdminKeystore returns a keystore at path using the standard scrypt cost.
func NewAdminKeystore(path string) *AdminKeystore {
	return &AdminKeystore{Path: path, ScryptN: keystore.StandardScryptN, ScryptP: keystore.StandardScryptP}
}

// Exists reports whether the keystore file is present.
func (k *AdminKeystore) Exists() (bool, error) {
	if k.Path == "" {
		return false, ErrKeystorePath
	}
	_, err := os.Stat(k.Path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Create generates a fresh admin key and writes it. An existing file is never
// replaced.
func (k *AdminKeystore) Create(passphrase string) (*PrivateKey, error) {
	exists, err := k.Exists()
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrKeystoreExists, k.Path)
	}
	key, err := GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	if err := k.Save(key, passphrase); err != nil {
		return nil, err
	}
	return key, nil
}

// Save encrypts key under passphrase and atomically replaces the file.
func (k *AdminKeystore) Save(key *PrivateKey, passphrase string) error {
	if key == nil || key.PrivateKey == nil {
		return errors.New("crypto: nil admin key")
	}
	if k.Path == "" {
		return ErrKeystorePath
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return err
	}
	encrypted, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    key.Address(),
		PrivateKey: key.PrivateKey,
	}, passphrase, k.ScryptN, k.ScryptP)
	if err != nil {
		return fmt.Errorf("crypto: encrypt admin key: %w", err)
	}

	dir := filepath.Dir(k.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".admin-keystore-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(encrypted); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), k.Path)
}

// Unlock decrypts the admin key.
func (k *AdminKeystore) Unlock(passphrase string) (*PrivateKey, error) {
	keyJSON, err := k.read()
	if err != nil {
		return nil, err
	}
	decrypted, err := keystore.DecryptKey(keyJSON, passphrase)
	if errors.Is(err, keystore.ErrDecrypt) {
		return nil, ErrWrongPassphrase
	}
	if err != nil {
		return nil, fmt.Errorf("crypto: decrypt admin key: %w", err)
	}
	return &PrivateKey{PrivateKey: decrypted.PrivateKey}, nil
}

// Address returns the admin account recorded in the file without decrypting
// it.
func (k *AdminKeystore) Address() (common.Address, error) {
	keyJSON, err := k.read()
	if err != nil {
		return common.Address{}, err
	}
	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(keyJSON, &header); err != nil {
		return common.Address{}, fmt.Errorf("crypto: parse admin keystore: %w", err)
	}
	if !common.IsHexAddress(header.Address) {
		return common.Address{}, fmt.Errorf("crypto: admin keystore has no address")
	}
	return common.HexToAddress(header.Address), nil
}

func (k *AdminKeystore) read() ([]byte, error) {
	if k.Path == "" {
		return nil, ErrKeystorePath
	}
	return os.ReadFile(k.Path)
}
