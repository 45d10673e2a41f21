package keystore

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/socialdb/migrator/internal/rpc"
)

// Key is a full access key loaded from a near-cli style credentials directory.
type Key struct {
	accountID  string
	privateKey ed25519.PrivateKey
}

type credentialsFile struct {
	AccountID  string `json:"account_id"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
	// written by some tools instead of private_key
	SecretKey string `json:"secret_key"`
}

// Load reads <dir>/<network>/<accountID>.json.
func Load(dir string, network string, accountID string) (*Key, error) {
	path := filepath.Join(dir, network, accountID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials for %s: %w", accountID, err)
	}
	key, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", path, err)
	}
	if key.accountID == "" {
		key.accountID = accountID
	}
	if key.accountID != accountID {
		return nil, fmt.Errorf("credentials file %s belongs to %s, not %s", path, key.accountID, accountID)
	}
	log.Debug().Str("account", accountID).Str("public_key", key.PublicKeyString()).Msg("Loaded credentials")
	return key, nil
}

func Parse(data []byte) (*Key, error) {
	var file credentialsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	secret := file.PrivateKey
	if secret == "" {
		secret = file.SecretKey
	}
	if secret == "" {
		return nil, fmt.Errorf("no private key")
	}
	privateKey, err := decodePrivateKey(secret)
	if err != nil {
		return nil, err
	}
	key := &Key{accountID: file.AccountID, privateKey: privateKey}
	if file.PublicKey != "" && file.PublicKey != key.PublicKeyString() {
		return nil, fmt.Errorf("public key %s does not match private key", file.PublicKey)
	}
	return key, nil
}

func decodePrivateKey(s string) (ed25519.PrivateKey, error) {
	raw, err := rpc.DecodeKey(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	switch len(raw) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	}
	return nil, fmt.Errorf("private key has %d bytes", len(raw))
}

func (k *Key) AccountID() string {
	return k.accountID
}

func (k *Key) PublicKey() ed25519.PublicKey {
	return k.privateKey.Public().(ed25519.PublicKey)
}

func (k *Key) PublicKeyString() string {
	return rpc.EncodePublicKey(k.PublicKey())
}

func (k *Key) Sign(message []byte) []byte {
	return ed25519.Sign(k.privateKey, message)
}
