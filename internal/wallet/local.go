package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeyEnvVar holds the hex-encoded secp256k1 private key for the
// Local provider. Mirrors the donor's BURNER_WALLET_BOT_PRIVATE_KEY.
const PrivateKeyEnvVar = "AGENTD_WALLET_PRIVATE_KEY"

// Local is the "standard" wallet provider: a private key loaded once from
// the environment at startup and cached for the process lifetime.
type Local struct {
	key     *ecdsa.PrivateKey
	address string
}

// NewLocal loads a Local provider from the configured environment variable.
func NewLocal() (*Local, error) {
	raw := os.Getenv(PrivateKeyEnvVar)
	if raw == "" {
		return nil, &ErrWalletUnavailable{Mode: ModeLocal, Err: fmt.Errorf("%s not set", PrivateKeyEnvVar)}
	}
	return NewLocalFromHex(raw)
}

// NewLocalFromHex builds a Local provider from a hex-encoded private key,
// with or without the "0x" prefix.
func NewLocalFromHex(hexKey string) (*Local, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, &ErrWalletUnavailable{Mode: ModeLocal, Err: fmt.Errorf("invalid private key: %w", err)}
	}
	return &Local{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

func (l *Local) Address() string { return l.address }

func (l *Local) GetWallet(ctx context.Context) (Signer, error) {
	return &localSigner{key: l.key}, nil
}

// Refresh is a no-op: the key was loaded once at startup and never expires.
func (l *Local) Refresh(ctx context.Context) error { return nil }

func (l *Local) ModeName() string { return ModeLocal }

type localSigner struct {
	key *ecdsa.PrivateKey
}

func (s *localSigner) SignHash(hash [32]byte) ([]byte, error) {
	return crypto.Sign(hash[:], s.key)
}

func (s *localSigner) PublicKey() *ecdsa.PublicKey {
	return &s.key.PublicKey
}
