package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

// KeyFetcher retrieves signing-key material from a remote control plane.
// The concrete control-plane client (Privy, a KMS, etc.) is an external
// collaborator; Remote only depends on this narrow interface.
type KeyFetcher interface {
	// FetchPrivateKey returns a hex-encoded secp256k1 private key.
	FetchPrivateKey(ctx context.Context) (string, error)
}

// Remote is the "flash" wallet provider: key material is fetched from a
// control plane on demand and cached until Refresh is called.
type Remote struct {
	fetcher KeyFetcher

	mu      sync.RWMutex
	key     *ecdsa.PrivateKey
	address string
}

// NewRemote constructs a Remote provider around the given fetcher and
// performs an initial fetch so Address() is populated immediately.
func NewRemote(ctx context.Context, fetcher KeyFetcher) (*Remote, error) {
	r := &Remote{fetcher: fetcher}
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Remote) Address() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.address
}

func (r *Remote) GetWallet(ctx context.Context) (Signer, error) {
	r.mu.RLock()
	key := r.key
	r.mu.RUnlock()
	if key != nil {
		return &localSigner{key: key}, nil
	}
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &localSigner{key: r.key}, nil
}

// Refresh re-fetches the private key from the control plane and replaces
// the cached signer. Failure leaves the previous cache (if any) intact so
// Address() can still be used for display purposes.
func (r *Remote) Refresh(ctx context.Context) error {
	hexKey, err := r.fetcher.FetchPrivateKey(ctx)
	if err != nil {
		return &ErrWalletUnavailable{Mode: ModeRemote, Err: fmt.Errorf("fetch private key: %w", err)}
	}
	key, err := crypto.HexToECDSA(trimHexPrefix(hexKey))
	if err != nil {
		return &ErrWalletUnavailable{Mode: ModeRemote, Err: fmt.Errorf("invalid private key: %w", err)}
	}

	r.mu.Lock()
	r.key = key
	r.address = crypto.PubkeyToAddress(key.PublicKey).Hex()
	r.mu.Unlock()
	return nil
}

func (r *Remote) ModeName() string { return ModeRemote }

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
