// Package wallet abstracts signing-key access behind a small capability
// set so the rest of the system never needs to know whether a key is
// loaded from the environment or fetched from a remote control plane.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
)

// ModeEnvVar selects the wallet provider implementation at startup.
const ModeEnvVar = "AGENTD_WALLET_MODE"

// Mode names returned by Provider.ModeName.
const (
	ModeLocal  = "standard"
	ModeRemote = "flash"
)

// Signer is the minimal signing capability a Provider hands back. It is
// deliberately narrower than a full *ecdsa.PrivateKey: callers should sign
// digests, never touch key material directly.
type Signer interface {
	// SignHash signs a 32-byte digest and returns a 65-byte [R || S || V]
	// signature with V in {0, 1} (not yet adjusted to the 27/28 Ethereum
	// convention — callers needing that do it themselves).
	SignHash(hash [32]byte) ([]byte, error)

	// PublicKey returns the signer's public key for address derivation.
	PublicKey() *ecdsa.PublicKey
}

// Provider is the capability set every wallet implementation exposes.
// The rest of the system depends only on this interface.
type Provider interface {
	// Address returns the wallet's checksummed 0x-address. Stable and
	// synchronous; safe to call from a display path with no network I/O.
	Address() string

	// GetWallet returns a Signer for the current key material. Local
	// providers return an already-cached signer; Remote providers may
	// perform network I/O to fetch it.
	GetWallet(ctx context.Context) (Signer, error)

	// Refresh re-fetches key material from the backing source. A no-op
	// for Local providers.
	Refresh(ctx context.Context) error

	// ModeName identifies the provider for logging ("standard" or "flash").
	ModeName() string
}

// ErrWalletUnavailable is returned when a provider cannot produce a
// signer (remote fetch failed, key not configured, etc).
type ErrWalletUnavailable struct {
	Mode string
	Err  error
}

func (e *ErrWalletUnavailable) Error() string {
	return fmt.Sprintf("wallet unavailable (mode=%s): %v", e.Mode, e.Err)
}

func (e *ErrWalletUnavailable) Unwrap() error { return e.Err }
