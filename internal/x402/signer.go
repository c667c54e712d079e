package x402

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/beacongrid/agentd/internal/wallet"
)

// authorizationValidity is how long a signed authorization remains
// redeemable, per spec.md §4.B ("validBefore = now + 3600 seconds").
const authorizationValidity = 1 * time.Hour

// Signer produces signed EIP-3009 payment payloads from payment
// requirements using a wallet.Provider for key access.
type Signer struct {
	wallet  wallet.Provider
	chainID uint64
	name    string
	version string
}

// NewSigner builds a Signer for a given EIP-712 domain. name/version are
// the token's domain fields (e.g. "USD Coin"/"2" for USDC); chainID is
// the network's EIP-155 chain ID.
func NewSigner(w wallet.Provider, chainID uint64, name, version string) *Signer {
	return &Signer{wallet: w, chainID: chainID, name: name, version: version}
}

// Address returns the signer's payer address.
func (s *Signer) Address() string { return s.wallet.Address() }

// SignPayment builds and signs a TransferWithAuthorization for the given
// requirements and returns the ready-to-send PaymentPayload.
func (s *Signer) SignPayment(ctx context.Context, req PaymentRequirements) (*PaymentPayload, error) {
	from := common.HexToAddress(s.wallet.Address())
	to := common.HexToAddress(req.PayToAddress)

	value, ok := new(big.Int).SetString(req.MaxAmountRequired, 10)
	if !ok {
		return nil, fmt.Errorf("invalid maxAmountRequired %q", req.MaxAmountRequired)
	}

	validAfter := big.NewInt(0)
	validBefore := big.NewInt(time.Now().Add(authorizationValidity).Unix())

	nonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	msg := transferAuthorization{
		from:        from,
		to:          to,
		value:       value,
		validAfter:  validAfter,
		validBefore: validBefore,
		nonce:       nonce,
	}
	dom := domain{name: s.name, version: s.version, chainID: s.chainID, verifyingContract: common.HexToAddress(req.Asset)}
	digest := typedDataDigest(dom, msg)

	signer, err := s.wallet.GetWallet(ctx)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	sig, err := signer.SignHash(digest)
	if err != nil {
		return nil, fmt.Errorf("sign digest: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("unexpected signature length %d", len(sig))
	}
	// go-ethereum's crypto.Sign returns V in {0,1}; Ethereum's recoverable
	// signature convention for typed-data signatures is {27,28}.
	if sig[64] < 27 {
		sig[64] += 27
	}

	timeout := req.MaxTimeoutSeconds
	if timeout < 60 {
		timeout = 60
	}

	return &PaymentPayload{
		X402Version: ProtocolVersion,
		Accepted: AcceptedPayment{
			Scheme:            req.Scheme,
			Network:           req.Network,
			Amount:            req.MaxAmountRequired,
			PayTo:             req.PayToAddress,
			MaxTimeoutSeconds: timeout,
			Asset:             req.Asset,
		},
		Payload: ExactEvmPayload{
			Signature: "0x" + common.Bytes2Hex(sig),
			Authorization: Eip3009Authorization{
				From:        from.Hex(),
				To:          to.Hex(),
				Value:       value.String(),
				ValidAfter:  validAfter.String(),
				ValidBefore: validBefore.String(),
				Nonce:       "0x" + common.Bytes2Hex(nonce[:]),
			},
		},
	}, nil
}

// generateNonce produces a random, then-hashed 32-byte nonce, matching
// the donor's keccak256(32 random bytes) construction.
func generateNonce() ([32]byte, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], crypto.Keccak256(raw[:]))
	return out, nil
}
