package x402

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// domain is the EIP-712 domain separator input for a USDC-style EIP-3009
// token: {name: "USD Coin", version: "2", chainId, verifyingContract}.
type domain struct {
	name              string
	version           string
	chainID           uint64
	verifyingContract common.Address
}

var domainTypeHash = crypto.Keccak256(
	[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
)

var transferWithAuthorizationTypeHash = crypto.Keccak256(
	[]byte("TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"),
)

// separator computes the EIP-712 domain separator hash.
func (d domain) separator() [32]byte {
	nameHash := crypto.Keccak256([]byte(d.name))
	versionHash := crypto.Keccak256([]byte(d.version))

	buf := make([]byte, 0, 32*5)
	buf = append(buf, domainTypeHash...)
	buf = append(buf, nameHash...)
	buf = append(buf, versionHash...)
	buf = append(buf, common.LeftPadBytes(new(big.Int).SetUint64(d.chainID).Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(d.verifyingContract.Bytes(), 32)...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}

// transferAuthorization is the in-memory form of the EIP-3009
// TransferWithAuthorization message used to compute its struct hash.
type transferAuthorization struct {
	from        common.Address
	to          common.Address
	value       *big.Int
	validAfter  *big.Int
	validBefore *big.Int
	nonce       [32]byte
}

// structHash computes the EIP-712 struct hash for the message.
func (m transferAuthorization) structHash() [32]byte {
	buf := make([]byte, 0, 32*7)
	buf = append(buf, transferWithAuthorizationTypeHash...)
	buf = append(buf, common.LeftPadBytes(m.from.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(m.to.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(m.value.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(m.validAfter.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(m.validBefore.Bytes(), 32)...)
	buf = append(buf, m.nonce[:]...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}

// typedDataDigest computes keccak256("\x19\x01" || domainSeparator || structHash),
// the final digest an EIP-712 signer signs.
func typedDataDigest(d domain, m transferAuthorization) [32]byte {
	sep := d.separator()
	sh := m.structHash()

	buf := make([]byte, 0, 2+32+32)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, sep[:]...)
	buf = append(buf, sh[:]...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}
