// Package x402 implements the client side of the x402 HTTP payment
// protocol: a 402 challenge/response flow that settles payment with an
// EIP-3009 TransferWithAuthorization signed by the wallet provider.
package x402

// ProtocolVersion is the x402Version field carried on both the challenge
// and the signed payload.
const ProtocolVersion = 2

// PaymentRequired is the decoded form of the base64 `payment-required`
// response header on a 402.
type PaymentRequired struct {
	X402Version int                   `json:"x402Version"`
	Accepts     []PaymentRequirements `json:"accepts"`
}

// PaymentRequirements is one entry of PaymentRequired.Accepts. The client
// always picks Accepts[0].
type PaymentRequirements struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	PayToAddress      string `json:"payToAddress"`
	Asset             string `json:"asset"`
	MaxTimeoutSeconds uint64 `json:"maxTimeoutSeconds"`
	Resource          string `json:"resource,omitempty"`
	Description       string `json:"description,omitempty"`
}

// PaymentPayload is the signed envelope sent back as the base64
// `X-PAYMENT` header on retry.
type PaymentPayload struct {
	X402Version int              `json:"x402Version"`
	Accepted    AcceptedPayment  `json:"accepted"`
	Payload     ExactEvmPayload  `json:"payload"`
}

// AcceptedPayment echoes the terms of the PaymentRequirements the client
// is satisfying.
type AcceptedPayment struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	Amount            string `json:"amount"`
	PayTo             string `json:"payTo"`
	MaxTimeoutSeconds uint64 `json:"maxTimeoutSeconds"`
	Asset             string `json:"asset"`
}

// ExactEvmPayload carries the signature and the EIP-3009 authorization it
// covers.
type ExactEvmPayload struct {
	Signature     string                `json:"signature"`
	Authorization Eip3009Authorization `json:"authorization"`
}

// Eip3009Authorization mirrors the on-chain TransferWithAuthorization
// struct, with all numeric fields as decimal strings (EVM convention for
// values that may exceed a JSON number's safe range).
type Eip3009Authorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}
