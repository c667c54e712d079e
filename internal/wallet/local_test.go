package wallet

import (
	"context"
	"strings"
	"testing"
)

const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestNewLocalFromHex(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"with 0x prefix", "0x" + testPrivateKey, false},
		{"without prefix", testPrivateKey, false},
		{"invalid hex", "not-a-key", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewLocalFromHex(tt.key)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.EqualFold(p.Address(), "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266") {
				t.Errorf("Address() = %q, want hardhat account #0", p.Address())
			}
		})
	}
}

func TestLocal_ModeName(t *testing.T) {
	p, err := NewLocalFromHex(testPrivateKey)
	if err != nil {
		t.Fatal(err)
	}
	if p.ModeName() != ModeLocal {
		t.Errorf("ModeName() = %q, want %q", p.ModeName(), ModeLocal)
	}
}

func TestLocal_Refresh_NoOp(t *testing.T) {
	p, err := NewLocalFromHex(testPrivateKey)
	if err != nil {
		t.Fatal(err)
	}
	before := p.Address()
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if p.Address() != before {
		t.Errorf("address changed after Refresh: %q -> %q", before, p.Address())
	}
}

func TestLocal_GetWallet_SignsConsistently(t *testing.T) {
	p, err := NewLocalFromHex(testPrivateKey)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := p.GetWallet(context.Background())
	if err != nil {
		t.Fatalf("GetWallet() error: %v", err)
	}

	var digest [32]byte
	for i := range digest {
		digest[i] = byte(i)
	}

	sig1, err := signer.SignHash(digest)
	if err != nil {
		t.Fatalf("SignHash() error: %v", err)
	}
	if len(sig1) != 65 {
		t.Fatalf("signature length = %d, want 65", len(sig1))
	}

	sig2, err := signer.SignHash(digest)
	if err != nil {
		t.Fatalf("SignHash() error: %v", err)
	}
	if string(sig1) != string(sig2) {
		t.Error("ECDSA signatures over the same digest with the same key should match deterministically (RFC 6979)")
	}
}
