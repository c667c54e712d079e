package wallet

import (
	"context"
	"errors"
	"testing"
)

type fakeFetcher struct {
	key string
	err error
	n   int
}

func (f *fakeFetcher) FetchPrivateKey(ctx context.Context) (string, error) {
	f.n++
	if f.err != nil {
		return "", f.err
	}
	return f.key, nil
}

func TestNewRemote_FetchesOnConstruction(t *testing.T) {
	f := &fakeFetcher{key: testPrivateKey}
	r, err := NewRemote(context.Background(), f)
	if err != nil {
		t.Fatalf("NewRemote() error: %v", err)
	}
	if f.n != 1 {
		t.Errorf("fetch count = %d, want 1", f.n)
	}
	if r.Address() == "" {
		t.Error("Address() should be populated after construction")
	}
	if r.ModeName() != ModeRemote {
		t.Errorf("ModeName() = %q, want %q", r.ModeName(), ModeRemote)
	}
}

func TestNewRemote_FetchFailurePropagates(t *testing.T) {
	f := &fakeFetcher{err: errors.New("control plane unreachable")}
	_, err := NewRemote(context.Background(), f)
	if err == nil {
		t.Fatal("expected error")
	}
	var unavailable *ErrWalletUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrWalletUnavailable, got %T: %v", err, err)
	}
}

func TestRemote_Refresh_KeepsStaleCacheOnFailure(t *testing.T) {
	f := &fakeFetcher{key: testPrivateKey}
	r, err := NewRemote(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	staleAddress := r.Address()

	f.err = errors.New("temporary outage")
	if err := r.Refresh(context.Background()); err == nil {
		t.Fatal("expected Refresh error")
	}

	if r.Address() != staleAddress {
		t.Error("Address() should still return the last-known address after a failed refresh")
	}
}

func TestRemote_GetWallet_UsesCache(t *testing.T) {
	f := &fakeFetcher{key: testPrivateKey}
	r, err := NewRemote(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.GetWallet(context.Background()); err != nil {
		t.Fatalf("GetWallet() error: %v", err)
	}
	if f.n != 1 {
		t.Errorf("fetch count after GetWallet = %d, want 1 (cached)", f.n)
	}
}
