package wallet

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// New constructs the appropriate Provider for ModeEnvVar ("standard",
// unset, or "flash"/"lite"). A Remote provider additionally requires a
// KeyFetcher, since the control plane it talks to is an external
// collaborator the caller must supply.
func New(ctx context.Context, fetcher KeyFetcher) (Provider, error) {
	mode := strings.ToLower(os.Getenv(ModeEnvVar))
	switch mode {
	case "", "standard", "env":
		return NewLocal()
	case "flash", "lite":
		if fetcher == nil {
			return nil, fmt.Errorf("wallet mode %q requires a KeyFetcher", mode)
		}
		return NewRemote(ctx, fetcher)
	default:
		return nil, fmt.Errorf("unknown %s %q: use \"standard\" or \"flash\"", ModeEnvVar, mode)
	}
}
