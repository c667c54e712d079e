package config

// WalletConfig selects between the local and remote ("flash") wallet
// providers (internal/wallet). Mode "remote" additionally requires an
// external wallet.KeyFetcher implementation, which is wired by the
// caller of config.Load rather than described here (the control plane
// it talks to is an external collaborator, out of scope for this
// repo).
type WalletConfig struct {
	Mode          string `yaml:"mode"`
	PrivateKeyEnv string `yaml:"private_key_env"`
}

func applyWalletDefaults(cfg *WalletConfig) {
	if cfg.Mode == "" {
		cfg.Mode = "local"
	}
	if cfg.PrivateKeyEnv == "" {
		cfg.PrivateKeyEnv = "AGENTD_WALLET_PRIVATE_KEY"
	}
}
