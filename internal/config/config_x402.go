package config

// X402Config configures the x402 payment client's EIP-712 domain and
// outbound rate limit.
type X402Config struct {
	ChainID       uint64   `yaml:"chain_id"`
	DomainName    string   `yaml:"domain_name"`
	DomainVersion string   `yaml:"domain_version"`
	Endpoints     []string `yaml:"endpoints"`
	RatePerSecond float64  `yaml:"rate_per_second"`
	RateBurst     int      `yaml:"rate_burst"`
}

func applyX402Defaults(cfg *X402Config) {
	if cfg.ChainID == 0 {
		cfg.ChainID = 8453 // Base mainnet
	}
	if cfg.DomainName == "" {
		cfg.DomainName = "agentd"
	}
	if cfg.DomainVersion == "" {
		cfg.DomainVersion = "1"
	}
	if cfg.RatePerSecond == 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 10
	}
}
