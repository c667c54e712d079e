package txqueue

import (
	"fmt"
	"strconv"
)

// explorerBaseURLs maps a network tag to its block-explorer transaction
// base URL. Unknown networks fall back to Base's explorer, matching the
// donor's two-network default.
var explorerBaseURLs = map[string]string{
	"mainnet": "https://etherscan.io/tx",
	"base":    "https://basescan.org/tx",
}

// ExplorerURL builds a block-explorer URL for a transaction hash on the
// given network tag.
func ExplorerURL(network, txHash string) string {
	base, ok := explorerBaseURLs[network]
	if !ok {
		base = explorerBaseURLs["base"]
	}
	return fmt.Sprintf("%s/%s", base, txHash)
}

// FormatValueETH renders a wei decimal string as human-readable ETH,
// falling back to the raw wei string for unparseable or dust values.
// Uses float64 for display purposes only; never for accounting.
func FormatValueETH(weiDecimal string) string {
	wei, err := strconv.ParseFloat(weiDecimal, 64)
	if err != nil {
		return weiDecimal + " wei"
	}
	eth := wei / 1e18
	if eth >= 0.0001 {
		return strconv.FormatFloat(eth, 'f', 6, 64) + " ETH"
	}
	return weiDecimal + " wei"
}
