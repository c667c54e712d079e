package confirmation

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// erc20TransferSelector and erc20ApproveSelector are the 4-byte function
// selectors used to recognize the two most common ERC20 calls so the
// confirmation prompt can say something more useful than "contract call".
const (
	erc20TransferSelector = "0xa9059cbb"
	erc20ApproveSelector  = "0x095ea7b3"
)

// Describe builds a human-readable description of a tool call for the
// confirmation prompt. Unrecognized tools get a generic fallback.
func Describe(toolName string, args json.RawMessage) string {
	if toolName != "web3_tx" {
		return fmt.Sprintf("Execute %s tool", toolName)
	}

	var fields struct {
		To      string `json:"to"`
		Value   string `json:"value"`
		Data    string `json:"data"`
		Network string `json:"network"`
	}
	_ = json.Unmarshal(args, &fields)

	to := fields.To
	if to == "" {
		to = "unknown"
	}
	value := fields.Value
	if value == "" {
		value = "0"
	}
	data := fields.Data
	if data == "" {
		data = "0x"
	}
	network := fields.Network
	if network == "" {
		network = "base"
	}

	switch {
	case data == "0x":
		return fmt.Sprintf("Transfer %s ETH to %s on %s", weiToETH(value), shortAddress(to), network)
	case strings.HasPrefix(data, erc20TransferSelector):
		return fmt.Sprintf("ERC20 transfer to contract %s on %s", shortAddress(to), network)
	case strings.HasPrefix(data, erc20ApproveSelector):
		return fmt.Sprintf("Approve token spending on contract %s (%s)", shortAddress(to), network)
	default:
		eth := weiToETH(value)
		if eth != "0" {
			return fmt.Sprintf("Contract call to %s with %s ETH on %s", shortAddress(to), eth, network)
		}
		return fmt.Sprintf("Contract call to %s on %s", shortAddress(to), network)
	}
}

var weiPerETH = new(big.Float).SetFloat64(1e18)

// weiToETH converts a wei decimal string to a fixed-point ETH string,
// using more decimal places for dust amounts so they don't round to 0.
// Uses big.Float since wei amounts routinely exceed a float64 mantissa's
// exact-integer range.
func weiToETH(wei string) string {
	v, ok := new(big.Float).SetString(wei)
	if !ok {
		return wei
	}
	if v.Sign() == 0 {
		return "0"
	}
	eth := new(big.Float).Quo(v, weiPerETH)
	ethF, _ := eth.Float64()
	if ethF < 0.0001 {
		return strconv.FormatFloat(ethF, 'f', 8, 64)
	}
	return strconv.FormatFloat(ethF, 'f', 6, 64)
}

// shortAddress truncates a long address to "0x1234...5678" for display.
func shortAddress(addr string) string {
	if len(addr) > 12 {
		return addr[:6] + "..." + addr[len(addr)-4:]
	}
	return addr
}
