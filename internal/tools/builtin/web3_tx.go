package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/beacongrid/agentd/internal/agent"
)

// Web3TxTool declares the schema for a queued on-chain transaction. The
// orchestrator intercepts calls to this tool by name before they reach
// the registry: it signs the transaction off-line via the wallet
// provider and hands it to the transaction queue rather than calling
// Execute here (§4.J-tool "queued-tx tool" branch). This is a
// deliberately minimal direct-call schema (network/to/value/data/gas),
// not the full preset/ABI resolution a richer integration would need.
type Web3TxTool struct{}

func (Web3TxTool) Name() string { return "web3_tx" }

func (Web3TxTool) Description() string {
	return "Build and sign an on-chain transaction. It is queued for user confirmation and broadcast, not sent immediately."
}

func (Web3TxTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"network": {"type": "string", "description": "Target network, e.g. 'base' or 'mainnet'."},
			"to": {"type": "string", "description": "Recipient address."},
			"value": {"type": "string", "description": "Amount to send, in wei as a decimal string.", "default": "0"},
			"data": {"type": "string", "description": "Hex-encoded calldata, empty for a plain transfer.", "default": "0x"},
			"gas_limit": {"type": "string", "description": "Gas limit as a decimal string."}
		},
		"required": ["network", "to"]
	}`)
}

func (Web3TxTool) SafetyLevel() agent.SafetyLevel { return agent.SafetyUnsafe }

func (Web3TxTool) Execute(context.Context, json.RawMessage) (*agent.ToolResult, error) {
	return nil, fmt.Errorf("web3_tx: reached the tool registry instead of being intercepted by the orchestrator")
}
