package builtin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/beacongrid/agentd/internal/agent"
)

func TestWeb3TxTool_ExecuteErrorsWhenReached(t *testing.T) {
	if _, err := (Web3TxTool{}).Execute(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected web3_tx to error if it ever reaches the registry's Execute")
	}
}

func TestWeb3TxTool_SafetyLevel(t *testing.T) {
	if (Web3TxTool{}).SafetyLevel() != agent.SafetyUnsafe {
		t.Error("expected web3_tx to be marked unsafe, excluding it from safe-mode tool lists")
	}
}

func TestWeb3TxTool_SchemaRequiresNetworkAndTo(t *testing.T) {
	var schema struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal((Web3TxTool{}).Schema(), &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	want := map[string]bool{"network": false, "to": false}
	for _, r := range schema.Required {
		if _, ok := want[r]; ok {
			want[r] = true
		}
	}
	for field, found := range want {
		if !found {
			t.Errorf("expected %q to be a required schema field", field)
		}
	}
}
