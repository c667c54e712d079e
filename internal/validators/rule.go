package validators

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Def is one validator definition, as loaded from a YAML rule file.
type Def struct {
	ID          string
	Name        string
	Description string
	AppliesTo   []string // tool names this validator applies to; empty = all tools
	Priority    Priority
	Enabled     bool
	Rules       []Rule
	Default     Result
}

// Rule pairs a condition with the action to take when it matches.
type Rule struct {
	When Condition
	Then Result
}

// rawDef mirrors Def's YAML shape before conditions/actions are
// resolved into their typed forms.
type rawDef struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	AppliesTo   []string  `yaml:"applies_to"`
	Priority    string    `yaml:"priority"`
	Enabled     *bool     `yaml:"enabled"`
	Rules       []rawRule `yaml:"rules"`
	Default     yaml.Node `yaml:"default"`
}

type rawRule struct {
	When yaml.Node `yaml:"when"`
	Then yaml.Node `yaml:"then"`
}

// UnmarshalYAML decodes a validator definition from its declarative YAML
// shape into resolved Conditions and Results.
func (d *Def) UnmarshalYAML(value *yaml.Node) error {
	var raw rawDef
	if err := value.Decode(&raw); err != nil {
		return err
	}

	d.ID = raw.ID
	d.Name = raw.Name
	d.Description = raw.Description
	d.AppliesTo = raw.AppliesTo
	d.Priority = PriorityNormal
	if raw.Priority != "" {
		p, ok := priorityNames[strings.ToLower(raw.Priority)]
		if !ok {
			return fmt.Errorf("validator %q: unknown priority %q", raw.ID, raw.Priority)
		}
		d.Priority = p
	}
	d.Enabled = true
	if raw.Enabled != nil {
		d.Enabled = *raw.Enabled
	}

	if !raw.Default.IsZero() {
		result, err := decodeAction(&raw.Default)
		if err != nil {
			return fmt.Errorf("validator %q: default action: %w", raw.ID, err)
		}
		d.Default = result
	}

	for i, rr := range raw.Rules {
		cond, err := decodeCondition(&rr.When)
		if err != nil {
			return fmt.Errorf("validator %q: rule %d: when: %w", raw.ID, i, err)
		}
		action, err := decodeAction(&rr.Then)
		if err != nil {
			return fmt.Errorf("validator %q: rule %d: then: %w", raw.ID, i, err)
		}
		d.Rules = append(d.Rules, Rule{When: cond, Then: action})
	}
	return nil
}

// decodeCondition resolves a YAML node shaped as a single-key map
// (`tool_name: foo`, `all: [...]`, ...) into a Condition.
func decodeCondition(n *yaml.Node) (Condition, error) {
	var m map[string]yaml.Node
	if err := n.Decode(&m); err != nil {
		return nil, err
	}
	if len(m) != 1 {
		return nil, fmt.Errorf("condition must have exactly one key, got %d", len(m))
	}

	for key, body := range m {
		switch strings.ToLower(key) {
		case "tool_name":
			var s string
			if err := body.Decode(&s); err != nil {
				return nil, err
			}
			return toolNameCondition{name: s}, nil

		case "url_contains":
			var s string
			if err := body.Decode(&s); err != nil {
				return nil, err
			}
			return urlContainsCondition{substr: s}, nil

		case "url_matches":
			var s string
			if err := body.Decode(&s); err != nil {
				return nil, err
			}
			re, err := regexp.Compile(s)
			if err != nil {
				return nil, fmt.Errorf("invalid url_matches regex %q: %w", s, err)
			}
			return urlMatchesCondition{re: re}, nil

		case "arg_exists":
			var s string
			if err := body.Decode(&s); err != nil {
				return nil, err
			}
			return argExistsCondition{key: s}, nil

		case "arg_missing":
			var s string
			if err := body.Decode(&s); err != nil {
				return nil, err
			}
			return argMissingCondition{key: s}, nil

		case "arg_equals":
			var kv struct {
				Key   string `yaml:"key"`
				Value string `yaml:"value"`
			}
			if err := body.Decode(&kv); err != nil {
				return nil, err
			}
			return argEqualsCondition{key: kv.Key, value: kv.Value}, nil

		case "arg_contains":
			var kv struct {
				Key    string `yaml:"key"`
				Substr string `yaml:"substr"`
			}
			if err := body.Decode(&kv); err != nil {
				return nil, err
			}
			return argContainsCondition{key: kv.Key, substr: kv.Substr}, nil

		case "credential_exists":
			var s string
			if err := body.Decode(&s); err != nil {
				return nil, err
			}
			return credentialExistsCondition{name: s}, nil

		case "credential_missing":
			var s string
			if err := body.Decode(&s); err != nil {
				return nil, err
			}
			return credentialMissingCondition{name: s}, nil

		case "all":
			var nodes []yaml.Node
			if err := body.Decode(&nodes); err != nil {
				return nil, err
			}
			conds, err := decodeConditions(nodes)
			if err != nil {
				return nil, err
			}
			return allCondition{conditions: conds}, nil

		case "any":
			var nodes []yaml.Node
			if err := body.Decode(&nodes); err != nil {
				return nil, err
			}
			conds, err := decodeConditions(nodes)
			if err != nil {
				return nil, err
			}
			return anyCondition{conditions: conds}, nil

		case "not":
			inner, err := decodeCondition(&body)
			if err != nil {
				return nil, err
			}
			return notCondition{inner: inner}, nil

		default:
			return nil, fmt.Errorf("unknown condition %q", key)
		}
	}
	panic("unreachable")
}

func decodeConditions(nodes []yaml.Node) ([]Condition, error) {
	out := make([]Condition, 0, len(nodes))
	for i := range nodes {
		c, err := decodeCondition(&nodes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// decodeAction resolves a YAML node shaped as either the bare string
// "allow", or a single-key map (`block: "reason"`,
// `block_with_suggestion: {reason: ..., suggestion: ...}`) into a Result.
func decodeAction(n *yaml.Node) (Result, error) {
	var bare string
	if err := n.Decode(&bare); err == nil {
		if strings.ToLower(bare) == "allow" {
			return Allow, nil
		}
		return Result{}, fmt.Errorf("unknown bare action %q", bare)
	}

	var m map[string]yaml.Node
	if err := n.Decode(&m); err != nil {
		return Result{}, err
	}
	if len(m) != 1 {
		return Result{}, fmt.Errorf("action must have exactly one key, got %d", len(m))
	}

	for key, body := range m {
		switch strings.ToLower(key) {
		case "allow":
			return Allow, nil
		case "block":
			var reason string
			if err := body.Decode(&reason); err != nil {
				return Result{}, err
			}
			return Block(reason), nil
		case "block_with_suggestion":
			var bs struct {
				Reason     string `yaml:"reason"`
				Suggestion string `yaml:"suggestion"`
			}
			if err := body.Decode(&bs); err != nil {
				return Result{}, err
			}
			return BlockWithSuggestion(bs.Reason, bs.Suggestion), nil
		default:
			return Result{}, fmt.Errorf("unknown action %q", key)
		}
	}
	panic("unreachable")
}
