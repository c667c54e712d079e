package validators

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Condition is the node type of the validator rule algebra: a leaf check
// against the tool call, or a combinator over other Conditions.
type Condition interface {
	Evaluate(ctx Context) bool
}

type toolNameCondition struct{ name string }

func (c toolNameCondition) Evaluate(ctx Context) bool { return ctx.ToolName == c.name }

type urlContainsCondition struct{ substr string }

func (c urlContainsCondition) Evaluate(ctx Context) bool {
	url, ok := argString(ctx, "url")
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(url), strings.ToLower(c.substr))
}

type urlMatchesCondition struct{ re *regexp.Regexp }

func (c urlMatchesCondition) Evaluate(ctx Context) bool {
	if c.re == nil {
		return false
	}
	url, ok := argString(ctx, "url")
	if !ok {
		return false
	}
	return c.re.MatchString(url)
}

type argExistsCondition struct{ key string }

func (c argExistsCondition) Evaluate(ctx Context) bool {
	_, ok := argValue(ctx, c.key)
	return ok
}

type argMissingCondition struct{ key string }

func (c argMissingCondition) Evaluate(ctx Context) bool {
	return !(argExistsCondition{key: c.key}).Evaluate(ctx)
}

type argEqualsCondition struct{ key, value string }

func (c argEqualsCondition) Evaluate(ctx Context) bool {
	v, ok := argString(ctx, c.key)
	return ok && v == c.value
}

type argContainsCondition struct{ key, substr string }

func (c argContainsCondition) Evaluate(ctx Context) bool {
	v, ok := argString(ctx, c.key)
	return ok && strings.Contains(v, c.substr)
}

type credentialExistsCondition struct{ name string }

func (c credentialExistsCondition) Evaluate(ctx Context) bool {
	if ctx.Credentials == nil {
		return false
	}
	v, ok := ctx.Credentials.Lookup(c.name)
	return ok && v != ""
}

type credentialMissingCondition struct{ name string }

func (c credentialMissingCondition) Evaluate(ctx Context) bool {
	return !(credentialExistsCondition{name: c.name}).Evaluate(ctx)
}

type allCondition struct{ conditions []Condition }

func (c allCondition) Evaluate(ctx Context) bool {
	for _, cond := range c.conditions {
		if !cond.Evaluate(ctx) {
			return false
		}
	}
	return true
}

type anyCondition struct{ conditions []Condition }

func (c anyCondition) Evaluate(ctx Context) bool {
	for _, cond := range c.conditions {
		if cond.Evaluate(ctx) {
			return true
		}
	}
	return false
}

type notCondition struct{ inner Condition }

func (c notCondition) Evaluate(ctx Context) bool { return !c.inner.Evaluate(ctx) }

// argValue returns the raw JSON value for a tool argument key.
func argValue(ctx Context, key string) (json.RawMessage, bool) {
	if len(ctx.ToolArgs) == 0 {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(ctx.ToolArgs, &m); err != nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// argString returns a tool argument as a string, if present and
// string-typed.
func argString(ctx Context, key string) (string, bool) {
	raw, ok := argValue(ctx, key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
