package validators

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Validator is a registered rule set: a priority, an applicability
// filter, and an ordered list of when/then rules evaluated top to
// bottom, falling back to Default if nothing matches.
type Validator struct {
	Def
}

func (v Validator) appliesTo(toolName string) bool {
	if len(v.AppliesTo) == 0 {
		return true
	}
	for _, t := range v.AppliesTo {
		if t == toolName {
			return true
		}
	}
	return false
}

// Evaluate runs this validator's rules against ctx, returning the
// first matching rule's action, or its Default if nothing matches.
func (v Validator) Evaluate(ctx Context) Result {
	for _, rule := range v.Rules {
		if rule.When.Evaluate(ctx) {
			return rule.Then
		}
	}
	return v.Default
}

// Registry holds validators sorted by priority and evaluates tool
// calls against them in order, first block wins.
type Registry struct {
	validators []Validator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a validator and re-sorts the registry by priority.
func (r *Registry) Register(v Validator) {
	r.validators = append(r.validators, v)
	sort.SliceStable(r.validators, func(i, j int) bool {
		return r.validators[i].Priority < r.validators[j].Priority
	})
}

// LoadFile parses a YAML rule file and registers every validator
// definition it contains.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read validator rule file %s: %w", path, err)
	}
	var defs []Def
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("parse validator rule file %s: %w", path, err)
	}
	for _, d := range defs {
		r.Register(Validator{Def: d})
	}
	return nil
}

// Len returns the number of registered validators.
func (r *Registry) Len() int { return len(r.validators) }

// IsEmpty reports whether no validators are registered.
func (r *Registry) IsEmpty() bool { return len(r.validators) == 0 }

// List returns the registered validators, priority order.
func (r *Registry) List() []Validator {
	out := make([]Validator, len(r.validators))
	copy(out, r.validators)
	return out
}

// Get returns the validator with the given ID, if registered.
func (r *Registry) Get(id string) (Validator, bool) {
	for _, v := range r.validators {
		if v.ID == id {
			return v, true
		}
	}
	return Validator{}, false
}

// Validate runs ctx through every enabled, applicable validator in
// priority order and returns the first blocking Result. Returns Allow
// if no validator blocks the call.
func (r *Registry) Validate(ctx Context) Result {
	for _, v := range r.validators {
		if !v.Enabled || !v.appliesTo(ctx.ToolName) {
			continue
		}
		result := v.Evaluate(ctx)
		if result.Blocked {
			return result
		}
	}
	return Allow
}
