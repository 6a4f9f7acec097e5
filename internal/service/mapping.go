// Package service provides the synchronization and provisioning business logic.
package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/connector"
	"github.com/crossidm/idsync/internal/models"
	"github.com/crossidm/idsync/internal/script"
)

// ResolvedAttributes is the outcome of mapping one remote object: values
// bucketed by destination. Entity values key by internal property name,
// extended and confidential values by attribute name.
type ResolvedAttributes struct {
	UID          string
	Entity       map[string]any
	Extended     map[string]any
	Confidential map[string]any
}

// Resolver turns remote objects into internal attribute values using the
// configured mappings. Stateless apart from the script program cache.
type Resolver struct {
	script *script.Evaluator
	log    *logrus.Logger
}

// NewResolver creates a mapping Resolver.
func NewResolver(eval *script.Evaluator, log *logrus.Logger) *Resolver {
	return &Resolver{script: eval, log: log}
}

// UID computes the remote object's UID through the mapping flagged as the
// UID attribute, including its transform. An empty UID is an error: the
// engine cannot correlate or log an item without one.
func (r *Resolver) UID(mappings []models.AttributeMapping, obj connector.Object) (string, error) {
	uidMapping, err := models.UIDMapping(mappings)
	if err != nil {
		return "", err
	}

	value, err := r.Value(*uidMapping, obj)
	if err != nil {
		return "", fmt.Errorf("resolving uid attribute %s: %w", uidMapping.Name, err)
	}

	uid := fmt.Sprint(value)
	if value == nil || uid == "" {
		return "", models.ErrUIDAttributeNotFound
	}

	return uid, nil
}

// Value resolves one mapping against a remote object: the raw remote value,
// transformed when a script is configured. Script bindings expose the raw
// value, the full attribute map and the object uid.
func (r *Resolver) Value(m models.AttributeMapping, obj connector.Object) (any, error) {
	raw := obj.Attributes[m.Name]

	if m.TransformScript == "" {
		return raw, nil
	}

	out, err := r.script.Evaluate(m.TransformScript, map[string]any{
		"value":      raw,
		"attributes": obj.Attributes,
		"uid":        obj.UID,
	})
	if err != nil {
		return nil, fmt.Errorf("transform for %s: %w", m.Name, err)
	}

	return out, nil
}

// Resolve maps a whole remote object into bucketed attribute values, in
// mapping sequence order. The UID mapping contributes the UID only, not a
// writable value.
func (r *Resolver) Resolve(mappings []models.AttributeMapping, obj connector.Object) (*ResolvedAttributes, error) {
	uid, err := r.UID(mappings, obj)
	if err != nil {
		return nil, err
	}

	out := &ResolvedAttributes{
		UID:          uid,
		Entity:       map[string]any{},
		Extended:     map[string]any{},
		Confidential: map[string]any{},
	}

	for _, m := range mappings {
		if m.UID || m.Disabled {
			continue
		}

		value, err := r.Value(m, obj)
		if err != nil {
			return nil, err
		}

		switch {
		case m.Confidential:
			out.Confidential[m.Property] = value
		case m.Extended:
			out.Extended[m.Property] = value
		case m.EntityAttribute:
			out.Entity[m.Property] = value
		}
	}

	return out, nil
}

// Export maps internal property values back to remote attribute names for a
// provisioning payload. Confidential mappings are never exported.
func (r *Resolver) Export(mappings []models.AttributeMapping, values map[string]any) map[string]any {
	payload := map[string]any{}

	for _, m := range mappings {
		if m.Disabled || m.Confidential {
			continue
		}

		if v, ok := values[m.Property]; ok {
			payload[m.Name] = v
		}
	}

	return payload
}

// Apply merges a resolved value into the current one per the mapping
// strategy. SET replaces, WRITE_IF_NULL keeps a non-empty current value,
// MERGE accumulates into a list.
func Apply(strategy models.MappingStrategy, current, value any) any {
	switch strategy {
	case models.StrategyWriteIfNull:
		if !isEmpty(current) {
			return current
		}

		return value
	case models.StrategyMerge:
		return mergeValues(current, value)
	default:
		return value
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}

	return false
}

func mergeValues(current, value any) any {
	if isEmpty(current) {
		return value
	}

	list, ok := current.([]any)
	if !ok {
		list = []any{current}
	}

	for _, existing := range list {
		if existing == value {
			return list
		}
	}

	return append(list, value)
}

// FilterMatch evaluates the config's custom filter script against a remote
// object. No script means every object passes.
func (r *Resolver) FilterMatch(scriptBody string, obj connector.Object) (bool, error) {
	if scriptBody == "" {
		return true, nil
	}

	return r.script.EvaluateBool(scriptBody, map[string]any{
		"attributes": obj.Attributes,
		"uid":        obj.UID,
	})
}
