package models

import (
	"time"

	"github.com/google/uuid"
)

// MappingStrategy controls how a mapped value is written when no transform
// script is configured.
type MappingStrategy string

const (
	// StrategySet writes the remote value as-is (default).
	StrategySet MappingStrategy = "SET"
	// StrategyMerge merges the remote value into an existing collection value.
	StrategyMerge MappingStrategy = "MERGE"
	// StrategyWriteIfNull writes only when the internal field is empty.
	StrategyWriteIfNull MappingStrategy = "WRITE_IF_NULL"
)

// AttributeMapping maps one remote attribute to one internal property for a
// (system, entity type) pair. Exactly one mapping per pair must be flagged
// as the UID attribute.
type AttributeMapping struct {
	ID              uuid.UUID       `json:"id"`
	SystemID        uuid.UUID       `json:"system_id"`
	EntityType      EntityType      `json:"entity_type"`
	Name            string          `json:"name"`     // remote attribute name
	Property        string          `json:"property"` // internal field name
	UID             bool            `json:"uid"`
	EntityAttribute bool            `json:"entity_attribute"`
	Extended        bool            `json:"extended"`
	Confidential    bool            `json:"confidential"`
	TransformScript string          `json:"transform_script,omitempty"`
	Strategy        MappingStrategy `json:"strategy,omitempty"`
	Disabled        bool            `json:"disabled"`
	Seq             int             `json:"seq"`
	CreatedAt       time.Time       `json:"created_at"`
}

// UIDMapping returns the single mapping flagged as the UID attribute.
// None or more than one is a configuration error.
func UIDMapping(mappings []AttributeMapping) (*AttributeMapping, error) {
	var found *AttributeMapping

	for i := range mappings {
		if !mappings[i].UID {
			continue
		}

		if found != nil {
			return nil, ErrUIDAttributeNotFound
		}

		found = &mappings[i]
	}

	if found == nil {
		return nil, ErrUIDAttributeNotFound
	}

	return found, nil
}
