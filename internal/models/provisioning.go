package models

import (
	"time"

	"github.com/google/uuid"
)

// ProvisioningBatch groups all pending provisioning operations for one
// external identity, keyed by (system, entity, system entity uid). At most
// one batch exists per triple; the batch row is the serialization point for
// writes against that identity.
type ProvisioningBatch struct {
	ID              uuid.UUID  `json:"id"`
	SystemID        uuid.UUID  `json:"system_id"`
	EntityID        *uuid.UUID `json:"entity_id,omitempty"`
	SystemEntityUID string     `json:"system_entity_uid"`
	NextAttempt     *time.Time `json:"next_attempt,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ProvisioningOperation is a single queued write against an external system.
// The payload carries the full attribute map needed to retry the operation
// without re-reading internal state.
type ProvisioningOperation struct {
	ID              uuid.UUID      `json:"id"`
	BatchID         uuid.UUID      `json:"batch_id"`
	Operation       OperationType  `json:"operation"`
	EntityType      EntityType     `json:"entity_type"`
	SystemID        uuid.UUID      `json:"system_id"`
	EntityID        *uuid.UUID     `json:"entity_id,omitempty"`
	SystemEntityUID string         `json:"system_entity_uid"`
	ObjectClass     string         `json:"object_class"`
	ResultState     OperationState `json:"result_state"`
	ResultMessage   string         `json:"result_message,omitempty"`
	Attempt         int            `json:"attempt"`
	Payload         map[string]any `json:"payload,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// BatchKey identifies the batch an operation belongs to.
type BatchKey struct {
	SystemID        uuid.UUID
	EntityID        *uuid.UUID
	SystemEntityUID string
}

// Key returns the operation's batch key.
func (o *ProvisioningOperation) Key() BatchKey {
	return BatchKey{
		SystemID:        o.SystemID,
		EntityID:        o.EntityID,
		SystemEntityUID: o.SystemEntityUID,
	}
}
