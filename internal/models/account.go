package models

import (
	"time"

	"github.com/google/uuid"
)

// System is an external target holding accounts to reconcile against.
type System struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Virtual     bool      `json:"virtual"`
	Disabled    bool      `json:"disabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// SystemEntity records that a given UID exists on a given system for a given
// entity type, independent of whether an internal entity is linked yet.
type SystemEntity struct {
	ID         uuid.UUID  `json:"id"`
	SystemID   uuid.UUID  `json:"system_id"`
	EntityType EntityType `json:"entity_type"`
	UID        string     `json:"uid"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Account is the internal record of an established connection between a
// SystemEntity and an internal entity.
type Account struct {
	ID             uuid.UUID  `json:"id"`
	SystemID       uuid.UUID  `json:"system_id"`
	SystemEntityID uuid.UUID  `json:"system_entity_id"`
	UID            string     `json:"uid"`
	EntityType     EntityType `json:"entity_type"`
	CreatedAt      time.Time  `json:"created_at"`
}

// EntityAccount joins an Account to an internal entity. Ownership marks the
// account as authoritative for the entity's existence; RoleAssignmentID
// optionally back-references the assignment that caused the relation.
type EntityAccount struct {
	ID               uuid.UUID  `json:"id"`
	AccountID        uuid.UUID  `json:"account_id"`
	EntityID         uuid.UUID  `json:"entity_id"`
	EntityType       EntityType `json:"entity_type"`
	Ownership        bool       `json:"ownership"`
	RoleAssignmentID *uuid.UUID `json:"role_assignment_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
