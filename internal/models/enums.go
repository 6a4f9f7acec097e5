// Package models defines data types for the identity synchronization engine.
package models

import "fmt"

// EntityType identifies the internal entity kind a remote object maps to.
type EntityType string

// Supported entity types.
const (
	EntityTypeIdentity EntityType = "IDENTITY"
	EntityTypeRole     EntityType = "ROLE"
	EntityTypeTreeNode EntityType = "TREE"
)

// Valid reports whether the entity type is one of the supported kinds.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeIdentity, EntityTypeRole, EntityTypeTreeNode:
		return true
	}

	return false
}

// Situation classifies a remote object against internal state.
// Exactly one situation applies to every processed object.
type Situation string

const (
	// SituationLinked - an Account exists for the remote UID.
	SituationLinked Situation = "LINKED"
	// SituationUnlinked - no Account, but an internal entity matches by correlation.
	SituationUnlinked Situation = "UNLINKED"
	// SituationMissingEntity - no Account and no correlated entity; object is new.
	SituationMissingEntity Situation = "MISSING_ENTITY"
	// SituationMissingAccount - an Account exists but the remote object is gone.
	// Only evaluated during a reconciliation pass.
	SituationMissingAccount Situation = "MISSING_ACCOUNT"
)

// SyncAction is the configured reaction to a classified situation.
type SyncAction string

// Actions for the MissingEntity situation.
const (
	ActionCreateEntity        SyncAction = "CREATE_ENTITY"
	ActionLink                SyncAction = "LINK"
	ActionLinkAndUpdateEntity SyncAction = "LINK_AND_UPDATE_ENTITY"
)

// Actions for the Linked situation.
const (
	ActionUpdateEntity  SyncAction = "UPDATE_ENTITY"
	ActionUpdateAccount SyncAction = "UPDATE_ACCOUNT"
)

// Actions for the Unlinked situation.
const (
	ActionLinkAndUpdateAccount SyncAction = "LINK_AND_UPDATE_ACCOUNT"
)

// Actions for the MissingAccount situation.
const (
	ActionDeleteEntity        SyncAction = "DELETE_ENTITY"
	ActionUnlink              SyncAction = "UNLINK"
	ActionUnlinkAndRemoveRole SyncAction = "UNLINK_AND_REMOVE_ROLE"
)

// ActionIgnore is valid for every situation.
const ActionIgnore SyncAction = "IGNORE"

// allowedActions maps each situation to its permitted actions.
var allowedActions = map[Situation][]SyncAction{
	SituationMissingEntity:  {ActionCreateEntity, ActionIgnore, ActionLink, ActionLinkAndUpdateEntity},
	SituationLinked:         {ActionUpdateEntity, ActionUpdateAccount, ActionIgnore},
	SituationUnlinked:       {ActionLink, ActionLinkAndUpdateAccount, ActionIgnore},
	SituationMissingAccount: {ActionDeleteEntity, ActionUnlink, ActionUnlinkAndRemoveRole, ActionIgnore},
}

// ValidateAction checks that action is permitted for the given situation.
func ValidateAction(situation Situation, action SyncAction) error {
	for _, a := range allowedActions[situation] {
		if a == action {
			return nil
		}
	}

	return fmt.Errorf("%w: action %s for situation %s", ErrUnsupportedAction, action, situation)
}

// ResultType grades the outcome of one processed item or action bucket.
type ResultType string

const (
	ResultSuccess ResultType = "SUCCESS"
	ResultWarning ResultType = "WARNING"
	ResultError   ResultType = "ERROR"
	ResultIgnored ResultType = "IGNORE"
)

// OperationType is the kind of outbound provisioning write.
type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
)

// OperationState is the lifecycle state of a queued provisioning operation.
type OperationState string

const (
	// OperationCreated - queued, not yet attempted.
	OperationCreated OperationState = "CREATED"
	// OperationExecuted - completed against the target system.
	OperationExecuted OperationState = "EXECUTED"
	// OperationException - last attempt failed; a retry is scheduled.
	OperationException OperationState = "EXCEPTION"
	// OperationNotExecuted - terminal, will not be retried.
	OperationNotExecuted OperationState = "NOT_EXECUTED"
)

// RoleType is the enumerated internal role classification. Remote string
// values are re-mapped into this enum by the role executor's value hook.
type RoleType string

const (
	RoleTypeSystem    RoleType = "SYSTEM"
	RoleTypeBusiness  RoleType = "BUSINESS"
	RoleTypeTechnical RoleType = "TECHNICAL"
	RoleTypeLogin     RoleType = "LOGIN"
)

// ParseRoleType converts a raw remote string into a RoleType.
func ParseRoleType(s string) (RoleType, error) {
	switch RoleType(s) {
	case RoleTypeSystem, RoleTypeBusiness, RoleTypeTechnical, RoleTypeLogin:
		return RoleType(s), nil
	}

	return "", fmt.Errorf("unknown role type %q", s)
}
