package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncConfig describes one synchronization setup: which system and object
// class to pull, how to correlate remote objects, and which action to take
// for each classified situation. Immutable during a run except for the
// running flag tracked on its logs.
type SyncConfig struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	SystemID             uuid.UUID  `json:"system_id"`
	EntityType           EntityType `json:"entity_type"`
	ObjectClass          string     `json:"object_class"`
	CorrelationAttribute string     `json:"correlation_attribute"`
	Reconciliation       bool       `json:"reconciliation"`
	CustomFilterScript   string     `json:"custom_filter_script,omitempty"`
	RootsFilterScript    string     `json:"roots_filter_script,omitempty"`
	LinkedAction         SyncAction `json:"linked_action"`
	UnlinkedAction       SyncAction `json:"unlinked_action"`
	MissingEntityAction  SyncAction `json:"missing_entity_action"`
	MissingAccountAction SyncAction `json:"missing_account_action"`
	Enabled              bool       `json:"enabled"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Validate checks the four action settings against their situations.
func (c *SyncConfig) Validate() error {
	if !c.EntityType.Valid() {
		return ErrUnsupportedEntityType
	}

	if err := ValidateAction(SituationLinked, c.LinkedAction); err != nil {
		return err
	}

	if err := ValidateAction(SituationUnlinked, c.UnlinkedAction); err != nil {
		return err
	}

	if err := ValidateAction(SituationMissingEntity, c.MissingEntityAction); err != nil {
		return err
	}

	return ValidateAction(SituationMissingAccount, c.MissingAccountAction)
}

// ActionFor returns the configured action for a situation.
func (c *SyncConfig) ActionFor(situation Situation) SyncAction {
	switch situation {
	case SituationLinked:
		return c.LinkedAction
	case SituationUnlinked:
		return c.UnlinkedAction
	case SituationMissingEntity:
		return c.MissingEntityAction
	case SituationMissingAccount:
		return c.MissingAccountAction
	}

	return ActionIgnore
}

// SyncLog records one synchronization run. Created at run start, mutated
// only by the run that owns it, closed (running=false) at run end or cancel.
type SyncLog struct {
	ID            uuid.UUID  `json:"id"`
	SyncConfigID  uuid.UUID  `json:"sync_config_id"`
	Running       bool       `json:"running"`
	ContainsError bool       `json:"contains_error"`
	Started       time.Time  `json:"started"`
	Ended         *time.Time `json:"ended,omitempty"`
	Token         string     `json:"token,omitempty"`
	Log           string     `json:"log,omitempty"`
}

// SyncActionLog buckets item logs by (situation, action, result) within one
// run. Created lazily the first time a combination occurs.
type SyncActionLog struct {
	ID             uuid.UUID  `json:"id"`
	SyncLogID      uuid.UUID  `json:"sync_log_id"`
	Situation      Situation  `json:"situation"`
	Action         SyncAction `json:"action"`
	Result         ResultType `json:"result"`
	OperationCount int        `json:"operation_count"`
}

// SyncItemLog records one processed remote object. Append-only.
type SyncItemLog struct {
	ID              uuid.UUID `json:"id"`
	SyncActionLogID uuid.UUID `json:"sync_action_log_id"`
	Identification  string    `json:"identification"`
	DisplayName     string    `json:"display_name,omitempty"`
	Message         string    `json:"message,omitempty"`
	Log             string    `json:"log,omitempty"`
}

// Append adds a trace line to the item's free-text log.
func (l *SyncItemLog) Append(line string) {
	if l == nil {
		return
	}

	if l.Log != "" {
		l.Log += "\n"
	}

	l.Log += line
}
