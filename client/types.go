package client

import "time"

// System represents a connected external system.
type System struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Virtual     bool      `json:"virtual"`
	Disabled    bool      `json:"disabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// AttributeMapping maps one remote attribute to one internal property.
type AttributeMapping struct {
	ID              string    `json:"id,omitempty"`
	SystemID        string    `json:"system_id,omitempty"`
	EntityType      string    `json:"entity_type"`
	Name            string    `json:"name"`
	Property        string    `json:"property"`
	UID             bool      `json:"uid"`
	EntityAttribute bool      `json:"entity_attribute"`
	Extended        bool      `json:"extended"`
	Confidential    bool      `json:"confidential"`
	TransformScript string    `json:"transform_script,omitempty"`
	Strategy        string    `json:"strategy,omitempty"`
	Disabled        bool      `json:"disabled"`
	Seq             int       `json:"seq"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// SyncConfig holds one synchronization configuration.
type SyncConfig struct {
	ID                   string    `json:"id,omitempty"`
	Name                 string    `json:"name"`
	SystemID             string    `json:"system_id"`
	EntityType           string    `json:"entity_type"`
	ObjectClass          string    `json:"object_class"`
	CorrelationAttribute string    `json:"correlation_attribute"`
	Reconciliation       bool      `json:"reconciliation"`
	CustomFilterScript   string    `json:"custom_filter_script,omitempty"`
	RootsFilterScript    string    `json:"roots_filter_script,omitempty"`
	LinkedAction         string    `json:"linked_action"`
	UnlinkedAction       string    `json:"unlinked_action"`
	MissingEntityAction  string    `json:"missing_entity_action"`
	MissingAccountAction string    `json:"missing_account_action"`
	Enabled              bool      `json:"enabled"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
	UpdatedAt            time.Time `json:"updated_at,omitempty"`
}

// SyncLog is one run's summary record.
type SyncLog struct {
	ID            string     `json:"id"`
	SyncConfigID  string     `json:"sync_config_id"`
	Running       bool       `json:"running"`
	ContainsError bool       `json:"contains_error"`
	Started       time.Time  `json:"started"`
	Ended         *time.Time `json:"ended,omitempty"`
	Token         string     `json:"token,omitempty"`
	Log           string     `json:"log,omitempty"`
}

// SyncActionLog buckets item logs by situation, action and result.
type SyncActionLog struct {
	ID             string `json:"id"`
	SyncLogID      string `json:"sync_log_id"`
	Situation      string `json:"situation"`
	Action         string `json:"action"`
	Result         string `json:"result"`
	OperationCount int    `json:"operation_count"`
}

// SyncItemLog records one processed remote object.
type SyncItemLog struct {
	ID              string `json:"id"`
	SyncActionLogID string `json:"sync_action_log_id"`
	Identification  string `json:"identification"`
	DisplayName     string `json:"display_name,omitempty"`
	Message         string `json:"message,omitempty"`
	Log             string `json:"log,omitempty"`
}

// ProvisioningOperation is one queued outbound write.
type ProvisioningOperation struct {
	ID              string         `json:"id"`
	BatchID         string         `json:"batch_id"`
	Operation       string         `json:"operation"`
	EntityType      string         `json:"entity_type"`
	SystemID        string         `json:"system_id"`
	EntityID        *string        `json:"entity_id,omitempty"`
	SystemEntityUID string         `json:"system_entity_uid"`
	ObjectClass     string         `json:"object_class"`
	ResultState     string         `json:"result_state"`
	ResultMessage   string         `json:"result_message,omitempty"`
	Attempt         int            `json:"attempt"`
	Payload         map[string]any `json:"payload,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// AuditEntry is one operational audit record.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// CreateSystemRequest is the payload for creating a system.
type CreateSystemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Virtual     bool   `json:"virtual,omitempty"`
}

// ResolveItemRequest is the payload for manually resolving one remote object.
type ResolveItemRequest struct {
	Situation string `json:"situation"`
	Action    string `json:"action"`
	UID       string `json:"uid"`
}

// RunningStatus reports whether a config has an active run.
type RunningStatus struct {
	Running bool     `json:"running"`
	Log     *SyncLog `json:"log,omitempty"`
}

// AuditQueryOptions filters audit log queries.
type AuditQueryOptions struct {
	EntityType string
	EntityID   string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}

// HealthResponse is the liveness endpoint payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadinessResponse is the readiness endpoint payload.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
