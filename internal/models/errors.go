package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration problems. These are fatal to a run and
// surface before any item is processed.
var (
	ErrSyncConfigNotFound   = errors.New("sync config not found")
	ErrSystemNotFound       = errors.New("system not found")
	ErrUIDAttributeNotFound = errors.New("no uid attribute mapping defined")
	ErrMissingMapping       = errors.New("attribute mapping not found")
)

// Sentinel errors for item-level failures. These abort the single item,
// never the run.
var (
	ErrCorrelationToManyResults = errors.New("correlation matched more than one entity")
	ErrTooManySystemEntities    = errors.New("more than one system entity for uid")
	ErrAccountNotFound          = errors.New("account not found")
	ErrEntityNotFound           = errors.New("entity not found")
)

// Sentinel errors for concurrency conflicts.
var (
	ErrSyncAlreadyRunning = errors.New("synchronization is already running")
	ErrSyncNotRunning     = errors.New("synchronization is not running")
	ErrDuplicateKey       = errors.New("duplicate key")
)

// Sentinel errors for dispatch failures.
var (
	ErrUnsupportedEntityType = errors.New("no executor supports entity type")
	ErrUnsupportedAction     = errors.New("action not allowed")
)

// ConnectorError wraps a failure from the connector layer so callers can
// route it into the retry queue instead of propagating it.
type ConnectorError struct {
	System string
	Op     string
	Err    error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("connector %s on system %s: %v", e.Op, e.System, e.Err)
}

func (e *ConnectorError) Unwrap() error { return e.Err }
