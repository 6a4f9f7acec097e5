// Package connector defines the contract for reading and writing objects on
// external target systems.
package connector

import "context"

// Object is one remote object: a UID plus its attribute values keyed by
// remote attribute name. Multi-valued attributes carry []any values.
type Object struct {
	UID        string
	Attributes map[string]any
}

// Snapshot is a lazily-consumed sequence of remote objects. Next returns
// false when the snapshot is exhausted or the iteration failed; Err
// distinguishes the two. Token returns the opaque cursor to persist for
// incremental sync, valid after iteration completes.
type Snapshot interface {
	Next(ctx context.Context) (Object, bool)
	Err() error
	Token() string
}

// Connector reads and writes objects of one or more object classes on an
// external system. Implementations wrap target-specific failures so callers
// can defer write errors into the provisioning retry queue.
type Connector interface {
	// FetchObjects returns a snapshot of all objects of the class, resuming
	// from token when the target supports incremental reads (empty token
	// means full read).
	FetchObjects(ctx context.Context, objectClass, token string) (Snapshot, error)

	CreateObject(ctx context.Context, objectClass, uid string, attributes map[string]any) error
	UpdateObject(ctx context.Context, objectClass, uid string, attributes map[string]any) error
	DeleteObject(ctx context.Context, objectClass, uid string) error
}

// Registry resolves the connector serving a given system. Connectors are
// registered at startup; there is no runtime discovery.
type Registry struct {
	bySystem map[string]Connector
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{bySystem: make(map[string]Connector)}
}

// Register binds a connector to a system ID, replacing any previous binding.
func (r *Registry) Register(systemID string, c Connector) {
	r.bySystem[systemID] = c
}

// Get returns the connector for the system, or nil when none is registered.
func (r *Registry) Get(systemID string) Connector {
	return r.bySystem[systemID]
}
