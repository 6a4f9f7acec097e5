// Package memory provides an in-memory connector used by tests and by
// virtual systems that have no real target to talk to.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/crossidm/idsync/internal/connector"
)

// Connector stores objects per object class in memory. Safe for concurrent
// use. Iteration order is deterministic (sorted by UID) so sync runs over a
// fixture produce stable logs.
type Connector struct {
	mu      sync.RWMutex
	classes map[string]map[string]map[string]any // objectClass -> uid -> attributes
	serial  int                                  // bumped on every write, used as snapshot token
	failOps map[string]error                     // injected write failures, keyed "op:uid"
}

// New creates an empty in-memory connector.
func New() *Connector {
	return &Connector{
		classes: make(map[string]map[string]map[string]any),
		failOps: make(map[string]error),
	}
}

// Seed inserts or replaces an object without bumping failure state.
func (c *Connector) Seed(objectClass, uid string, attributes map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.class(objectClass)[uid] = cloneAttrs(attributes)
	c.serial++
}

// Remove deletes an object from the store if present.
func (c *Connector) Remove(objectClass, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.class(objectClass), uid)
	c.serial++
}

// FailNext makes the next call of op ("create", "update" or "delete") for
// the given uid return err. Used to exercise the retry queue.
func (c *Connector) FailNext(op, uid string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failOps[op+":"+uid] = err
}

// Get returns a copy of an object's attributes, or nil when absent.
func (c *Connector) Get(objectClass, uid string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	attrs, ok := c.classes[objectClass][uid]
	if !ok {
		return nil
	}

	return cloneAttrs(attrs)
}

// FetchObjects returns a snapshot of all objects in the class, sorted by UID.
func (c *Connector) FetchObjects(_ context.Context, objectClass, _ string) (connector.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	objects := make([]connector.Object, 0, len(c.classes[objectClass]))
	for uid, attrs := range c.classes[objectClass] {
		objects = append(objects, connector.Object{UID: uid, Attributes: cloneAttrs(attrs)})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].UID < objects[j].UID })

	return &snapshot{objects: objects, token: strconv.Itoa(c.serial)}, nil
}

// CreateObject stores a new object; creating an existing UID is an error.
func (c *Connector) CreateObject(_ context.Context, objectClass, uid string, attributes map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.takeFailure("create", uid); err != nil {
		return err
	}

	class := c.class(objectClass)
	if _, exists := class[uid]; exists {
		return fmt.Errorf("memory: object %q already exists in class %q", uid, objectClass)
	}

	class[uid] = cloneAttrs(attributes)
	c.serial++

	return nil
}

// UpdateObject merges attributes into an existing object.
func (c *Connector) UpdateObject(_ context.Context, objectClass, uid string, attributes map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.takeFailure("update", uid); err != nil {
		return err
	}

	class := c.class(objectClass)
	attrs, exists := class[uid]
	if !exists {
		return fmt.Errorf("memory: object %q not found in class %q", uid, objectClass)
	}

	for k, v := range attributes {
		attrs[k] = v
	}
	c.serial++

	return nil
}

// DeleteObject removes an object; deleting a missing UID is an error.
func (c *Connector) DeleteObject(_ context.Context, objectClass, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.takeFailure("delete", uid); err != nil {
		return err
	}

	class := c.class(objectClass)
	if _, exists := class[uid]; !exists {
		return fmt.Errorf("memory: object %q not found in class %q", uid, objectClass)
	}

	delete(class, uid)
	c.serial++

	return nil
}

func (c *Connector) class(objectClass string) map[string]map[string]any {
	if c.classes[objectClass] == nil {
		c.classes[objectClass] = make(map[string]map[string]any)
	}

	return c.classes[objectClass]
}

func (c *Connector) takeFailure(op, uid string) error {
	key := op + ":" + uid
	if err, ok := c.failOps[key]; ok {
		delete(c.failOps, key)

		return err
	}

	return nil
}

func cloneAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}

	return out
}

type snapshot struct {
	objects []connector.Object
	next    int
	token   string
}

func (s *snapshot) Next(_ context.Context) (connector.Object, bool) {
	if s.next >= len(s.objects) {
		return connector.Object{}, false
	}

	obj := s.objects[s.next]
	s.next++

	return obj, true
}

func (s *snapshot) Err() error { return nil }

func (s *snapshot) Token() string { return s.token }
