package client

import (
	"context"
	"net/url"
)

// SystemService handles system and attribute mapping management.
type SystemService struct {
	c *Client
}

// systemListResponse wraps the system list response.
type systemListResponse struct {
	Systems []System `json:"systems"`
}

// mappingListResponse wraps the mapping list response.
type mappingListResponse struct {
	Mappings []AttributeMapping `json:"mappings"`
}

// List returns all registered systems.
func (s *SystemService) List(ctx context.Context) ([]System, error) {
	var resp systemListResponse
	if err := s.c.get(ctx, "/api/v1/systems", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Systems, nil
}

// Get returns a single system by ID.
func (s *SystemService) Get(ctx context.Context, id string) (*System, error) {
	var system System
	if err := s.c.get(ctx, "/api/v1/systems/"+url.PathEscape(id), nil, &system); err != nil {
		return nil, err
	}
	return &system, nil
}

// Create registers a new system.
func (s *SystemService) Create(ctx context.Context, req *CreateSystemRequest) (*System, error) {
	var system System
	if err := s.c.post(ctx, "/api/v1/systems", req, &system); err != nil {
		return nil, err
	}
	return &system, nil
}

// Disable stops provisioning against the system; queued batches are
// postponed until it is enabled again.
func (s *SystemService) Disable(ctx context.Context, id string) error {
	return s.c.post(ctx, "/api/v1/systems/"+url.PathEscape(id)+"/disable", nil, nil)
}

// Enable re-enables a disabled system.
func (s *SystemService) Enable(ctx context.Context, id string) error {
	return s.c.post(ctx, "/api/v1/systems/"+url.PathEscape(id)+"/enable", nil, nil)
}

// Delete removes a system.
func (s *SystemService) Delete(ctx context.Context, id string) error {
	return s.c.del(ctx, "/api/v1/systems/"+url.PathEscape(id), nil, nil)
}

// CreateMapping adds an attribute mapping to the system.
func (s *SystemService) CreateMapping(ctx context.Context, systemID string, m *AttributeMapping) (*AttributeMapping, error) {
	var created AttributeMapping
	if err := s.c.post(ctx, "/api/v1/systems/"+url.PathEscape(systemID)+"/mappings", m, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListMappings returns the system's attribute mappings.
func (s *SystemService) ListMappings(ctx context.Context, systemID string) ([]AttributeMapping, error) {
	var resp mappingListResponse
	if err := s.c.get(ctx, "/api/v1/systems/"+url.PathEscape(systemID)+"/mappings", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Mappings, nil
}

// UpdateMapping replaces an attribute mapping.
func (s *SystemService) UpdateMapping(ctx context.Context, id string, m *AttributeMapping) (*AttributeMapping, error) {
	var updated AttributeMapping
	if err := s.c.put(ctx, "/api/v1/mappings/"+url.PathEscape(id), m, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMapping removes an attribute mapping.
func (s *SystemService) DeleteMapping(ctx context.Context, id string) error {
	return s.c.del(ctx, "/api/v1/mappings/"+url.PathEscape(id), nil, nil)
}
