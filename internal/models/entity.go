package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the internal person record.
type Identity struct {
	ID           uuid.UUID      `json:"id"`
	Username     string         `json:"username"`
	FirstName    string         `json:"first_name,omitempty"`
	LastName     string         `json:"last_name,omitempty"`
	Email        string         `json:"email,omitempty"`
	Disabled     bool           `json:"disabled"`
	Extended     map[string]any `json:"extended,omitempty"`
	Confidential map[string]any `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Role is the internal role record.
type Role struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	RoleType     RoleType       `json:"role_type,omitempty"`
	Description  string         `json:"description,omitempty"`
	Extended     map[string]any `json:"extended,omitempty"`
	Confidential map[string]any `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TreeNode is the internal organizational tree record. Parent ordering is an
// invariant for synchronization: a parent node must exist before its children
// are linked, so tree sync processes the snapshot root-first.
type TreeNode struct {
	ID           uuid.UUID      `json:"id"`
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	ExternalID   string         `json:"external_id,omitempty"`
	ParentID     *uuid.UUID     `json:"parent_id,omitempty"`
	Extended     map[string]any `json:"extended,omitempty"`
	Confidential map[string]any `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
