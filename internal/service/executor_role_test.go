package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/connector"
	"github.com/crossidm/idsync/internal/models"
)

func roleMappings(systemID uuid.UUID) []models.AttributeMapping {
	return []models.AttributeMapping{
		{SystemID: systemID, EntityType: models.EntityTypeRole, Name: "cn", Property: "name", UID: true, EntityAttribute: true, Seq: 0},
		{SystemID: systemID, EntityType: models.EntityTypeRole, Name: "kind", Property: "roleType", EntityAttribute: true, Seq: 1},
		{SystemID: systemID, EntityType: models.EntityTypeRole, Name: "description", Property: "description", EntityAttribute: true, Seq: 2},
	}
}

func newRoleItem(systemID uuid.UUID, uid string, attrs map[string]any) *SyncItem {
	return &SyncItem{
		Config: &models.SyncConfig{
			SystemID:    systemID,
			EntityType:  models.EntityTypeRole,
			ObjectClass: "groupOfNames",
		},
		Object:   connector.Object{UID: uid, Attributes: attrs},
		UID:      uid,
		Mappings: roleMappings(systemID),
		ItemLog:  &models.SyncItemLog{Identification: uid},
	}
}

func TestRoleExecutor_CreateParsesRoleType(t *testing.T) {
	systemID := uuid.New()
	roles := newFakeRoles()
	exec := NewRoleExecutor(newFakeAccounts(), roles, nil, testResolver(), testLogger())

	item := newRoleItem(systemID, "admins", map[string]any{
		"cn":          "admins",
		"kind":        "TECHNICAL",
		"description": "admin group",
	})

	if err := exec.ResolveMissingEntity(context.Background(), models.ActionCreateEntity, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, _ := roles.FindByProperty(context.Background(), "name", "admins")
	if len(matches) != 1 {
		t.Fatal("role not created")
	}
	if matches[0].RoleType != models.RoleTypeTechnical {
		t.Errorf("roleType = %s, want TECHNICAL", matches[0].RoleType)
	}
	if matches[0].Description != "admin group" {
		t.Errorf("description = %q, want %q", matches[0].Description, "admin group")
	}
}

func TestRoleExecutor_UnknownRoleTypeFailsItem(t *testing.T) {
	systemID := uuid.New()
	roles := newFakeRoles()
	exec := NewRoleExecutor(newFakeAccounts(), roles, nil, testResolver(), testLogger())

	item := newRoleItem(systemID, "odd", map[string]any{
		"cn":   "odd",
		"kind": "WHATEVER",
	})

	if err := exec.ResolveMissingEntity(context.Background(), models.ActionCreateEntity, item); err == nil {
		t.Fatal("unknown role type must fail the item")
	}

	if len(roles.roles) != 0 {
		t.Error("failed item must not create a role")
	}
}
