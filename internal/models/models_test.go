package models

import (
	"errors"
	"testing"
)

func TestValidateAction(t *testing.T) {
	tests := []struct {
		name      string
		situation Situation
		action    SyncAction
		wantErr   bool
	}{
		{"missing entity create", SituationMissingEntity, ActionCreateEntity, false},
		{"missing entity ignore", SituationMissingEntity, ActionIgnore, false},
		{"missing entity delete rejected", SituationMissingEntity, ActionDeleteEntity, true},
		{"linked update entity", SituationLinked, ActionUpdateEntity, false},
		{"linked create rejected", SituationLinked, ActionCreateEntity, true},
		{"unlinked link", SituationUnlinked, ActionLink, false},
		{"unlinked unlink rejected", SituationUnlinked, ActionUnlink, true},
		{"missing account unlink", SituationMissingAccount, ActionUnlink, false},
		{"missing account delete", SituationMissingAccount, ActionDeleteEntity, false},
		{"missing account update rejected", SituationMissingAccount, ActionUpdateEntity, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAction(tc.situation, tc.action)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %s/%s", tc.situation, tc.action)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr && !errors.Is(err, ErrUnsupportedAction) {
				t.Errorf("error %v is not ErrUnsupportedAction", err)
			}
		})
	}
}

func TestSyncConfigValidate(t *testing.T) {
	cfg := SyncConfig{
		EntityType:           EntityTypeTreeNode,
		LinkedAction:         ActionUpdateEntity,
		UnlinkedAction:       ActionIgnore,
		MissingEntityAction:  ActionCreateEntity,
		MissingAccountAction: ActionDeleteEntity,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.MissingAccountAction = ActionCreateEntity
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for CREATE_ENTITY on missing account")
	}

	cfg.MissingAccountAction = ActionIgnore
	cfg.EntityType = "WIDGET"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown entity type")
	}
}

func TestUIDMapping(t *testing.T) {
	mappings := []AttributeMapping{
		{Name: "__NAME__", Property: "external_id", UID: true},
		{Name: "code", Property: "code"},
	}

	uid, err := UIDMapping(mappings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid.Name != "__NAME__" {
		t.Errorf("got uid mapping %q, want __NAME__", uid.Name)
	}

	if _, err := UIDMapping(mappings[1:]); err == nil {
		t.Fatal("expected error when no uid mapping present")
	}

	mappings[1].UID = true
	if _, err := UIDMapping(mappings); err == nil {
		t.Fatal("expected error for two uid mappings")
	}
}

func TestSyncItemLogAppend(t *testing.T) {
	var l SyncItemLog
	l.Append("first")
	l.Append("second")

	if l.Log != "first\nsecond" {
		t.Errorf("got log %q", l.Log)
	}

	var nilLog *SyncItemLog
	nilLog.Append("ignored") // must not panic
}

func TestParseRoleType(t *testing.T) {
	rt, err := ParseRoleType("BUSINESS")
	if err != nil || rt != RoleTypeBusiness {
		t.Fatalf("got %v, %v", rt, err)
	}

	if _, err := ParseRoleType("bogus"); err == nil {
		t.Fatal("expected error for unknown role type")
	}
}
