package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/connector"
	"github.com/crossidm/idsync/internal/models"
)

func identityMappings(systemID uuid.UUID) []models.AttributeMapping {
	return []models.AttributeMapping{
		{SystemID: systemID, EntityType: models.EntityTypeIdentity, Name: "login", Property: "username", UID: true, EntityAttribute: true, Seq: 0},
		{SystemID: systemID, EntityType: models.EntityTypeIdentity, Name: "givenName", Property: "firstName", EntityAttribute: true, Seq: 1},
		{SystemID: systemID, EntityType: models.EntityTypeIdentity, Name: "sn", Property: "lastName", EntityAttribute: true, Seq: 2},
		{SystemID: systemID, EntityType: models.EntityTypeIdentity, Name: "mail", Property: "email", EntityAttribute: true, Seq: 3},
		{SystemID: systemID, EntityType: models.EntityTypeIdentity, Name: "dept", Property: "department", Extended: true, Seq: 4},
		{SystemID: systemID, EntityType: models.EntityTypeIdentity, Name: "userPassword", Property: "password", Confidential: true, Seq: 5},
	}
}

func TestResolver_UID(t *testing.T) {
	r := testResolver()
	systemID := uuid.New()

	tests := []struct {
		name     string
		mappings []models.AttributeMapping
		obj      connector.Object
		want     string
		wantErr  error
	}{
		{
			name:     "plain uid",
			mappings: identityMappings(systemID),
			obj:      connector.Object{UID: "x1", Attributes: map[string]any{"login": "jdoe"}},
			want:     "jdoe",
		},
		{
			name: "transformed uid",
			mappings: []models.AttributeMapping{
				{Name: "login", Property: "username", UID: true, TransformScript: `lower(value)`},
			},
			obj:  connector.Object{UID: "x1", Attributes: map[string]any{"login": "JDoe"}},
			want: "jdoe",
		},
		{
			name:     "empty uid value",
			mappings: identityMappings(systemID),
			obj:      connector.Object{UID: "x1", Attributes: map[string]any{}},
			wantErr:  models.ErrUIDAttributeNotFound,
		},
		{
			name: "no uid mapping",
			mappings: []models.AttributeMapping{
				{Name: "mail", Property: "email", EntityAttribute: true},
			},
			obj:     connector.Object{UID: "x1", Attributes: map[string]any{"mail": "a@b"}},
			wantErr: models.ErrUIDAttributeNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.UID(tc.mappings, tc.obj)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("uid = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolver_ResolveBuckets(t *testing.T) {
	r := testResolver()
	mappings := identityMappings(uuid.New())

	obj := connector.Object{UID: "x1", Attributes: map[string]any{
		"login":        "jdoe",
		"givenName":    "John",
		"sn":           "Doe",
		"mail":         "jdoe@example.com",
		"dept":         "finance",
		"userPassword": "s3cret",
	}}

	resolved, err := r.Resolve(mappings, obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resolved.UID != "jdoe" {
		t.Errorf("uid = %q, want %q", resolved.UID, "jdoe")
	}
	// The UID mapping contributes no writable value.
	if _, ok := resolved.Entity["username"]; ok {
		t.Error("uid mapping leaked into entity values")
	}
	if got := resolved.Entity["firstName"]; got != "John" {
		t.Errorf("firstName = %v, want John", got)
	}
	if got := resolved.Extended["department"]; got != "finance" {
		t.Errorf("department = %v, want finance", got)
	}
	if got := resolved.Confidential["password"]; got != "s3cret" {
		t.Errorf("password = %v, want s3cret", got)
	}
	if _, ok := resolved.Entity["password"]; ok {
		t.Error("confidential value leaked into entity bucket")
	}
}

func TestResolver_ExportSkipsConfidential(t *testing.T) {
	r := testResolver()
	mappings := identityMappings(uuid.New())

	payload := r.Export(mappings, map[string]any{
		"firstName": "John",
		"password":  "s3cret",
		"unknown":   "dropped",
	})

	if got := payload["givenName"]; got != "John" {
		t.Errorf("givenName = %v, want John", got)
	}
	if _, ok := payload["userPassword"]; ok {
		t.Error("confidential attribute exported")
	}
	if len(payload) != 1 {
		t.Errorf("payload size = %d, want 1", len(payload))
	}
}

func TestApplyStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy models.MappingStrategy
		current  any
		value    any
		want     any
	}{
		{name: "set replaces", strategy: models.StrategySet, current: "old", value: "new", want: "new"},
		{name: "write if null keeps current", strategy: models.StrategyWriteIfNull, current: "old", value: "new", want: "old"},
		{name: "write if null fills empty", strategy: models.StrategyWriteIfNull, current: "", value: "new", want: "new"},
		{name: "default is set", strategy: "", current: "old", value: "new", want: "new"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Apply(tc.strategy, tc.current, tc.value); got != tc.want {
				t.Errorf("Apply = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestApplyMergeAccumulates(t *testing.T) {
	merged := Apply(models.StrategyMerge, []any{"a"}, "b")

	list, ok := merged.([]any)
	if !ok {
		t.Fatalf("merge result is %T, want []any", merged)
	}
	if len(list) != 2 || list[0] != "a" || list[1] != "b" {
		t.Errorf("merged = %v, want [a b]", list)
	}

	// Merging an already-present value must not duplicate it.
	again := Apply(models.StrategyMerge, list, "b")
	if got := len(again.([]any)); got != 2 {
		t.Errorf("merge duplicated: len = %d, want 2", got)
	}
}

func TestResolver_FilterMatch(t *testing.T) {
	r := testResolver()

	obj := connector.Object{UID: "jdoe", Attributes: map[string]any{"active": true, "dept": "finance"}}

	tests := []struct {
		name   string
		script string
		want   bool
	}{
		{name: "empty script matches all", script: "", want: true},
		{name: "attribute match", script: `attributes.dept == "finance"`, want: true},
		{name: "attribute mismatch", script: `attributes.dept == "hr"`, want: false},
		{name: "uid binding", script: `uid == "jdoe"`, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.FilterMatch(tc.script, obj)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("match = %v, want %v", got, tc.want)
			}
		})
	}
}
