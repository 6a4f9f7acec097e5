package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/models"
	"github.com/crossidm/idsync/internal/script"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func testResolver() *Resolver {
	return NewResolver(script.NewEvaluator(), testLogger())
}

// fakeAccounts is an in-memory AccountStore.
type fakeAccounts struct {
	mu             sync.Mutex
	calls          []string
	systemEntities map[uuid.UUID]*models.SystemEntity
	accounts       map[uuid.UUID]*models.Account
	links          []models.EntityAccount

	// failListLinks is returned once by ListEntityAccountsByAccount.
	failListLinks error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		systemEntities: make(map[uuid.UUID]*models.SystemEntity),
		accounts:       make(map[uuid.UUID]*models.Account),
	}
}

func (f *fakeAccounts) record(name string) {
	f.calls = append(f.calls, name)
}

func (f *fakeAccounts) GetOrCreateSystemEntity(_ context.Context, systemID uuid.UUID, entityType models.EntityType, uid string) (*models.SystemEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetOrCreateSystemEntity")

	for _, se := range f.systemEntities {
		if se.SystemID == systemID && se.EntityType == entityType && se.UID == uid {
			return se, nil
		}
	}

	se := &models.SystemEntity{ID: uuid.New(), SystemID: systemID, EntityType: entityType, UID: uid}
	f.systemEntities[se.ID] = se

	return se, nil
}

func (f *fakeAccounts) FindAccountByUID(_ context.Context, systemID uuid.UUID, entityType models.EntityType, uid string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindAccountByUID")

	for _, a := range f.accounts {
		if a.SystemID == systemID && a.EntityType == entityType && a.UID == uid {
			return a, nil
		}
	}

	return nil, models.ErrAccountNotFound
}

func (f *fakeAccounts) CreateAccount(_ context.Context, systemID, systemEntityID uuid.UUID, uid string, entityType models.EntityType) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateAccount")

	for _, a := range f.accounts {
		if a.SystemID == systemID && a.EntityType == entityType && a.UID == uid {
			return nil, models.ErrDuplicateKey
		}
	}

	a := &models.Account{ID: uuid.New(), SystemID: systemID, SystemEntityID: systemEntityID, UID: uid, EntityType: entityType}
	f.accounts[a.ID] = a

	return a, nil
}

func (f *fakeAccounts) LinkAccount(_ context.Context, accountID, entityID uuid.UUID, entityType models.EntityType, ownership bool, roleAssignmentID *uuid.UUID) (*models.EntityAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LinkAccount")

	for i := range f.links {
		if f.links[i].AccountID == accountID && f.links[i].EntityID == entityID {
			return &f.links[i], nil
		}
	}

	link := models.EntityAccount{
		ID:               uuid.New(),
		AccountID:        accountID,
		EntityID:         entityID,
		EntityType:       entityType,
		Ownership:        ownership,
		RoleAssignmentID: roleAssignmentID,
	}
	f.links = append(f.links, link)

	return &link, nil
}

func (f *fakeAccounts) ListEntityAccountsByAccount(_ context.Context, accountID uuid.UUID) ([]models.EntityAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failListLinks != nil {
		err := f.failListLinks
		f.failListLinks = nil

		return nil, err
	}

	var out []models.EntityAccount

	for i := range f.links {
		if f.links[i].AccountID == accountID {
			out = append(out, f.links[i])
		}
	}

	return out, nil
}

func (f *fakeAccounts) ListAccountsBySystem(_ context.Context, systemID uuid.UUID, entityType models.EntityType) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Account

	for _, a := range f.accounts {
		if a.SystemID == systemID && a.EntityType == entityType {
			out = append(out, *a)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })

	return out, nil
}

func (f *fakeAccounts) UnlinkAccount(_ context.Context, accountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UnlinkAccount")

	kept := f.links[:0]

	for i := range f.links {
		if f.links[i].AccountID != accountID {
			kept = append(kept, f.links[i])
		}
	}

	f.links = kept

	return nil
}

func (f *fakeAccounts) DeleteAccount(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteAccount")

	delete(f.accounts, id)

	kept := f.links[:0]

	for i := range f.links {
		if f.links[i].AccountID != id {
			kept = append(kept, f.links[i])
		}
	}

	f.links = kept

	return nil
}

func (f *fakeAccounts) DeleteSystemEntity(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSystemEntity")

	delete(f.systemEntities, id)

	return nil
}

// fakeIdentities is an in-memory IdentityRepo.
type fakeIdentities struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*models.Identity
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{identities: make(map[uuid.UUID]*models.Identity)}
}

func (f *fakeIdentities) CreateIdentity(_ context.Context, i models.Identity) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i.ID = uuid.New()
	f.identities[i.ID] = &i

	return &i, nil
}

func (f *fakeIdentities) GetIdentity(_ context.Context, id uuid.UUID) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.identities[id]
	if !ok {
		return nil, models.ErrEntityNotFound
	}

	copied := *i

	return &copied, nil
}

func (f *fakeIdentities) UpdateIdentity(_ context.Context, i models.Identity) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.identities[i.ID]; !ok {
		return nil, models.ErrEntityNotFound
	}

	f.identities[i.ID] = &i

	return &i, nil
}

func (f *fakeIdentities) DeleteIdentity(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.identities[id]; !ok {
		return models.ErrEntityNotFound
	}

	delete(f.identities, id)

	return nil
}

func (f *fakeIdentities) FindByProperty(_ context.Context, property string, value any) ([]models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	want := asString(value)

	var out []models.Identity

	for _, i := range f.identities {
		var got string

		switch property {
		case "username":
			got = i.Username
		case "firstName":
			got = i.FirstName
		case "lastName":
			got = i.LastName
		case "email":
			got = i.Email
		default:
			got = asString(i.Extended[property])
		}

		if got == want {
			out = append(out, *i)
		}
	}

	return out, nil
}

func (f *fakeIdentities) SetConfidential(_ context.Context, id uuid.UUID, _ string, values map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.identities[id]
	if !ok {
		return models.ErrEntityNotFound
	}

	i.Confidential = values

	return nil
}

// fakeRoles is an in-memory RoleRepo.
type fakeRoles struct {
	mu    sync.Mutex
	roles map[uuid.UUID]*models.Role
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{roles: make(map[uuid.UUID]*models.Role)}
}

func (f *fakeRoles) CreateRole(_ context.Context, r models.Role) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r.ID = uuid.New()
	f.roles[r.ID] = &r

	return &r, nil
}

func (f *fakeRoles) GetRole(_ context.Context, id uuid.UUID) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.roles[id]
	if !ok {
		return nil, models.ErrEntityNotFound
	}

	copied := *r

	return &copied, nil
}

func (f *fakeRoles) UpdateRole(_ context.Context, r models.Role) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.roles[r.ID]; !ok {
		return nil, models.ErrEntityNotFound
	}

	f.roles[r.ID] = &r

	return &r, nil
}

func (f *fakeRoles) DeleteRole(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.roles[id]; !ok {
		return models.ErrEntityNotFound
	}

	delete(f.roles, id)

	return nil
}

func (f *fakeRoles) FindByProperty(_ context.Context, property string, value any) ([]models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	want := asString(value)

	var out []models.Role

	for _, r := range f.roles {
		var got string

		switch property {
		case "name":
			got = r.Name
		case "roleType":
			got = string(r.RoleType)
		case "description":
			got = r.Description
		default:
			got = asString(r.Extended[property])
		}

		if got == want {
			out = append(out, *r)
		}
	}

	return out, nil
}

func (f *fakeRoles) SetConfidential(_ context.Context, id uuid.UUID, _ string, values map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.roles[id]
	if !ok {
		return models.ErrEntityNotFound
	}

	r.Confidential = values

	return nil
}

// fakeTrees is an in-memory TreeRepo.
type fakeTrees struct {
	mu    sync.Mutex
	nodes map[uuid.UUID]*models.TreeNode
}

func newFakeTrees() *fakeTrees {
	return &fakeTrees{nodes: make(map[uuid.UUID]*models.TreeNode)}
}

func (f *fakeTrees) CreateNode(_ context.Context, n models.TreeNode) (*models.TreeNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n.ID = uuid.New()
	f.nodes[n.ID] = &n

	return &n, nil
}

func (f *fakeTrees) GetNode(_ context.Context, id uuid.UUID) (*models.TreeNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.nodes[id]
	if !ok {
		return nil, models.ErrEntityNotFound
	}

	copied := *n

	return &copied, nil
}

func (f *fakeTrees) UpdateNode(_ context.Context, n models.TreeNode) (*models.TreeNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.nodes[n.ID]; !ok {
		return nil, models.ErrEntityNotFound
	}

	f.nodes[n.ID] = &n

	return &n, nil
}

func (f *fakeTrees) DeleteNode(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.nodes[id]; !ok {
		return models.ErrEntityNotFound
	}

	delete(f.nodes, id)

	for _, n := range f.nodes {
		if n.ParentID != nil && *n.ParentID == id {
			n.ParentID = nil
		}
	}

	return nil
}

func (f *fakeTrees) FindByProperty(_ context.Context, property string, value any) ([]models.TreeNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	want := asString(value)

	var out []models.TreeNode

	for _, n := range f.nodes {
		var got string

		switch property {
		case "code":
			got = n.Code
		case "name":
			got = n.Name
		case "externalId":
			got = n.ExternalID
		default:
			got = asString(n.Extended[property])
		}

		if got == want {
			out = append(out, *n)
		}
	}

	return out, nil
}

func (f *fakeTrees) SetConfidential(_ context.Context, id uuid.UUID, _ string, values map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.nodes[id]
	if !ok {
		return models.ErrEntityNotFound
	}

	n.Confidential = values

	return nil
}

func (f *fakeTrees) countRoots() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0

	for _, n := range f.nodes {
		if n.ParentID == nil {
			count++
		}
	}

	return count
}

// fakeRunLogs is an in-memory RunLogStore.
type fakeRunLogs struct {
	mu         sync.Mutex
	logs       []*models.SyncLog
	actionLogs []*models.SyncActionLog
	itemLogs   []models.SyncItemLog
}

func newFakeRunLogs() *fakeRunLogs {
	return &fakeRunLogs{}
}

func (f *fakeRunLogs) CreateLog(_ context.Context, configID uuid.UUID, token string) (*models.SyncLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	log := &models.SyncLog{
		ID:           uuid.New(),
		SyncConfigID: configID,
		Running:      true,
		Started:      time.Now(),
		Token:        token,
	}
	f.logs = append(f.logs, log)

	return log, nil
}

func (f *fakeRunLogs) CloseLog(_ context.Context, log *models.SyncLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, l := range f.logs {
		if l.ID == log.ID {
			now := time.Now()
			l.Running = false
			l.Ended = &now
			l.Token = log.Token
			l.Log = log.Log
			l.ContainsError = log.ContainsError

			return nil
		}
	}

	return models.ErrSyncNotRunning
}

func (f *fakeRunLogs) FindRunningLog(_ context.Context, configID uuid.UUID) (*models.SyncLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, l := range f.logs {
		if l.SyncConfigID == configID && l.Running {
			copied := *l

			return &copied, nil
		}
	}

	return nil, nil
}

func (f *fakeRunLogs) LastToken(_ context.Context, configID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.logs) - 1; i >= 0; i-- {
		l := f.logs[i]
		if l.SyncConfigID == configID && !l.Running && !l.ContainsError {
			return l.Token, nil
		}
	}

	return "", nil
}

func (f *fakeRunLogs) ListLogs(_ context.Context, configID uuid.UUID, limit int) ([]models.SyncLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.SyncLog

	for i := len(f.logs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if f.logs[i].SyncConfigID == configID {
			out = append(out, *f.logs[i])
		}
	}

	return out, nil
}

func (f *fakeRunLogs) EnsureActionLog(_ context.Context, syncLogID uuid.UUID, situation models.Situation, action models.SyncAction, result models.ResultType) (*models.SyncActionLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, al := range f.actionLogs {
		if al.SyncLogID == syncLogID && al.Situation == situation && al.Action == action && al.Result == result {
			al.OperationCount++
			copied := *al

			return &copied, nil
		}
	}

	al := &models.SyncActionLog{
		ID:             uuid.New(),
		SyncLogID:      syncLogID,
		Situation:      situation,
		Action:         action,
		Result:         result,
		OperationCount: 1,
	}
	f.actionLogs = append(f.actionLogs, al)
	copied := *al

	return &copied, nil
}

func (f *fakeRunLogs) AddItemLog(_ context.Context, item models.SyncItemLog) (*models.SyncItemLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item.ID = uuid.New()
	f.itemLogs = append(f.itemLogs, item)

	return &item, nil
}

func (f *fakeRunLogs) ListActionLogs(_ context.Context, syncLogID uuid.UUID) ([]models.SyncActionLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.SyncActionLog

	for _, al := range f.actionLogs {
		if al.SyncLogID == syncLogID {
			out = append(out, *al)
		}
	}

	return out, nil
}

func (f *fakeRunLogs) ListItemLogs(_ context.Context, actionLogID uuid.UUID) ([]models.SyncItemLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.SyncItemLog

	for i := range f.itemLogs {
		if f.itemLogs[i].SyncActionLogID == actionLogID {
			out = append(out, f.itemLogs[i])
		}
	}

	return out, nil
}

func (f *fakeRunLogs) itemLogsForRun(syncLogID uuid.UUID) []models.SyncItemLog {
	f.mu.Lock()
	defer f.mu.Unlock()

	byAction := make(map[uuid.UUID]bool)

	for _, al := range f.actionLogs {
		if al.SyncLogID == syncLogID {
			byAction[al.ID] = true
		}
	}

	var out []models.SyncItemLog

	for i := range f.itemLogs {
		if byAction[f.itemLogs[i].SyncActionLogID] {
			out = append(out, f.itemLogs[i])
		}
	}

	return out
}

// fakeQueue is an in-memory QueueStore.
type fakeQueue struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*models.ProvisioningBatch
	ops     []*models.ProvisioningOperation
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{batches: make(map[uuid.UUID]*models.ProvisioningBatch)}
}

func (f *fakeQueue) EnqueueOperation(_ context.Context, op models.ProvisioningOperation) (*models.ProvisioningOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var batch *models.ProvisioningBatch

	for _, b := range f.batches {
		if b.SystemID != op.SystemID || b.SystemEntityUID != op.SystemEntityUID {
			continue
		}

		sameEntity := (b.EntityID == nil && op.EntityID == nil) ||
			(b.EntityID != nil && op.EntityID != nil && *b.EntityID == *op.EntityID)
		if sameEntity {
			batch = b

			break
		}
	}

	if batch == nil {
		batch = &models.ProvisioningBatch{
			ID:              uuid.New(),
			SystemID:        op.SystemID,
			EntityID:        op.EntityID,
			SystemEntityUID: op.SystemEntityUID,
			CreatedAt:       time.Now(),
		}
		f.batches[batch.ID] = batch
	}

	op.ID = uuid.New()
	op.BatchID = batch.ID
	op.ResultState = models.OperationCreated
	op.CreatedAt = time.Now()
	f.ops = append(f.ops, &op)
	copied := op

	return &copied, nil
}

func (f *fakeQueue) GetBatch(_ context.Context, id uuid.UUID) (*models.ProvisioningBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.batches[id]
	if !ok {
		return nil, models.ErrEntityNotFound
	}

	copied := *b

	return &copied, nil
}

func (f *fakeQueue) ListDueBatches(_ context.Context, now time.Time, limit int) ([]models.ProvisioningBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.ProvisioningBatch

	for _, b := range f.batches {
		if b.NextAttempt == nil || !b.NextAttempt.After(now) {
			out = append(out, *b)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (f *fakeQueue) ListPendingOperations(_ context.Context, batchID uuid.UUID) ([]models.ProvisioningOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.ProvisioningOperation

	for _, op := range f.ops {
		if op.BatchID != batchID {
			continue
		}

		if op.ResultState == models.OperationCreated || op.ResultState == models.OperationException {
			out = append(out, *op)
		}
	}

	return out, nil
}

func (f *fakeQueue) ListOperations(_ context.Context, state models.OperationState, limit int) ([]models.ProvisioningOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.ProvisioningOperation

	for _, op := range f.ops {
		if op.ResultState == state {
			out = append(out, *op)
		}

		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

func (f *fakeQueue) UpdateOperationResult(_ context.Context, id uuid.UUID, state models.OperationState, message string, attempt int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, op := range f.ops {
		if op.ID == id {
			op.ResultState = state
			op.ResultMessage = message
			op.Attempt = attempt

			return nil
		}
	}

	return models.ErrEntityNotFound
}

func (f *fakeQueue) SetBatchNextAttempt(_ context.Context, batchID uuid.UUID, next *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.batches[batchID]
	if !ok {
		return models.ErrEntityNotFound
	}

	b.NextAttempt = next

	return nil
}

func (f *fakeQueue) DeleteBatchIfDone(_ context.Context, batchID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, op := range f.ops {
		if op.BatchID != batchID {
			continue
		}

		if op.ResultState == models.OperationCreated || op.ResultState == models.OperationException {
			return false, nil
		}
	}

	if _, ok := f.batches[batchID]; !ok {
		return false, nil
	}

	delete(f.batches, batchID)

	return true, nil
}

func (f *fakeQueue) QueueDepth(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	depth := 0

	for _, op := range f.ops {
		if op.ResultState == models.OperationCreated || op.ResultState == models.OperationException {
			depth++
		}
	}

	return depth, nil
}

func (f *fakeQueue) operationsByUID(uid string) []models.ProvisioningOperation {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.ProvisioningOperation

	for _, op := range f.ops {
		if op.SystemEntityUID == uid {
			out = append(out, *op)
		}
	}

	return out
}

// stubConfigs is a ConfigReader over a fixed set of configs.
type stubConfigs struct {
	configs map[uuid.UUID]*models.SyncConfig
}

func (s *stubConfigs) GetConfig(_ context.Context, id uuid.UUID) (*models.SyncConfig, error) {
	cfg, ok := s.configs[id]
	if !ok {
		return nil, models.ErrSyncConfigNotFound
	}

	copied := *cfg

	return &copied, nil
}

// stubSystems is a SystemReader over a fixed set of systems.
type stubSystems struct {
	systems map[uuid.UUID]*models.System
}

func (s *stubSystems) GetSystem(_ context.Context, id uuid.UUID) (*models.System, error) {
	system, ok := s.systems[id]
	if !ok {
		return nil, models.ErrSystemNotFound
	}

	copied := *system

	return &copied, nil
}

// stubMappings is a MappingReader over a fixed mapping set.
type stubMappings struct {
	mappings []models.AttributeMapping
}

func (s *stubMappings) ListMappings(_ context.Context, systemID uuid.UUID, entityType models.EntityType) ([]models.AttributeMapping, error) {
	var out []models.AttributeMapping

	for _, m := range s.mappings {
		if m.SystemID == systemID && m.EntityType == entityType && !m.Disabled {
			out = append(out, m)
		}
	}

	return out, nil
}

// mockAuditor records audit calls.
type mockAuditor struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (m *mockAuditor) RecordAudit(_ context.Context, action, entityType, entityID, actor string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, models.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Detail:     detail,
	})

	return nil
}

func (m *mockAuditor) getEntries() []models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.AuditEntry, len(m.entries))
	copy(out, m.entries)

	return out
}
