package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/connector"
	"github.com/crossidm/idsync/internal/metrics"
	"github.com/crossidm/idsync/internal/models"
)

// ConfigReader loads sync configurations. *store.SyncConfigStore implements it.
type ConfigReader interface {
	GetConfig(ctx context.Context, id uuid.UUID) (*models.SyncConfig, error)
}

// SystemReader loads systems. *store.SystemStore implements it.
type SystemReader interface {
	GetSystem(ctx context.Context, id uuid.UUID) (*models.System, error)
}

// MappingReader loads attribute mappings. *store.MappingStore implements it.
type MappingReader interface {
	ListMappings(ctx context.Context, systemID uuid.UUID, entityType models.EntityType) ([]models.AttributeMapping, error)
}

// RunLogStore persists the sync log tree. *store.SyncLogStore implements it.
type RunLogStore interface {
	CreateLog(ctx context.Context, configID uuid.UUID, token string) (*models.SyncLog, error)
	CloseLog(ctx context.Context, log *models.SyncLog) error
	FindRunningLog(ctx context.Context, configID uuid.UUID) (*models.SyncLog, error)
	LastToken(ctx context.Context, configID uuid.UUID) (string, error)
	ListLogs(ctx context.Context, configID uuid.UUID, limit int) ([]models.SyncLog, error)
	EnsureActionLog(ctx context.Context, syncLogID uuid.UUID, situation models.Situation, action models.SyncAction, result models.ResultType) (*models.SyncActionLog, error)
	AddItemLog(ctx context.Context, item models.SyncItemLog) (*models.SyncItemLog, error)
	ListActionLogs(ctx context.Context, syncLogID uuid.UUID) ([]models.SyncActionLog, error)
	ListItemLogs(ctx context.Context, actionLogID uuid.UUID) ([]models.SyncItemLog, error)
}

// SyncService orchestrates synchronization runs: it pulls a snapshot from
// the system's connector, classifies every remote object, dispatches the
// configured action to the entity-type executor, and writes the run's log
// tree. At most one run per config is active at a time; cancellation is
// cooperative between items.
type SyncService struct {
	configs    ConfigReader
	systems    SystemReader
	mappings   MappingReader
	accounts   AccountStore
	logs       RunLogStore
	registry   *ExecutorRegistry
	classifier *Classifier
	resolver   *Resolver
	connectors *connector.Registry
	audit      *AuditWorker
	log        *logrus.Logger

	mu   sync.Mutex
	runs map[uuid.UUID]*syncRun
}

// syncRun is the in-memory handle of one active run. The cancelled flag is
// the cooperative cancellation point checked between items.
type syncRun struct {
	logID     uuid.UUID
	cancelled atomic.Bool
}

// SyncDeps bundles the collaborators of a SyncService.
type SyncDeps struct {
	Configs    ConfigReader
	Systems    SystemReader
	Mappings   MappingReader
	Accounts   AccountStore
	Logs       RunLogStore
	Registry   *ExecutorRegistry
	Resolver   *Resolver
	Connectors *connector.Registry
	Audit      *AuditWorker
	Log        *logrus.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(deps SyncDeps) *SyncService {
	return &SyncService{
		configs:    deps.Configs,
		systems:    deps.Systems,
		mappings:   deps.Mappings,
		accounts:   deps.Accounts,
		logs:       deps.Logs,
		registry:   deps.Registry,
		classifier: NewClassifier(deps.Accounts),
		resolver:   deps.Resolver,
		connectors: deps.Connectors,
		audit:      deps.Audit,
		log:        deps.Log,
	}
}

// runContext carries everything one run needs. Loaded fresh per start so a
// single service instance can serve many sequential and parallel runs.
type runContext struct {
	cfg           *models.SyncConfig
	system        *models.System
	mappings      []models.AttributeMapping
	executor      SituationExecutor
	conn          connector.Connector
	syncLog       *models.SyncLog
	run           *syncRun
	seen          map[string]bool
	containsError bool
	itemCount     int
}

// StartSync runs one synchronization pass for the config and blocks until it
// completes, fails or is cancelled. Configuration problems abort before any
// item is processed; item-level failures are logged and do not stop the run.
func (s *SyncService) StartSync(ctx context.Context, configID uuid.UUID) (*models.SyncLog, error) {
	rc, err := s.prepare(ctx, configID)
	if err != nil {
		return nil, err
	}

	defer s.finish(ctx, rc)

	started := time.Now()

	s.log.WithFields(logrus.Fields{
		"config":      rc.cfg.Name,
		"entity_type": rc.cfg.EntityType,
		"system":      rc.system.Name,
	}).Info("sync started")

	runErr := s.process(ctx, rc)

	outcome := "completed"

	switch {
	case runErr != nil:
		outcome = "failed"
		rc.containsError = true
	case rc.run.cancelled.Load():
		outcome = "cancelled"
	}

	metrics.SyncRunsTotal.WithLabelValues(string(rc.cfg.EntityType), outcome).Inc()
	metrics.SyncRunDuration.WithLabelValues(string(rc.cfg.EntityType)).Observe(time.Since(started).Seconds())

	if s.audit != nil {
		s.audit.Enqueue(&AuditJob{
			Action:     "sync." + outcome,
			EntityType: "sync_config",
			EntityID:   configID.String(),
			Detail: map[string]any{
				"items":          rc.itemCount,
				"contains_error": rc.containsError,
			},
		})
	}

	if runErr != nil {
		return rc.syncLog, runErr
	}

	return rc.syncLog, nil
}

// prepare validates the config and opens the run: config enabled, system
// enabled, mappings with a UID attribute, no concurrent run for the config.
func (s *SyncService) prepare(ctx context.Context, configID uuid.UUID) (*runContext, error) {
	cfg, err := s.configs.GetConfig(ctx, configID)
	if err != nil {
		return nil, err
	}

	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: config %s is disabled", models.ErrSyncConfigNotFound, cfg.Name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	system, err := s.systems.GetSystem(ctx, cfg.SystemID)
	if err != nil {
		return nil, err
	}

	if system.Disabled {
		return nil, fmt.Errorf("%w: system %s is disabled", models.ErrSystemNotFound, system.Name)
	}

	mappings, err := s.mappings.ListMappings(ctx, cfg.SystemID, cfg.EntityType)
	if err != nil {
		return nil, err
	}

	if len(mappings) == 0 {
		return nil, models.ErrMissingMapping
	}

	if _, err := models.UIDMapping(mappings); err != nil {
		return nil, err
	}

	executor, err := s.registry.ForType(cfg.EntityType)
	if err != nil {
		return nil, err
	}

	conn := s.connectors.Get(cfg.SystemID.String())
	if conn == nil {
		return nil, &models.ConnectorError{System: system.Name, Op: "resolve",
			Err: errors.New("no connector registered")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, active := s.runs[configID]; active {
		return nil, models.ErrSyncAlreadyRunning
	}

	if running, err := s.logs.FindRunningLog(ctx, configID); err != nil {
		return nil, err
	} else if running != nil {
		return nil, models.ErrSyncAlreadyRunning
	}

	token, err := s.logs.LastToken(ctx, configID)
	if err != nil {
		return nil, err
	}

	syncLog, err := s.logs.CreateLog(ctx, configID, token)
	if err != nil {
		return nil, err
	}

	run := &syncRun{logID: syncLog.ID}

	if s.runs == nil {
		s.runs = make(map[uuid.UUID]*syncRun)
	}

	s.runs[configID] = run

	return &runContext{
		cfg:      cfg,
		system:   system,
		mappings: mappings,
		executor: executor,
		conn:     conn,
		syncLog:  syncLog,
		run:      run,
		seen:     make(map[string]bool),
	}, nil
}

// finish closes the run log and releases the config's run slot.
func (s *SyncService) finish(ctx context.Context, rc *runContext) {
	rc.syncLog.ContainsError = rc.containsError

	if err := s.logs.CloseLog(ctx, rc.syncLog); err != nil {
		s.log.WithError(err).Error("closing sync log failed")
	}

	s.mu.Lock()
	delete(s.runs, rc.cfg.ID)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"config":         rc.cfg.Name,
		"items":          rc.itemCount,
		"contains_error": rc.containsError,
		"cancelled":      rc.run.cancelled.Load(),
	}).Info("sync finished")
}

// process iterates the snapshot, then, in reconciliation mode, the accounts
// absent from it.
func (s *SyncService) process(ctx context.Context, rc *runContext) error {
	snap, err := rc.conn.FetchObjects(ctx, rc.cfg.ObjectClass, rc.syncLog.Token)
	if err != nil {
		return err
	}

	if planner, ok := rc.executor.(snapshotPlanner); ok {
		if err := s.processPlanned(ctx, rc, snap, planner); err != nil {
			return err
		}
	} else {
		for {
			obj, ok := snap.Next(ctx)
			if !ok {
				break
			}

			if rc.run.cancelled.Load() {
				return nil
			}

			s.processObject(ctx, rc, obj)
		}

		if err := snap.Err(); err != nil {
			return err
		}
	}

	rc.syncLog.Token = snap.Token()

	if rc.cfg.Reconciliation && !rc.run.cancelled.Load() {
		return s.processMissingAccounts(ctx, rc)
	}

	return nil
}

// processPlanned drains the snapshot and lets the executor order it before
// item processing. Tree sync needs parents before children.
func (s *SyncService) processPlanned(ctx context.Context, rc *runContext, snap connector.Snapshot, planner snapshotPlanner) error {
	var objects []connector.Object

	for {
		obj, ok := snap.Next(ctx)
		if !ok {
			break
		}

		objects = append(objects, obj)
	}

	if err := snap.Err(); err != nil {
		return err
	}

	ordered, err := planner.PlanObjects(rc.cfg, rc.mappings, objects)
	if err != nil {
		return err
	}

	for _, obj := range ordered {
		if rc.run.cancelled.Load() {
			return nil
		}

		s.processObject(ctx, rc, obj)
	}

	return nil
}

// processObject handles one remote object end to end. Failures are written
// to the item log and never propagate: the run continues with the next item.
func (s *SyncService) processObject(ctx context.Context, rc *runContext, obj connector.Object) {
	itemLog := &models.SyncItemLog{Identification: obj.UID}

	match, err := s.resolver.FilterMatch(rc.cfg.CustomFilterScript, obj)
	if err != nil {
		s.failItem(ctx, rc, itemLog, models.SituationLinked, models.ActionIgnore, err)

		return
	}

	if !match {
		s.log.WithField("uid", obj.UID).Debug("object filtered out")

		return
	}

	uid, err := s.resolver.UID(rc.mappings, obj)
	if err != nil {
		s.failItem(ctx, rc, itemLog, models.SituationLinked, models.ActionIgnore, err)

		return
	}

	itemLog.Identification = uid
	itemLog.DisplayName = asString(obj.Attributes["name"])
	rc.seen[uid] = true

	corrProperty, corrValue := s.correlationInput(rc, obj)

	cls, err := s.classifier.Classify(ctx, rc.cfg.SystemID, rc.cfg.EntityType,
		uid, corrValue, corrProperty, rc.executor.Finder())
	if err != nil {
		// Correlation ambiguity is a typed per-item error; the item is
		// skipped, the run continues.
		s.failItem(ctx, rc, itemLog, models.SituationUnlinked, rc.cfg.UnlinkedAction, err)

		return
	}

	item := &SyncItem{
		Config:   rc.cfg,
		Object:   obj,
		UID:      uid,
		Account:  cls.Account,
		EntityID: cls.EntityID,
		Mappings: rc.mappings,
		ItemLog:  itemLog,
	}

	action := rc.cfg.ActionFor(cls.Situation)

	err = s.dispatch(ctx, rc, cls.Situation, action, item)

	s.recordItem(ctx, rc, itemLog, cls.Situation, action, err)
}

// dispatch routes one item to the executor method for its situation.
func (s *SyncService) dispatch(ctx context.Context, rc *runContext, situation models.Situation, action models.SyncAction, item *SyncItem) error {
	switch situation {
	case models.SituationLinked:
		return rc.executor.ResolveLinked(ctx, action, item)
	case models.SituationUnlinked:
		return rc.executor.ResolveUnlinked(ctx, action, item)
	case models.SituationMissingEntity:
		return rc.executor.ResolveMissingEntity(ctx, action, item)
	case models.SituationMissingAccount:
		return rc.executor.ResolveMissingAccount(ctx, action, item)
	}

	return fmt.Errorf("unknown situation %s", situation)
}

// processMissingAccounts is the reconciliation inverse pass: every internal
// account of the config's system whose UID was absent from the snapshot is
// resolved as MISSING_ACCOUNT.
func (s *SyncService) processMissingAccounts(ctx context.Context, rc *runContext) error {
	accounts, err := s.accounts.ListAccountsBySystem(ctx, rc.cfg.SystemID, rc.cfg.EntityType)
	if err != nil {
		return err
	}

	for i := range accounts {
		if rc.run.cancelled.Load() {
			return nil
		}

		account := accounts[i]

		if rc.seen[account.UID] {
			continue
		}

		itemLog := &models.SyncItemLog{Identification: account.UID}
		action := rc.cfg.ActionFor(models.SituationMissingAccount)

		links, err := s.accounts.ListEntityAccountsByAccount(ctx, account.ID)
		if err != nil {
			// Resolving without the owning entity would orphan it on a
			// destructive action. Fail the item, keep the account intact.
			s.failItem(ctx, rc, itemLog, models.SituationMissingAccount, action, err)

			continue
		}

		var entityID *uuid.UUID

		for j := range links {
			if links[j].Ownership {
				entityID = &links[j].EntityID

				break
			}
		}

		if entityID == nil && len(links) > 0 {
			entityID = &links[0].EntityID
		}

		item := &SyncItem{
			Config:   rc.cfg,
			UID:      account.UID,
			Account:  &account,
			EntityID: entityID,
			Mappings: rc.mappings,
			ItemLog:  itemLog,
		}

		resolveErr := rc.executor.ResolveMissingAccount(ctx, action, item)

		s.recordItem(ctx, rc, itemLog, models.SituationMissingAccount, action, resolveErr)
	}

	return nil
}

// correlationInput resolves the correlation property and value for a remote
// object. The config names a remote attribute; when a mapping covers it, the
// lookup goes through the mapping's transform and internal property.
func (s *SyncService) correlationInput(rc *runContext, obj connector.Object) (string, any) {
	for _, m := range rc.mappings {
		if m.Name == rc.cfg.CorrelationAttribute {
			value, err := s.resolver.Value(m, obj)
			if err != nil {
				s.log.WithError(err).WithField("attribute", m.Name).
					Warn("correlation transform failed, using raw value")

				value = obj.Attributes[m.Name]
			}

			return m.Property, value
		}
	}

	return rc.cfg.CorrelationAttribute, obj.Attributes[rc.cfg.CorrelationAttribute]
}

// recordItem writes the item log into its lazily-created action log bucket.
func (s *SyncService) recordItem(
	ctx context.Context,
	rc *runContext,
	itemLog *models.SyncItemLog,
	situation models.Situation,
	action models.SyncAction,
	resolveErr error,
) {
	rc.itemCount++

	result := models.ResultSuccess

	switch {
	case resolveErr != nil:
		result = models.ResultError
		rc.containsError = true

		itemLog.Message = resolveErr.Error()

		s.log.WithError(resolveErr).WithFields(logrus.Fields{
			"uid":       itemLog.Identification,
			"situation": situation,
			"action":    action,
		}).Error("item resolution failed")
	case action == models.ActionIgnore:
		result = models.ResultIgnored
	}

	metrics.SyncItemsTotal.WithLabelValues(string(situation), string(action), string(result)).Inc()

	actionLog, err := s.logs.EnsureActionLog(ctx, rc.syncLog.ID, situation, action, result)
	if err != nil {
		s.log.WithError(err).Error("writing action log failed")

		return
	}

	itemLog.SyncActionLogID = actionLog.ID

	if _, err := s.logs.AddItemLog(ctx, *itemLog); err != nil {
		s.log.WithError(err).Error("writing item log failed")
	}
}

// failItem records a pre-dispatch failure (filter, uid, correlation) as an
// ERROR item without running any executor.
func (s *SyncService) failItem(
	ctx context.Context,
	rc *runContext,
	itemLog *models.SyncItemLog,
	situation models.Situation,
	action models.SyncAction,
	err error,
) {
	s.recordItem(ctx, rc, itemLog, situation, action, err)
}

// StopSync requests cooperative cancellation of the config's running sync.
// Without an in-memory run it falls back to the store: a running log left
// behind by an interrupted process is closed so the config can start again.
func (s *SyncService) StopSync(ctx context.Context, configID uuid.UUID) error {
	s.mu.Lock()
	run, ok := s.runs[configID]
	s.mu.Unlock()

	if !ok {
		return s.closeInterruptedLog(ctx, configID)
	}

	run.cancelled.Store(true)

	if s.audit != nil {
		s.audit.Enqueue(&AuditJob{
			Action:     "sync.cancel_requested",
			EntityType: "sync_config",
			EntityID:   configID.String(),
		})
	}

	s.log.WithField("config_id", configID).Info("sync cancellation requested")

	return nil
}

// closeInterruptedLog clears a running log that has no live run behind it,
// typically after a daemon crash. The log is closed with containsError set
// so the interruption stays visible in the run history.
func (s *SyncService) closeInterruptedLog(ctx context.Context, configID uuid.UUID) error {
	stale, err := s.logs.FindRunningLog(ctx, configID)
	if err != nil {
		return err
	}

	if stale == nil {
		return models.ErrSyncNotRunning
	}

	stale.ContainsError = true

	if err := s.logs.CloseLog(ctx, stale); err != nil {
		return err
	}

	if s.audit != nil {
		s.audit.Enqueue(&AuditJob{
			Action:     "sync.interrupted_log_closed",
			EntityType: "sync_config",
			EntityID:   configID.String(),
			Detail:     map[string]any{"sync_log_id": stale.ID.String()},
		})
	}

	s.log.WithFields(logrus.Fields{
		"config_id":   configID,
		"sync_log_id": stale.ID,
	}).Warn("closed running log with no active run")

	return nil
}

// RunningSync returns the config's running log, or nil when idle.
func (s *SyncService) RunningSync(ctx context.Context, configID uuid.UUID) (*models.SyncLog, error) {
	return s.logs.FindRunningLog(ctx, configID)
}

// ListLogs returns the config's run logs, newest first.
func (s *SyncService) ListLogs(ctx context.Context, configID uuid.UUID, limit int) ([]models.SyncLog, error) {
	return s.logs.ListLogs(ctx, configID, limit)
}

// ListActionLogs returns the action log buckets of one run.
func (s *SyncService) ListActionLogs(ctx context.Context, syncLogID uuid.UUID) ([]models.SyncActionLog, error) {
	return s.logs.ListActionLogs(ctx, syncLogID)
}

// ListItemLogs returns the item logs of one action log bucket.
func (s *SyncService) ListItemLogs(ctx context.Context, actionLogID uuid.UUID) ([]models.SyncItemLog, error) {
	return s.logs.ListItemLogs(ctx, actionLogID)
}

// ResolveItem re-resolves a single remote object with an explicit situation
// and action, for manual resolution from an operator surface. It opens and
// closes its own one-item run log.
func (s *SyncService) ResolveItem(
	ctx context.Context,
	configID uuid.UUID,
	situation models.Situation,
	action models.SyncAction,
	uid string,
) error {
	if err := models.ValidateAction(situation, action); err != nil {
		return err
	}

	rc, err := s.prepare(ctx, configID)
	if err != nil {
		return err
	}

	defer s.finish(ctx, rc)

	itemLog := &models.SyncItemLog{Identification: uid}

	var resolveErr error

	if situation == models.SituationMissingAccount {
		resolveErr = s.resolveMissingAccountItem(ctx, rc, uid, action, itemLog)
	} else {
		resolveErr = s.resolveSnapshotItem(ctx, rc, uid, situation, action, itemLog)
	}

	s.recordItem(ctx, rc, itemLog, situation, action, resolveErr)

	return resolveErr
}

func (s *SyncService) resolveSnapshotItem(
	ctx context.Context,
	rc *runContext,
	uid string,
	situation models.Situation,
	action models.SyncAction,
	itemLog *models.SyncItemLog,
) error {
	snap, err := rc.conn.FetchObjects(ctx, rc.cfg.ObjectClass, "")
	if err != nil {
		return err
	}

	for {
		obj, ok := snap.Next(ctx)
		if !ok {
			break
		}

		objUID, err := s.resolver.UID(rc.mappings, obj)
		if err != nil {
			continue
		}

		if objUID != uid {
			continue
		}

		corrProperty, corrValue := s.correlationInput(rc, obj)

		cls, err := s.classifier.Classify(ctx, rc.cfg.SystemID, rc.cfg.EntityType,
			uid, corrValue, corrProperty, rc.executor.Finder())
		if err != nil {
			return err
		}

		item := &SyncItem{
			Config:   rc.cfg,
			Object:   obj,
			UID:      uid,
			Account:  cls.Account,
			EntityID: cls.EntityID,
			Mappings: rc.mappings,
			ItemLog:  itemLog,
		}

		return s.dispatch(ctx, rc, situation, action, item)
	}

	if err := snap.Err(); err != nil {
		return err
	}

	return fmt.Errorf("%w: remote object %s not found", models.ErrAccountNotFound, uid)
}

func (s *SyncService) resolveMissingAccountItem(
	ctx context.Context,
	rc *runContext,
	uid string,
	action models.SyncAction,
	itemLog *models.SyncItemLog,
) error {
	account, err := s.accounts.FindAccountByUID(ctx, rc.cfg.SystemID, rc.cfg.EntityType, uid)
	if err != nil {
		return err
	}

	var entityID *uuid.UUID

	links, err := s.accounts.ListEntityAccountsByAccount(ctx, account.ID)
	if err != nil {
		return err
	}

	if len(links) > 0 {
		entityID = &links[0].EntityID
	}

	item := &SyncItem{
		Config:   rc.cfg,
		UID:      uid,
		Account:  account,
		EntityID: entityID,
		Mappings: rc.mappings,
		ItemLog:  itemLog,
	}

	return rc.executor.ResolveMissingAccount(ctx, action, item)
}
