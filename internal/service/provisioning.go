package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/connector"
	"github.com/crossidm/idsync/internal/domain"
	"github.com/crossidm/idsync/internal/metrics"
	"github.com/crossidm/idsync/internal/models"
)

// QueueStore is the data-access interface ProvisioningService depends on.
// *store.ProvisioningStore implements it.
type QueueStore interface {
	EnqueueOperation(ctx context.Context, op models.ProvisioningOperation) (*models.ProvisioningOperation, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*models.ProvisioningBatch, error)
	ListDueBatches(ctx context.Context, now time.Time, limit int) ([]models.ProvisioningBatch, error)
	ListPendingOperations(ctx context.Context, batchID uuid.UUID) ([]models.ProvisioningOperation, error)
	ListOperations(ctx context.Context, state models.OperationState, limit int) ([]models.ProvisioningOperation, error)
	UpdateOperationResult(ctx context.Context, id uuid.UUID, state models.OperationState, message string, attempt int) error
	SetBatchNextAttempt(ctx context.Context, batchID uuid.UUID, next *time.Time) error
	DeleteBatchIfDone(ctx context.Context, batchID uuid.UUID) (bool, error)
	QueueDepth(ctx context.Context) (int, error)
}

// Compile-time check: *ProvisioningService must satisfy domain.ProvisioningService.
var _ domain.ProvisioningService = (*ProvisioningService)(nil)

// ProvisioningService manages the outbound write queue. Writes against one
// external identity are serialized through the identity's batch and executed
// FIFO; a failed operation schedules the whole batch for retry with
// exponential backoff and is never dropped.
type ProvisioningService struct {
	queue      QueueStore
	systems    SystemReader
	connectors *connector.Registry
	log        *logrus.Logger

	baseDelay time.Duration
	maxDelay  time.Duration
	pageSize  int
}

// NewProvisioningService creates a ProvisioningService.
func NewProvisioningService(
	queue QueueStore,
	systems SystemReader,
	connectors *connector.Registry,
	log *logrus.Logger,
	baseDelay, maxDelay time.Duration,
	pageSize int,
) *ProvisioningService {
	if baseDelay <= 0 {
		baseDelay = 30 * time.Second
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	return &ProvisioningService{
		queue:      queue,
		systems:    systems,
		connectors: connectors,
		log:        log,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
		pageSize:   pageSize,
	}
}

// Enqueue adds an operation to its identity's batch, creating the batch when
// absent. Ordering within the batch follows enqueue order.
func (s *ProvisioningService) Enqueue(ctx context.Context, op models.ProvisioningOperation) (*models.ProvisioningOperation, error) {
	created, err := s.queue.EnqueueOperation(ctx, op)
	if err != nil {
		return nil, err
	}

	metrics.ProvisioningOpsTotal.WithLabelValues(string(op.Operation), "queued").Inc()

	s.log.WithFields(logrus.Fields{
		"operation": op.Operation,
		"uid":       op.SystemEntityUID,
		"system_id": op.SystemID,
	}).Debug("provisioning operation queued")

	return created, nil
}

// ExecuteDue runs every batch whose retry time has passed and returns the
// number of operations attempted.
func (s *ProvisioningService) ExecuteDue(ctx context.Context) (int, error) {
	batches, err := s.queue.ListDueBatches(ctx, time.Now(), s.pageSize)
	if err != nil {
		return 0, err
	}

	attempted := 0

	for i := range batches {
		n, err := s.executeBatch(ctx, &batches[i])
		attempted += n

		if err != nil {
			s.log.WithError(err).WithField("batch_id", batches[i].ID).
				Warn("batch execution stopped")
		}
	}

	return attempted, nil
}

// ExecuteBatch runs one batch's pending operations in order, stopping at the
// first failure.
func (s *ProvisioningService) ExecuteBatch(ctx context.Context, batchID uuid.UUID) error {
	batch, err := s.queue.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}

	_, err = s.executeBatch(ctx, batch)

	return err
}

// executeBatch attempts the batch's pending operations FIFO. Each operation's
// result is persisted independently, so a crash mid-batch loses at most the
// in-flight attempt. Returns the number of operations attempted.
func (s *ProvisioningService) executeBatch(ctx context.Context, batch *models.ProvisioningBatch) (int, error) {
	system, err := s.systems.GetSystem(ctx, batch.SystemID)
	if err != nil {
		return 0, err
	}

	ops, err := s.queue.ListPendingOperations(ctx, batch.ID)
	if err != nil {
		return 0, err
	}

	if system.Virtual {
		// Virtual systems have no live connector; operations park as
		// NOT_EXECUTED for an external agent to pick up.
		return len(ops), s.parkVirtual(ctx, batch, ops)
	}

	if system.Disabled {
		next := time.Now().Add(s.baseDelay)

		return 0, s.queue.SetBatchNextAttempt(ctx, batch.ID, &next)
	}

	conn := s.connectors.Get(batch.SystemID.String())
	if conn == nil {
		return 0, &models.ConnectorError{System: system.Name, Op: "resolve",
			Err: errors.New("no connector registered")}
	}

	attempted := 0

	for i := range ops {
		op := &ops[i]
		attempted++

		execErr := s.executeOperation(ctx, conn, op)
		if execErr == nil {
			if err := s.queue.UpdateOperationResult(ctx, op.ID,
				models.OperationExecuted, "", op.Attempt+1); err != nil {
				return attempted, err
			}

			metrics.ProvisioningOpsTotal.WithLabelValues(string(op.Operation), "executed").Inc()

			continue
		}

		// Failure freezes the rest of the batch behind this operation so
		// writes against the identity stay ordered.
		attempt := op.Attempt + 1

		if err := s.queue.UpdateOperationResult(ctx, op.ID,
			models.OperationException, execErr.Error(), attempt); err != nil {
			return attempted, err
		}

		next := time.Now().Add(s.backoff(attempt))

		if err := s.queue.SetBatchNextAttempt(ctx, batch.ID, &next); err != nil {
			return attempted, err
		}

		metrics.ProvisioningOpsTotal.WithLabelValues(string(op.Operation), "failed").Inc()
		metrics.ProvisioningRetries.Inc()

		s.log.WithError(execErr).WithFields(logrus.Fields{
			"operation":    op.Operation,
			"uid":          op.SystemEntityUID,
			"system":       system.Name,
			"attempt":      attempt,
			"next_attempt": next,
		}).Warn("provisioning operation failed")

		return attempted, execErr
	}

	if err := s.queue.SetBatchNextAttempt(ctx, batch.ID, nil); err != nil {
		return attempted, err
	}

	if _, err := s.queue.DeleteBatchIfDone(ctx, batch.ID); err != nil {
		return attempted, err
	}

	return attempted, nil
}

// executeOperation performs one write against the target system.
func (s *ProvisioningService) executeOperation(ctx context.Context, conn connector.Connector, op *models.ProvisioningOperation) error {
	switch op.Operation {
	case models.OperationCreate:
		return conn.CreateObject(ctx, op.ObjectClass, op.SystemEntityUID, op.Payload)
	case models.OperationUpdate:
		return conn.UpdateObject(ctx, op.ObjectClass, op.SystemEntityUID, op.Payload)
	case models.OperationDelete:
		return conn.DeleteObject(ctx, op.ObjectClass, op.SystemEntityUID)
	}

	return fmt.Errorf("unknown operation type %s", op.Operation)
}

// parkVirtual marks the batch's operations NOT_EXECUTED and drops the batch.
func (s *ProvisioningService) parkVirtual(ctx context.Context, batch *models.ProvisioningBatch, ops []models.ProvisioningOperation) error {
	for i := range ops {
		if err := s.queue.UpdateOperationResult(ctx, ops[i].ID,
			models.OperationNotExecuted, "virtual system, no connector", ops[i].Attempt); err != nil {
			return err
		}

		metrics.ProvisioningOpsTotal.WithLabelValues(string(ops[i].Operation), "not_executed").Inc()
	}

	_, err := s.queue.DeleteBatchIfDone(ctx, batch.ID)

	return err
}

// backoff returns the retry delay after the given attempt count. Doubles per
// attempt, capped at maxDelay.
func (s *ProvisioningService) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := s.baseDelay

	for i := 1; i < attempt; i++ {
		delay *= 2

		if delay >= s.maxDelay {
			return s.maxDelay
		}
	}

	if delay > s.maxDelay {
		return s.maxDelay
	}

	return delay
}

// RetryNow clears the batch's backoff so the next poll picks it up.
func (s *ProvisioningService) RetryNow(ctx context.Context, batchID uuid.UUID) error {
	now := time.Now()

	return s.queue.SetBatchNextAttempt(ctx, batchID, &now)
}

// ListOperations returns queued operations in the given state, oldest first.
func (s *ProvisioningService) ListOperations(ctx context.Context, state models.OperationState, limit int) ([]models.ProvisioningOperation, error) {
	return s.queue.ListOperations(ctx, state, limit)
}

// QueueDepth returns the number of operations still awaiting execution.
func (s *ProvisioningService) QueueDepth(ctx context.Context) (int, error) {
	return s.queue.QueueDepth(ctx)
}
