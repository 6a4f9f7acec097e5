package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/domain"
)

const defaultAuditQueueSize = 1000

// AuditJob is one audit entry waiting to be persisted.
type AuditJob struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      string
	Detail     map[string]any
}

// AuditWorker decouples audit writes from the sync hot path. Producers
// enqueue without blocking; a single goroutine persists entries in order.
type AuditWorker struct {
	auditor domain.Auditor
	log     *logrus.Logger
	jobs    chan *AuditJob
}

// NewAuditWorker creates an AuditWorker with the given queue capacity.
func NewAuditWorker(auditor domain.Auditor, log *logrus.Logger, queueSize int) *AuditWorker {
	if queueSize <= 0 {
		queueSize = defaultAuditQueueSize
	}

	return &AuditWorker{
		auditor: auditor,
		log:     log,
		jobs:    make(chan *AuditJob, queueSize),
	}
}

// Enqueue queues a job without blocking. A full queue drops the entry with
// a warning; losing an audit row is preferable to stalling a sync run.
func (w *AuditWorker) Enqueue(job *AuditJob) {
	select {
	case w.jobs <- job:
	default:
		w.log.WithFields(logrus.Fields{
			"action":      job.Action,
			"entity_type": job.EntityType,
		}).Warn("audit queue full, dropping entry")
	}
}

// Run persists queued jobs until ctx is cancelled, then drains whatever is
// already queued before returning.
func (w *AuditWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case job := <-w.jobs:
					w.record(job)
				default:
					return
				}
			}
		case job := <-w.jobs:
			w.record(job)
		}
	}
}

// record uses a fresh context so shutdown still flushes queued entries.
func (w *AuditWorker) record(job *AuditJob) {
	err := w.auditor.RecordAudit(context.Background(), job.Action, job.EntityType, job.EntityID, job.Actor, job.Detail)
	if err != nil {
		w.log.WithError(err).WithField("action", job.Action).Warn("audit record failed")
	}
}
