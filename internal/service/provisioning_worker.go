package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/domain"
	"github.com/crossidm/idsync/internal/metrics"
)

// ProvisioningWorker polls the queue and executes due batches. A single
// poller is enough: batches serialize writes per identity, and a missed tick
// only delays execution until the next one.
type ProvisioningWorker struct {
	prov     domain.ProvisioningService
	log      *logrus.Logger
	interval time.Duration
}

// NewProvisioningWorker creates a worker with the given poll interval.
func NewProvisioningWorker(prov domain.ProvisioningService, log *logrus.Logger, interval time.Duration) *ProvisioningWorker {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &ProvisioningWorker{prov: prov, log: log, interval: interval}
}

// Run polls until the context is cancelled, with one immediate pass at start
// so queued work does not wait a full interval after boot. Call in a
// goroutine.
func (w *ProvisioningWorker) Run(ctx context.Context) {
	w.log.WithField("interval", w.interval).Info("starting provisioning worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("provisioning worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ProvisioningWorker) tick(ctx context.Context) {
	attempted, err := w.prov.ExecuteDue(ctx)
	if err != nil {
		w.log.WithError(err).Warn("provisioning poll failed")
	}

	if attempted > 0 {
		w.log.WithField("operations", attempted).Debug("provisioning pass finished")
	}

	depth, err := w.prov.QueueDepth(ctx)
	if err != nil {
		return
	}

	metrics.ProvisioningQueueDepth.Set(float64(depth))
}
