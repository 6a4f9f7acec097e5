package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/api"
	"github.com/crossidm/idsync/internal/models"
)

func TestProvisioningList_UnknownState(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewProvisioningHandler(&mockProvisioningService{}, testLogger())
	r.GET("/provisioning/operations", h.ListOperations)

	w := doRequest(r, http.MethodGet, "/provisioning/operations?state=BOGUS", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProvisioningList_DefaultsToCreated(t *testing.T) {
	t.Parallel()

	svc := &mockProvisioningService{
		listOpsFn: func(_ context.Context, state models.OperationState, _ int) ([]models.ProvisioningOperation, error) {
			if state != models.OperationCreated {
				t.Errorf("expected CREATED, got %s", state)
			}

			return []models.ProvisioningOperation{}, nil
		},
	}

	r := newTestRouter()
	h := api.NewProvisioningHandler(svc, testLogger())
	r.GET("/provisioning/operations", h.ListOperations)

	w := doRequest(r, http.MethodGet, "/provisioning/operations", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProvisioningRetry_BatchNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockProvisioningService{
		retryNowFn: func(_ context.Context, _ uuid.UUID) error {
			return models.ErrEntityNotFound
		},
	}

	r := newTestRouter()
	h := api.NewProvisioningHandler(svc, testLogger())
	r.POST("/provisioning/batches/:id/retry", h.RetryBatch)

	w := doRequest(r, http.MethodPost, "/provisioning/batches/"+uuid.NewString()+"/retry", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProvisioningQueueDepth(t *testing.T) {
	t.Parallel()

	svc := &mockProvisioningService{
		queueDepthFn: func(_ context.Context) (int, error) {
			return 7, nil
		},
	}

	r := newTestRouter()
	h := api.NewProvisioningHandler(svc, testLogger())
	r.GET("/provisioning/queue", h.QueueDepth)

	w := doRequest(r, http.MethodGet, "/provisioning/queue", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != `{"depth":7}` {
		t.Errorf("unexpected body: %s", got)
	}
}
