package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/crossidm/idsync/internal/connector/memory"
	"github.com/crossidm/idsync/internal/models"
)

type provFixture struct {
	svc      *ProvisioningService
	queue    *fakeQueue
	conn     *memory.Connector
	systemID uuid.UUID
	systems  *stubSystems
}

func newProvFixture(t *testing.T) *provFixture {
	t.Helper()

	systemID := uuid.New()
	conn := memory.New()
	queue := newFakeQueue()
	systems := &stubSystems{systems: map[uuid.UUID]*models.System{
		systemID: {ID: systemID, Name: "target"},
	}}

	svc := NewProvisioningService(queue, systems, newConnRegistry(systemID, conn),
		testLogger(), time.Second, time.Minute, 100)

	return &provFixture{svc: svc, queue: queue, conn: conn, systemID: systemID, systems: systems}
}

func (f *provFixture) enqueue(t *testing.T, op models.OperationType, uid string, payload map[string]any) *models.ProvisioningOperation {
	t.Helper()

	queued, err := f.svc.Enqueue(context.Background(), models.ProvisioningOperation{
		Operation:       op,
		EntityType:      models.EntityTypeIdentity,
		SystemID:        f.systemID,
		SystemEntityUID: uid,
		ObjectClass:     "testClass",
		Payload:         payload,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	return queued
}

func TestProvisioning_ExecutesBatchInOrder(t *testing.T) {
	f := newProvFixture(t)
	ctx := context.Background()

	f.enqueue(t, models.OperationCreate, "alice", map[string]any{"mail": "a@example.com"})
	f.enqueue(t, models.OperationUpdate, "alice", map[string]any{"mail": "a2@example.com"})

	attempted, err := f.svc.ExecuteDue(ctx)
	if err != nil {
		t.Fatalf("ExecuteDue: %v", err)
	}
	if attempted != 2 {
		t.Errorf("attempted = %d, want 2", attempted)
	}

	// Create then update, in enqueue order.
	attrs := f.conn.Get("testClass", "alice")
	if attrs == nil {
		t.Fatal("object not created on target")
	}
	if attrs["mail"] != "a2@example.com" {
		t.Errorf("mail = %v, want the update applied after the create", attrs["mail"])
	}

	depth, _ := f.svc.QueueDepth(ctx)
	if depth != 0 {
		t.Errorf("queue depth = %d, want 0", depth)
	}
	if len(f.queue.batches) != 0 {
		t.Error("completed batch should be removed")
	}
}

func TestProvisioning_FailureFreezesBatchBehindFailedOp(t *testing.T) {
	f := newProvFixture(t)
	ctx := context.Background()

	f.enqueue(t, models.OperationCreate, "alice", map[string]any{"mail": "a@example.com"})
	f.enqueue(t, models.OperationUpdate, "alice", map[string]any{"mail": "a2@example.com"})

	f.conn.FailNext("create", "alice", errors.New("target unreachable"))

	if _, err := f.svc.ExecuteDue(ctx); err != nil {
		t.Fatalf("ExecuteDue: %v", err)
	}

	// The failed create is EXCEPTION, the update behind it untouched.
	failed, _ := f.svc.ListOperations(ctx, models.OperationException, 10)
	if len(failed) != 1 || failed[0].Operation != models.OperationCreate {
		t.Fatalf("exception ops = %+v, want the create", failed)
	}
	if failed[0].Attempt != 1 {
		t.Errorf("attempt = %d, want 1", failed[0].Attempt)
	}

	pending, _ := f.svc.ListOperations(ctx, models.OperationCreated, 10)
	if len(pending) != 1 || pending[0].Operation != models.OperationUpdate {
		t.Fatalf("pending ops = %+v, want the update preserved", pending)
	}

	// The batch is parked with a retry time; nothing ran against the target.
	if f.conn.Get("testClass", "alice") != nil {
		t.Error("failed create must not leave a remote object")
	}

	for _, b := range f.queue.batches {
		if b.NextAttempt == nil {
			t.Error("failed batch has no retry scheduled")
		}
	}
}

func TestProvisioning_RetryAfterFailureSucceeds(t *testing.T) {
	f := newProvFixture(t)
	ctx := context.Background()

	op := f.enqueue(t, models.OperationCreate, "alice", map[string]any{"mail": "a@example.com"})
	f.conn.FailNext("create", "alice", errors.New("blip"))

	if _, err := f.svc.ExecuteDue(ctx); err != nil {
		t.Fatal(err)
	}

	// Immediate retry: the scheduled backoff keeps the batch out of the due
	// list until RetryNow clears it.
	batches, _ := f.queue.ListDueBatches(ctx, time.Now(), 10)
	if len(batches) != 0 {
		t.Fatal("failed batch should not be due before its backoff elapses")
	}

	if err := f.svc.RetryNow(ctx, op.BatchID); err != nil {
		t.Fatalf("RetryNow: %v", err)
	}

	if _, err := f.svc.ExecuteDue(ctx); err != nil {
		t.Fatal(err)
	}

	if f.conn.Get("testClass", "alice") == nil {
		t.Error("retried create did not reach the target")
	}

	executed, _ := f.svc.ListOperations(ctx, models.OperationExecuted, 10)
	if len(executed) != 1 || executed[0].Attempt != 2 {
		t.Errorf("executed ops = %+v, want one with attempt 2", executed)
	}
}

func TestProvisioning_BackoffDoublesAndCaps(t *testing.T) {
	svc := NewProvisioningService(newFakeQueue(), &stubSystems{}, nil, testLogger(),
		time.Second, 10*time.Second, 100)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
		{attempt: 4, want: 8 * time.Second},
		{attempt: 5, want: 10 * time.Second},
		{attempt: 20, want: 10 * time.Second},
	}

	prev := time.Duration(0)

	for _, tc := range tests {
		got := svc.backoff(tc.attempt)
		if got != tc.want {
			t.Errorf("backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
		if got < prev {
			t.Errorf("backoff(%d) = %v decreased below %v", tc.attempt, got, prev)
		}
		prev = got
	}
}

func TestProvisioning_VirtualSystemParksOperations(t *testing.T) {
	f := newProvFixture(t)
	ctx := context.Background()

	for _, sys := range f.systems.systems {
		sys.Virtual = true
	}

	f.enqueue(t, models.OperationCreate, "alice", map[string]any{"mail": "a@example.com"})

	if _, err := f.svc.ExecuteDue(ctx); err != nil {
		t.Fatalf("ExecuteDue: %v", err)
	}

	parked, _ := f.svc.ListOperations(ctx, models.OperationNotExecuted, 10)
	if len(parked) != 1 {
		t.Fatalf("NOT_EXECUTED ops = %d, want 1", len(parked))
	}
	if f.conn.Get("testClass", "alice") != nil {
		t.Error("virtual system must not receive writes")
	}
	if len(f.queue.batches) != 0 {
		t.Error("parked batch should be removed")
	}
}

func TestProvisioning_DisabledSystemPostponesBatch(t *testing.T) {
	f := newProvFixture(t)
	ctx := context.Background()

	for _, sys := range f.systems.systems {
		sys.Disabled = true
	}

	f.enqueue(t, models.OperationCreate, "alice", map[string]any{"mail": "a@example.com"})

	attempted, err := f.svc.ExecuteDue(ctx)
	if err != nil {
		t.Fatalf("ExecuteDue: %v", err)
	}
	if attempted != 0 {
		t.Errorf("attempted = %d, want 0 for a disabled system", attempted)
	}

	pending, _ := f.svc.ListOperations(ctx, models.OperationCreated, 10)
	if len(pending) != 1 {
		t.Error("operation must stay queued while the system is disabled")
	}

	for _, b := range f.queue.batches {
		if b.NextAttempt == nil {
			t.Error("postponed batch has no retry scheduled")
		}
	}
}
