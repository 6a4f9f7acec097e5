package service

import (
	"context"
	"testing"
	"time"
)

func TestAuditWorker_ProcessesJob(t *testing.T) {
	auditor := &mockAuditor{}
	log := testLogger()

	aw := NewAuditWorker(auditor, log, 10)
	ctx, cancel := context.WithCancel(context.Background())
	go aw.Run(ctx)

	aw.Enqueue(&AuditJob{
		Action:     "system.create",
		EntityType: "system",
		EntityID:   "s1",
	})

	time.Sleep(50 * time.Millisecond)
	cancel()

	entries := auditor.getEntries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit call, got %d", len(entries))
	}
	if entries[0].Action != "system.create" {
		t.Errorf("action = %q, want %q", entries[0].Action, "system.create")
	}
	if entries[0].EntityID != "s1" {
		t.Errorf("entity_id = %q, want %q", entries[0].EntityID, "s1")
	}
}

func TestAuditWorker_DropsWhenFull(t *testing.T) {
	auditor := &mockAuditor{}

	// Queue size 2, worker never started so the queue can't drain.
	aw := NewAuditWorker(auditor, testLogger(), 2)

	aw.Enqueue(&AuditJob{Action: "a"})
	aw.Enqueue(&AuditJob{Action: "b"})

	done := make(chan struct{})
	go func() {
		aw.Enqueue(&AuditJob{Action: "c"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked when queue was full")
	}

	if len(aw.jobs) != 2 {
		t.Errorf("queue len = %d, want 2", len(aw.jobs))
	}
}
