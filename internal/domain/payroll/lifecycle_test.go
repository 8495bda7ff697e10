package payroll

import "testing"

func TestLifecycleDraftOperations(t *testing.T) {
	for _, op := range []Operation{OpUpdateItem, OpImportAttendance, OpCalculate, OpProcess} {
		if !Allows(StatusDraft, op) {
			t.Fatalf("expected %s to be allowed on a draft run", op)
		}
	}
	if Allows(StatusDraft, OpLock) {
		t.Fatal("a draft run must not be lockable without processing")
	}
}

func TestLifecycleCompletedOperations(t *testing.T) {
	for _, op := range []Operation{OpCalculate, OpProcess, OpLock} {
		if !Allows(StatusCompleted, op) {
			t.Fatalf("expected %s to be allowed on a completed run", op)
		}
	}
	if Allows(StatusCompleted, OpUpdateItem) {
		t.Fatal("item edits must be rejected after completion")
	}
	if Allows(StatusCompleted, OpImportAttendance) {
		t.Fatal("attendance import must be rejected after completion")
	}
}

func TestLifecycleLockedIsTerminal(t *testing.T) {
	for _, op := range []Operation{OpUpdateItem, OpImportAttendance, OpCalculate, OpProcess} {
		if Allows(StatusLocked, op) {
			t.Fatalf("expected %s to be rejected on a locked run", op)
		}
	}
	// Re-locking is permitted so the operation stays idempotent.
	if !Allows(StatusLocked, OpLock) {
		t.Fatal("expected lock on a locked run to be a no-op, not an error")
	}
}

func TestLifecycleProcessingRejectsEverything(t *testing.T) {
	for _, op := range []Operation{OpUpdateItem, OpImportAttendance, OpCalculate, OpProcess, OpLock} {
		if Allows(StatusProcessing, op) {
			t.Fatalf("expected %s to be rejected while processing", op)
		}
	}
}

func TestLifecycleUnknownStatus(t *testing.T) {
	if Allows("ARCHIVED", OpCalculate) {
		t.Fatal("unknown statuses must not allow any operation")
	}
}
