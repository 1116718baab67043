package status

import (
	"testing"

	"lectura/model"
)

// TestMemoryTrackerSetGet checks overwrite-wholesale semantics.
func TestMemoryTrackerSetGet(t *testing.T) {
	tr := NewMemoryTracker()

	tr.Set("v1", model.Status{Stage: model.StageQueued, Progress: 0})
	got := tr.Get("v1")
	if got.Stage != model.StageQueued || got.Progress != 0 {
		t.Fatalf("status = %+v, want queued/0", got)
	}

	tr.Set("v1", model.Status{Stage: model.StageDownloading, Progress: 25, Message: "download finished"})
	got = tr.Get("v1")
	if got.Stage != model.StageDownloading || got.Progress != 25 {
		t.Fatalf("status = %+v, want downloading/25", got)
	}
	if got.Message != "download finished" {
		t.Fatalf("message = %q", got.Message)
	}
}

// TestMemoryTrackerUnknownID checks the zero-value answer for unseen ids.
func TestMemoryTrackerUnknownID(t *testing.T) {
	tr := NewMemoryTracker()
	got := tr.Get("never-seen")
	if got.Stage != model.StageUnknown {
		t.Fatalf("stage = %q, want %q", got.Stage, model.StageUnknown)
	}
	if got.Progress != 0 {
		t.Fatalf("progress = %d, want 0", got.Progress)
	}
}

// TestStatusTerminal checks terminal detection.
func TestStatusTerminal(t *testing.T) {
	if !(model.Status{Stage: model.StageCompleted}).Terminal() {
		t.Fatal("completed should be terminal")
	}
	if !(model.Status{Stage: model.StageError}).Terminal() {
		t.Fatal("error should be terminal")
	}
	if (model.Status{Stage: model.StageProcessing}).Terminal() {
		t.Fatal("processing should not be terminal")
	}
	if (model.Status{Stage: model.StageUnknown}).Terminal() {
		t.Fatal("unknown should not be terminal")
	}
}
