package video

import "testing"

// TestIdentifyURLDeterministic checks that the same URL always maps to the
// same id so repeated submissions hit the transcript cache.
func TestIdentifyURLDeterministic(t *testing.T) {
	url := "https://www.youtube.com/watch?v=abc123"
	first := IdentifyURL(url)
	second := IdentifyURL(url)
	if first != second {
		t.Fatalf("ids differ for the same URL: %q vs %q", first, second)
	}
	if len(first) != 32 {
		t.Fatalf("id length = %d, want 32 hex chars", len(first))
	}
}

// TestIdentifyURLDistinctStrings checks that two different URL strings map to
// different ids, even if they could point at the same video.
func TestIdentifyURLDistinctStrings(t *testing.T) {
	a := IdentifyURL("https://www.youtube.com/watch?v=abc123")
	b := IdentifyURL("https://youtu.be/abc123")
	if a == b {
		t.Fatalf("distinct URL strings produced the same id %q", a)
	}
}

// TestIdentifyUploadSalted checks that repeated uploads of the same filename
// never collide.
func TestIdentifyUploadSalted(t *testing.T) {
	first := IdentifyUpload("lecture.mp4")
	second := IdentifyUpload("lecture.mp4")
	if first == second {
		t.Fatalf("upload ids collided for the same filename: %q", first)
	}
	if len(first) != 32 || len(second) != 32 {
		t.Fatalf("id lengths = %d, %d, want 32", len(first), len(second))
	}
}
