package transcribe

import (
	"testing"

	"lectura/model"
)

// TestPlanChunksRemainder checks the final short chunk.
func TestPlanChunksRemainder(t *testing.T) {
	chunks := PlanChunks(250, 120)
	if len(chunks) != 3 {
		t.Fatalf("chunk count = %d, want 3", len(chunks))
	}

	want := []Chunk{
		{Index: 0, Start: 0, Duration: 120},
		{Index: 1, Start: 120, Duration: 120},
		{Index: 2, Start: 240, Duration: 10},
	}
	for i, c := range chunks {
		if c != want[i] {
			t.Errorf("chunk[%d] = %+v, want %+v", i, c, want[i])
		}
	}
}

// TestPlanChunksExactMultiple checks that an exact multiple of the chunk size
// does not produce an empty trailing chunk.
func TestPlanChunksExactMultiple(t *testing.T) {
	chunks := PlanChunks(240, 120)
	if len(chunks) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(chunks))
	}
	last := chunks[len(chunks)-1]
	if last.Duration != 120 {
		t.Fatalf("last chunk duration = %v, want 120", last.Duration)
	}
}

// TestPlanChunksShorterThanOneChunk checks a single partial chunk.
func TestPlanChunksShorterThanOneChunk(t *testing.T) {
	chunks := PlanChunks(45, 120)
	if len(chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].Duration != 45 {
		t.Fatalf("chunk = %+v, want start 0 duration 45", chunks[0])
	}
}

// TestPlanChunksInvalidInput checks zero and negative inputs.
func TestPlanChunksInvalidInput(t *testing.T) {
	if got := PlanChunks(0, 120); got != nil {
		t.Fatalf("PlanChunks(0, 120) = %v, want nil", got)
	}
	if got := PlanChunks(-5, 120); got != nil {
		t.Fatalf("PlanChunks(-5, 120) = %v, want nil", got)
	}
	if got := PlanChunks(100, 0); got != nil {
		t.Fatalf("PlanChunks(100, 0) = %v, want nil", got)
	}
}

// TestMergeChunkResultsGlobalizesTimestamps checks that both start and end
// timestamps get the chunk offset added.
func TestMergeChunkResultsGlobalizesTimestamps(t *testing.T) {
	results := []ChunkResult{
		{Offset: 0, Transcript: &model.Transcript{
			FullText: "first part",
			Segments: []model.Segment{{Start: 0, End: 5, Text: "first part"}},
		}},
		{Offset: 120, Transcript: &model.Transcript{
			FullText: "second part",
			Segments: []model.Segment{{Start: 0, End: 5, Text: "second part"}},
		}},
		{Offset: 240, Transcript: &model.Transcript{
			FullText: "third part",
			Segments: []model.Segment{{Start: 0, End: 5, Text: "third part"}},
		}},
	}

	merged := MergeChunkResults(results)

	wantSpans := [][2]float64{{0, 5}, {120, 125}, {240, 245}}
	if len(merged.Segments) != len(wantSpans) {
		t.Fatalf("segment count = %d, want %d", len(merged.Segments), len(wantSpans))
	}
	for i, span := range wantSpans {
		seg := merged.Segments[i]
		if seg.Start != span[0] || seg.End != span[1] {
			t.Errorf("segment[%d] = (%v, %v), want (%v, %v)", i, seg.Start, seg.End, span[0], span[1])
		}
	}

	if merged.FullText != "first part second part third part" {
		t.Fatalf("full text = %q", merged.FullText)
	}
}

// TestMergeChunkResultsSkipsNil checks nil transcripts and empty texts.
func TestMergeChunkResultsSkipsNil(t *testing.T) {
	results := []ChunkResult{
		{Offset: 0, Transcript: nil},
		{Offset: 120, Transcript: &model.Transcript{FullText: "only part"}},
		{Offset: 240, Transcript: &model.Transcript{FullText: ""}},
	}
	merged := MergeChunkResults(results)
	if merged.FullText != "only part" {
		t.Fatalf("full text = %q, want %q", merged.FullText, "only part")
	}
	if len(merged.Segments) != 0 {
		t.Fatalf("segment count = %d, want 0", len(merged.Segments))
	}
}

// TestChunkProgressBand checks the 45-90 progress band mapping.
func TestChunkProgressBand(t *testing.T) {
	if got := chunkProgress(0, 4); got != 45 {
		t.Fatalf("chunkProgress(0, 4) = %d, want 45", got)
	}
	if got := chunkProgress(2, 4); got != 65 {
		t.Fatalf("chunkProgress(2, 4) = %d, want 65", got)
	}
	if got := chunkProgress(3, 4); got != 75 {
		t.Fatalf("chunkProgress(3, 4) = %d, want 75", got)
	}
	if got := chunkProgress(0, 0); got != 45 {
		t.Fatalf("chunkProgress(0, 0) = %d, want 45", got)
	}
}
