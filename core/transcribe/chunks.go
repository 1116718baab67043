package transcribe

import (
	"math"

	"lectura/model"
)

// Chunk describes one fixed-duration slice of an audio file. Chunks exist
// only for the duration of a chunked transcription and are always deleted
// after their result is merged or on error cleanup.
type Chunk struct {
	Index    int
	Start    float64 // seconds from the beginning of the full audio
	Duration float64 // seconds; the final chunk may be shorter
}

// PlanChunks partitions totalSeconds into fixed chunkSeconds slices. The
// final chunk covers the remainder. When totalSeconds is an exact multiple of
// chunkSeconds, no empty trailing chunk is produced.
func PlanChunks(totalSeconds float64, chunkSeconds int) []Chunk {
	if totalSeconds <= 0 || chunkSeconds <= 0 {
		return nil
	}

	size := float64(chunkSeconds)
	count := int(math.Ceil(totalSeconds / size))

	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * size
		duration := size
		if start+duration > totalSeconds {
			duration = totalSeconds - start
		}
		chunks = append(chunks, Chunk{Index: i, Start: start, Duration: duration})
	}
	return chunks
}

// ChunkResult pairs a chunk's start offset with its chunk-relative transcript.
type ChunkResult struct {
	Offset     float64
	Transcript *model.Transcript
}

// MergeChunkResults globalizes and concatenates per-chunk transcripts. Each
// segment's start and end get the chunk's start offset added; timestamps must
// never be left chunk-relative. Chunk texts are joined with a single space.
func MergeChunkResults(results []ChunkResult) *model.Transcript {
	merged := &model.Transcript{Segments: []model.Segment{}}

	for _, r := range results {
		if r.Transcript == nil {
			continue
		}
		for _, seg := range r.Transcript.Segments {
			merged.Segments = append(merged.Segments, model.Segment{
				Start: seg.Start + r.Offset,
				End:   seg.End + r.Offset,
				Text:  seg.Text,
			})
		}
		if r.Transcript.FullText == "" {
			continue
		}
		if merged.FullText != "" {
			merged.FullText += " "
		}
		merged.FullText += r.Transcript.FullText
	}
	return merged
}

// chunkProgress maps a 0-based chunk index into the 40-90 band of overall
// progress.
func chunkProgress(index, total int) int {
	if total <= 0 {
		return 45
	}
	return 45 + index*40/total
}
