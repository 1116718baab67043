package model

// Segment is a transcript fragment with start/end timestamps in seconds.
// Upstream tools do not guarantee segments[i].end <= segments[i+1].start;
// consumers must tolerate overlap.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the time-aligned transcription of one video.
// Created once per video id and immutable thereafter.
type Transcript struct {
	FullText string    `json:"full_text"`
	Segments []Segment `json:"segments"`
}
