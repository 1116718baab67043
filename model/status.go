package model

// Stage is one phase of the pipeline state machine.
type Stage string

const (
	StageQueued      Stage = "queued"
	StageDownloading Stage = "downloading"
	StageProcessing  Stage = "processing"
	StageCompleted   Stage = "completed"
	StageError       Stage = "error"

	// StageUnknown is returned for video ids the tracker has never seen.
	StageUnknown Stage = "unknown"
)

// Status is the current pipeline snapshot for one video id.
// It is overwritten wholesale on every update; no history is kept.
type Status struct {
	Stage    Stage  `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s.Stage == StageCompleted || s.Stage == StageError
}
