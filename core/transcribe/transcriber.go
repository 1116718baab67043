package transcribe

import (
	"context"

	"lectura/config"
	"lectura/core/audio"
	"lectura/logger"
	"lectura/model"
)

// ProgressFunc receives overall pipeline progress values (0-100) as a
// transcription advances.
type ProgressFunc func(progress int)

// Transcriber converts an audio file into a full transcript with
// time-stamped segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, progress ProgressFunc) (*model.Transcript, error)
}

// New selects the transcription backend once at process start. When the local
// backend is requested but the whisper binary is not installed, the engine
// falls back to the remote API; the fallback is logged, not an error.
func New(cfg *config.Config, extractor *audio.Extractor) Transcriber {
	api := NewAPITranscriber(cfg, extractor)

	if cfg.WhisperBackend == "local" {
		local := NewLocalTranscriber(cfg.WhisperModelSize)
		if local.Available() {
			logger.Info("using local whisper backend",
				logger.String("modelSize", cfg.WhisperModelSize))
			return local
		}
		logger.Warn("local whisper backend requested but unavailable, falling back to the API backend")
	}
	return api
}
