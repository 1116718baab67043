package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"lectura/config"
	"lectura/core/agent"
	"lectura/core/pipeline"
	"lectura/core/transcript"
	"lectura/core/video"
	"lectura/logger"
	"lectura/notify"
	"lectura/repository"
	"lectura/status"

	"github.com/gorilla/mux"
)

// APIHandler handles all API requests.
type APIHandler struct {
	pipeline *pipeline.Pipeline
	tracker  status.Tracker
	store    *transcript.Store
	agent    *agent.TutorAgent
	mailer   *notify.Mailer
	userRepo repository.UserRepository
	cfg      *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	pipe *pipeline.Pipeline,
	tracker status.Tracker,
	store *transcript.Store,
	tutorAgent *agent.TutorAgent,
	mailer *notify.Mailer,
	userRepo repository.UserRepository,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		pipeline: pipe,
		tracker:  tracker,
		store:    store,
		agent:    tutorAgent,
		mailer:   mailer,
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// UploadVideoHandler handles direct video file uploads and schedules
// transcription.
func (h *APIHandler) UploadVideoHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max memory
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No video file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	id, err := h.pipeline.SubmitUpload(file, header.Filename)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyUpload) {
			writeError(w, http.StatusBadRequest, "No video file provided")
			return
		}
		logger.Error("upload failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to store uploaded video")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"video_id":  id,
		"video_url": "/uploads/" + id + ".mp4",
		"message":   "Video uploaded, transcription started",
	})
}

// ProcessRemoteHandler handles remote video source requests. Validation and
// the duration guard run synchronously; the pipeline itself is scheduled in
// the background and polled via the status endpoint.
func (h *APIHandler) ProcessRemoteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "No URL provided")
		return
	}

	id, cached, err := h.pipeline.SubmitRemote(r.Context(), req.URL)
	if err != nil {
		var durationErr *video.DurationExceededError
		switch {
		case errors.Is(err, video.ErrInvalidURL):
			writeError(w, http.StatusBadRequest, "URL does not reference a single video")
		case errors.As(err, &durationErr):
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":    "duration_exceeded",
				"message":  fmt.Sprintf("Only videos up to %d seconds can be loaded.", h.cfg.MaxVideoDuration),
				"duration": durationErr.Seconds,
			})
		default:
			logger.Error("remote submit failed", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to schedule video processing")
		}
		return
	}

	resp := map[string]interface{}{
		"video_id":  id,
		"video_url": "/uploads/" + id + ".mp4",
		"message":   "Download and transcription started",
	}
	if cached {
		resp["cached"] = true
		resp["message"] = "Video already transcribed"
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatusHandler returns the current pipeline snapshot for a video id.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	writeJSON(w, http.StatusOK, h.tracker.Get(vars["video_id"]))
}

// TranscriptHandler returns the persisted transcript for a video id.
func (h *APIHandler) TranscriptHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["video_id"]

	if !h.store.Exists(id) {
		writeError(w, http.StatusNotFound, "Transcript not found")
		return
	}

	t, err := h.store.Load(id)
	if err != nil {
		logger.Error("failed to load transcript", logger.String("id", id), logger.ErrorField(err))
		writeError(w, http.StatusNotFound, "Transcript not found")
		return
	}

	writeJSON(w, http.StatusOK, t)
}
