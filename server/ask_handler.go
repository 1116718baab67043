package server

import (
	"encoding/json"
	"net/http"

	"lectura/logger"
)

// AskHandler answers a learner question about the video content, streaming
// the answer as server-sent events. The context handed to the model is
// scoped to what the learner has heard up to the playback position.
func (h *APIHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID     string  `json:"video_id"`
		Question    string  `json:"question"`
		CurrentTime float64 `json:"current_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" || req.Question == "" {
		writeError(w, http.StatusBadRequest, "Missing video_id or question")
		return
	}

	contextWindow := h.store.ContextAt(req.VideoID, req.CurrentTime)

	var fullText string
	if t, err := h.store.Load(req.VideoID); err == nil {
		fullText = t.FullText
	}

	if contextWindow == "" && fullText == "" {
		writeError(w, http.StatusNotFound, "Transcript not available")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	sendEvent := func(payload interface{}) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		w.Write([]byte("data: " + string(data) + "\n\n"))
		flusher.Flush()
	}

	_, err := h.agent.AnswerStream(r.Context(), fullText, contextWindow, req.Question, func(chunk string) error {
		sendEvent(map[string]string{"content": chunk})
		return nil
	})
	if err != nil {
		logger.Error("question answering failed",
			logger.String("videoId", req.VideoID), logger.ErrorField(err))
		sendEvent(map[string]string{"error": err.Error()})
		return
	}

	sendEvent(map[string]bool{"done": true})
}
