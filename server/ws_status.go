package server

import (
	"net/http"
	"time"

	"lectura/logger"
	"lectura/model"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const statusPollInterval = 500 * time.Millisecond

// StatusWebSocketHandler pushes processing status updates for a video over a
// websocket until the pipeline reaches a terminal state or the client
// disconnects.
func (h *APIHandler) StatusWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	vars := mux.Vars(r)
	videoID := vars["video_id"]
	if videoID == "" {
		logger.Warn("websocket status request without video id")
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	var lastStage model.Stage
	var lastProgress int
	first := true

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			status := h.tracker.Get(videoID)
			if !first && status.Stage == lastStage && status.Progress == lastProgress {
				continue
			}
			first = false
			lastStage = status.Stage
			lastProgress = status.Progress

			if err := conn.WriteJSON(status); err != nil {
				logger.Warn("websocket write failed", logger.String("videoId", videoID), logger.ErrorField(err))
				return
			}
			if status.Terminal() {
				return
			}
		}
	}
}
