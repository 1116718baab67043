package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"lectura/logger"
	"lectura/notify"
)

// contextExcerptLimit bounds the lecture excerpt quoted in the email,
// counted in characters so Korean text is never cut mid-character.
const contextExcerptLimit = 500

func contextExcerpt(s string) string {
	runes := []rune(s)
	if len(runes) > contextExcerptLimit {
		return string(runes[:contextExcerptLimit])
	}
	return s
}

// FeedbackHandler forwards a negative answer rating to the professor by
// email so the question gets a human follow-up. Positive feedback is only
// acknowledged.
func (h *APIHandler) FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID      string  `json:"video_id"`
		Question     string  `json:"question"`
		Answer       string  `json:"answer"`
		CurrentTime  float64 `json:"current_time"`
		FeedbackType string  `json:"feedback_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FeedbackType != "negative" {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Positive feedback recorded"})
		return
	}

	if !h.mailer.Configured() || h.cfg.ProfessorEmail == "" {
		writeError(w, http.StatusInternalServerError, "Email not configured")
		return
	}

	// Identify the student when logged in; feedback works anonymously too.
	studentName := "Anonymous student"
	studentEmail := ""
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		studentName = claims.Username
		if h.userRepo != nil {
			if user, err := h.userRepo.GetUserByID(claims.UserID); err == nil && user != nil {
				studentEmail = user.Email
			}
		}
	}

	contextWindow := contextExcerpt(h.store.ContextAt(req.VideoID, req.CurrentTime))

	minutes := int(req.CurrentTime) / 60
	seconds := int(req.CurrentTime) % 60
	timestamp := fmt.Sprintf("%d:%02d", minutes, seconds)

	subject := "[Lecture Q&A] Answer review requested for a student question"
	if studentEmail != "" {
		subject = fmt.Sprintf("[Lecture Q&A] Question from %s - answer review requested", studentName)
	}

	studentInfo := studentName
	if studentEmail != "" {
		studentInfo += " (" + studentEmail + ")"
	}

	body := strings.Join([]string{
		"Hello Professor,",
		"",
		"A student asked a question during the lecture video and was not satisfied with the AI answer.",
		"Please review and provide an accurate answer.",
		"",
		"Student: " + studentInfo,
		"Asked at: " + timestamp,
		"",
		"Lecture content at that point:",
		contextWindow + "...",
		"",
		"Student question:",
		req.Question,
		"",
		"AI answer (student unsatisfied):",
		req.Answer,
		"",
		"Thank you.",
		"Lecture Q&A system",
	}, "\n")

	email := notify.Email{
		From:    "Lecture QA <onboarding@resend.dev>",
		To:      []string{h.cfg.ProfessorEmail},
		Subject: subject,
		Text:    body,
	}
	if studentEmail != "" {
		// Let the professor reply to the student directly.
		email.ReplyTo = studentEmail
	}

	if err := h.mailer.Send(r.Context(), email); err != nil {
		logger.Error("failed to send feedback email", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to send feedback")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback sent to professor successfully"})
}
