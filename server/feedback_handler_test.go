package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

// TestContextExcerptKorean checks that the email excerpt bound counts
// characters, not bytes.
func TestContextExcerptKorean(t *testing.T) {
	long := strings.Repeat("강의", 400) // 800 characters, 2400 bytes

	got := contextExcerpt(long)
	if !utf8.ValidString(got) {
		t.Fatal("excerpt is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(got); n != contextExcerptLimit {
		t.Fatalf("rune count = %d, want %d", n, contextExcerptLimit)
	}

	short := strings.Repeat("수업", 100) // 200 characters
	if contextExcerpt(short) != short {
		t.Fatal("short excerpt should pass through whole")
	}
}

// TestFeedbackHandlerPositive checks that positive feedback is acknowledged
// without touching the mailer.
func TestFeedbackHandlerPositive(t *testing.T) {
	h := &APIHandler{}

	body := `{"video_id":"v1","question":"q","answer":"a","current_time":30,"feedback_type":"positive"}`
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.FeedbackHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Positive feedback recorded") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}
