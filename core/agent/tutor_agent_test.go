package agent

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// TestBuildMessagesTruncatesFullTextOnCharacters checks that the transcript
// bound counts characters, not bytes, so Korean transcripts are never cut
// mid-character.
func TestBuildMessagesTruncatesFullTextOnCharacters(t *testing.T) {
	a := NewTutorAgent(&TutorAgentConfig{Model: "gpt-4o-mini"})

	fullText := strings.Repeat("강의", 1500) // 3000 characters, 9000 bytes
	messages := a.buildMessages(fullText, "현재 부분", "질문이 뭐야?")

	if len(messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(messages))
	}

	userPrompt := messages[1].Content
	if !utf8.ValidString(userPrompt) {
		t.Fatal("user prompt is not valid UTF-8")
	}

	wantPrefix := string([]rune(fullText)[:fullTextLimit])
	if !strings.Contains(userPrompt, wantPrefix) {
		t.Fatal("user prompt missing the truncated transcript")
	}
	if strings.Contains(userPrompt, fullText) {
		t.Fatalf("transcript was not truncated to %d characters", fullTextLimit)
	}
}

// TestBuildMessagesShortFullTextUntouched checks that transcripts under the
// bound pass through whole.
func TestBuildMessagesShortFullTextUntouched(t *testing.T) {
	a := NewTutorAgent(&TutorAgentConfig{Model: "gpt-4o-mini"})

	fullText := strings.Repeat("수업", 500) // 1000 characters
	messages := a.buildMessages(fullText, "현재 부분", "질문")

	if !strings.Contains(messages[1].Content, fullText) {
		t.Fatal("short transcript should be included whole")
	}
}
