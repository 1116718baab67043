package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// Mailer sends transactional email through the Resend HTTP API.
type Mailer struct {
	apiKey     string
	httpClient *http.Client
}

// NewMailer creates a Mailer. An empty apiKey produces a Mailer whose Send
// always fails; callers should check Configured first.
func NewMailer(apiKey string) *Mailer {
	return &Mailer{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether an API key is present.
func (m *Mailer) Configured() bool {
	return m.apiKey != ""
}

// Email is one outbound message.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Send delivers the email via the Resend API.
func (m *Mailer) Send(ctx context.Context, email Email) error {
	if !m.Configured() {
		return fmt.Errorf("email not configured: RESEND_API_KEY not set")
	}

	jsonBody, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", resendEndpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
