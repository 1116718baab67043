package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lectura/logger"
	"lectura/model"
)

// TutorAgentConfig contains configuration for the tutor agent.
type TutorAgentConfig struct {
	APIBaseURL  string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// TutorAgent answers learner questions scoped to the lecture transcript,
// speaking as the teacher of the lecture.
type TutorAgent struct {
	config     *TutorAgentConfig
	httpClient *http.Client
}

// System prompt for the tutor agent. The agent answers in plain prose, short,
// and refuses questions unrelated to the lecture.
const tutorSystemPrompt = `너는 이 강의를 진행하는 선생님이야. 학생이 강의 중에 손을 들고 질문한 거라고 생각해.

답변 규칙:
1. 마크다운 문법(**, ##, - 등) 절대 사용하지 마. 그냥 평문으로만 답변해.
2. 핵심만 짧게 2-4문장으로 답변해. 길게 설명하지 마.
3. 강의에서 다룬 내용 위주로, 선생님이 직접 말하듯이 친근하게 답변해.
4. 강의 내용과 관련 없으면 "그건 이 강의 내용이 아니야. 강의 관련 질문해줘!" 라고 해.
5. 반말로 답변해.`

// NewTutorAgent creates a new TutorAgent.
func NewTutorAgent(config *TutorAgentConfig) *TutorAgent {
	return &TutorAgent{
		config: config,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Longer timeout for streaming
		},
	}
}

// fullTextLimit bounds how much of the whole transcript goes into the
// prompt, counted in characters; the context window carries the detail near
// the playback position.
const fullTextLimit = 2000

// buildMessages assembles the chat messages for one question.
func (a *TutorAgent) buildMessages(fullText, contextWindow, question string) []model.OpenAIChatMessage {
	if runes := []rune(fullText); len(runes) > fullTextLimit {
		fullText = string(runes[:fullTextLimit])
	}

	userPrompt := fmt.Sprintf(`[강의 내용]
%s

[현재까지 들은 부분]
%s

[학생 질문]
%s

선생님처럼 핵심만 짧게 답변해.`, fullText, contextWindow, question)

	return []model.OpenAIChatMessage{
		{Role: "system", Content: tutorSystemPrompt},
		{Role: "user", Content: userPrompt},
	}
}

// Answer sends a question and returns the complete answer.
func (a *TutorAgent) Answer(ctx context.Context, fullText, contextWindow, question string) (string, error) {
	messages := a.buildMessages(fullText, contextWindow, question)

	reqBody := model.OpenAIChatRequest{
		Model:       a.config.Model,
		Messages:    messages,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
		Stream:      false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.config.APIBaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp model.OpenAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// StreamCallback is called for each chunk of the streaming response.
type StreamCallback func(chunk string) error

// AnswerStream sends a question and streams the answer chunk by chunk.
// If streaming fails to produce content, it falls back to non-streaming mode.
func (a *TutorAgent) AnswerStream(ctx context.Context, fullText, contextWindow, question string, callback StreamCallback) (string, error) {
	result, err := a.answerStreamInternal(ctx, fullText, contextWindow, question, callback)
	if err != nil {
		logger.Warn("Streaming answer failed, falling back to non-streaming",
			logger.ErrorField(err))
		answer, err := a.Answer(ctx, fullText, contextWindow, question)
		if err != nil {
			return "", err
		}
		if callback != nil {
			callback(answer)
		}
		return answer, nil
	}

	if result == "" {
		logger.Warn("Streaming returned empty response, falling back to non-streaming")
		answer, err := a.Answer(ctx, fullText, contextWindow, question)
		if err != nil {
			return "", err
		}
		if callback != nil {
			callback(answer)
		}
		return answer, nil
	}

	return result, nil
}

// answerStreamInternal is the internal streaming implementation.
func (a *TutorAgent) answerStreamInternal(ctx context.Context, fullText, contextWindow, question string, callback StreamCallback) (string, error) {
	messages := a.buildMessages(fullText, contextWindow, question)

	reqBody := model.OpenAIChatRequest{
		Model:       a.config.Model,
		Messages:    messages,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
		Stream:      true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.config.APIBaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var fullContent strings.Builder
	reader := bufio.NewReader(resp.Body)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fullContent.String(), fmt.Errorf("failed to read stream: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk model.OpenAIStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			logger.Warn("Failed to parse stream chunk", logger.ErrorField(err))
			continue
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}

		fullContent.WriteString(content)
		if callback != nil {
			if err := callback(content); err != nil {
				logger.Warn("Callback error during streaming, continuing",
					logger.ErrorField(err))
			}
		}
	}

	return fullContent.String(), nil
}
