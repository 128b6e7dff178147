package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yourusername/nurseprep-api/internal/config"
)

// AnswerNotification — событие ответа, отправляемое пайплайну автоматизации.
// Тело ответа вебхука не используется; поле is_correct информационное и
// никогда не применяется для подсчета очков на нашей стороне.
type AnswerNotification struct {
	SessionID      string `json:"session_id"`
	UserEmail      string `json:"user_email"`
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
	Difficulty     string `json:"current_difficulty,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// AnswerWebhookClient отправляет события ответов на внешний вебхук
type AnswerWebhookClient struct {
	url        string
	httpClient *http.Client
}

// NewAnswerWebhookClient создает клиент исходящего вебхука
func NewAnswerWebhookClient(cfg config.WebhookConfig) *AnswerWebhookClient {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AnswerWebhookClient{
		url:        cfg.AnswerURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Notify отправляет событие ответа. Вызывающая сторона логирует ошибку и
// не повторяет отправку: доставка best-effort, переход UI не блокируется.
func (c *AnswerWebhookClient) Notify(ctx context.Context, n AnswerNotification) error {
	if c.url == "" {
		return fmt.Errorf("answer webhook URL is not configured")
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal answer notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Содержимое ответа не интересует, но вычитываем для переиспользования соединения
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("answer webhook returned status %d", resp.StatusCode)
	}
	return nil
}
