package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/nurseprep-api/internal/config"
)

func sampleNotification() AnswerNotification {
	return AnswerNotification{
		SessionID:      "session-1",
		UserEmail:      "nurse@example.com",
		QuestionID:     "q-1",
		SelectedAnswer: "A",
		CorrectAnswer:  "B",
		IsCorrect:      false,
		Difficulty:     "medium",
		Timestamp:      "2026-01-15T10:00:00Z",
	}
}

func TestAnswerWebhookClient_Notify_Success(t *testing.T) {
	// Arrange
	var received AnswerNotification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewAnswerWebhookClient(config.WebhookConfig{AnswerURL: srv.URL, TimeoutSec: 5})

	// Act
	err := client.Notify(context.Background(), sampleNotification())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "session-1", received.SessionID)
	assert.Equal(t, "A", received.SelectedAnswer)
	assert.Equal(t, "B", received.CorrectAnswer)
	assert.False(t, received.IsCorrect)
}

func TestAnswerWebhookClient_Notify_Non2xx(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewAnswerWebhookClient(config.WebhookConfig{AnswerURL: srv.URL})

	// Act
	err := client.Notify(context.Background(), sampleNotification())

	// Assert
	assert.Error(t, err, "Не-2xx статус должен возвращаться как ошибка")
}

func TestAnswerWebhookClient_Notify_NotConfigured(t *testing.T) {
	client := NewAnswerWebhookClient(config.WebhookConfig{})

	err := client.Notify(context.Background(), sampleNotification())

	assert.Error(t, err)
}
