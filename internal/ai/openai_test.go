package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amail-io/amail-ce/internal/models"
)

func newTestClient(serverURL string) *OpenAIClient {
	return NewOpenAIClient(OpenAIConfig{
		BaseURL:     serverURL,
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   500,
	})
}

func TestOpenAIClientComplete(t *testing.T) {
	ctx := context.Background()
	turns := []models.ChatTurn{
		{Role: models.RoleSystem, Content: "Context: billing dispute"},
		{Role: models.RoleUser, Content: "Draft a reply"},
	}

	t.Run("successful completion", func(t *testing.T) {
		var gotReq chatCompletionRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]interface{}{"content": "  Dear client, ...  "}},
				},
				"usage": map[string]interface{}{
					"prompt_tokens":     42,
					"completion_tokens": 17,
					"total_tokens":      59,
				},
			})
		}))
		defer server.Close()

		completion, err := newTestClient(server.URL).Complete(ctx, turns)
		require.NoError(t, err)
		assert.Equal(t, "Dear client, ...", completion.Content)
		require.NotNil(t, completion.Usage)
		assert.Equal(t, 42, completion.Usage.PromptTokens)
		assert.Equal(t, 59, completion.Usage.TotalTokens)

		assert.Equal(t, "gpt-4o-mini", gotReq.Model)
		assert.Equal(t, 500, gotReq.MaxTokens)
		require.Len(t, gotReq.Messages, 2)
		assert.Equal(t, models.RoleSystem, gotReq.Messages[0].Role)
	})

	t.Run("no usage reported", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]interface{}{"content": "ok"}},
				},
			})
		}))
		defer server.Close()

		completion, err := newTestClient(server.URL).Complete(ctx, turns)
		require.NoError(t, err)
		assert.Nil(t, completion.Usage)
	})

	t.Run("missing api key", func(t *testing.T) {
		client := NewOpenAIClient(OpenAIConfig{Model: "gpt-4o-mini"})
		_, err := client.Complete(ctx, turns)
		var ue *models.UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.False(t, ue.Retryable)
	})

	t.Run("server error is retryable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Complete(ctx, turns)
		var ue *models.UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.True(t, ue.Retryable)
		assert.Contains(t, ue.Error(), "status 502")
	})

	t.Run("rate limit is retryable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Complete(ctx, turns)
		var ue *models.UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.True(t, ue.Retryable)
	})

	t.Run("auth failure is not retryable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad key", http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Complete(ctx, turns)
		var ue *models.UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.False(t, ue.Retryable)
	})

	t.Run("api error object", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{
					"message": "model overloaded",
					"type":    "server_error",
				},
			})
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Complete(ctx, turns)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model overloaded")
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Complete(ctx, turns)
		assert.Error(t, err)
	})
}
