package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/santiagomed/blendgen/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClient_GetCompletion(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   "llama3.1",
			Message: api.Message{Role: "assistant", Content: "import bpy"},
			Done:    true,
		})
	}))
	defer srv.Close()

	client, err := NewClient(&LlmConfig{Provider: ProviderOllama, BaseURL: srv.URL, ModelName: "llama3.1", APIKey: "secret"}, logger.NewNullLogger())
	require.NoError(t, err)

	res, err := client.GetCompletion(context.Background(), "make it red")
	require.NoError(t, err)
	assert.Equal(t, "import bpy", res)

	assert.Equal(t, "llama3.1", got.Model)
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "make it red", got.Messages[0].Content)
}

func TestOllamaClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer srv.Close()

	client, err := NewOllamaClient(&LlmConfig{BaseURL: srv.URL + "/v1", ModelName: "nope"}, logger.NewNullLogger())
	require.NoError(t, err)

	_, err = client.GetCompletion(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
	assert.Contains(t, err.Error(), "model 'nope' not found")
}

func TestOllamaClient_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}`))
	}))
	defer srv.Close()

	client, err := NewOllamaClient(&LlmConfig{BaseURL: srv.URL, ModelName: "m"}, logger.NewNullLogger())
	require.NoError(t, err)

	_, err = client.GetCompletion(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIClient_GetCompletion(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "llama3.1",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "import bpy"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(&LlmConfig{Provider: ProviderOpenAI, BaseURL: srv.URL + "/v1", ModelName: "llama3.1"}, nil)
	require.NoError(t, err)

	res, err := client.GetCompletion(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, "import bpy", res)

	messages, ok := got["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, map[string]interface{}{"role": "user", "content": "prompt text"}, messages[0])
}

func TestOpenAIClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(&LlmConfig{BaseURL: srv.URL + "/v1", ModelName: "m", APIKey: "k"}, nil)
	require.NoError(t, err)

	_, err = client.GetCompletion(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(&LlmConfig{Provider: "gemini", ModelName: "m"}, nil)
	assert.ErrorContains(t, err, "unknown model provider")

	_, err = NewClient(&LlmConfig{Provider: ProviderOllama}, nil)
	assert.ErrorContains(t, err, "model name is required")
}

func TestEnsureSessionID(t *testing.T) {
	id := EnsureSessionID("")
	assert.Len(t, id, 24)
	assert.Equal(t, id, EnsureSessionID(id))
	assert.NotEqual(t, "not-hex", EnsureSessionID("not-hex"))
	assert.NotEqual(t, "zz"+id[2:], EnsureSessionID("zz"+id[2:]))
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}
