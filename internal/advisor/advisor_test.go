package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(body)
}

func newAdvisor(url string) *Advisor {
	return New(Options{
		APIKey:  "sk-test",
		BaseURL: url,
		Backoff: func(int) time.Duration { return time.Millisecond },
	})
}

func TestRecommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo-1106", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "[CPU 후보]")
		assert.Contains(t, req.Messages[1].Content, `"게임용 PC"`)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)

		fmt.Fprint(w, completion("  [{\"part\":\"CPU\",\"candidates\":[]}]\n"))
	}))
	defer srv.Close()

	got, err := newAdvisor(srv.URL).Recommend(context.Background(), "게임용 PC", "[CPU 후보]\n1. AMD")
	require.NoError(t, err)
	assert.Equal(t, `[{"part":"CPU","candidates":[]}]`, got)
}

func TestRecommend_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, completion("{}"))
	}))
	defer srv.Close()

	got, err := newAdvisor(srv.URL).Recommend(context.Background(), "p", "b")
	require.NoError(t, err)
	assert.Equal(t, "{}", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRecommend_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newAdvisor(srv.URL).Recommend(context.Background(), "p", "b")
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestRecommend_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completion("   "))
	}))
	defer srv.Close()

	_, err := newAdvisor(srv.URL).Recommend(context.Background(), "p", "b")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestRecommend_MissingKey(t *testing.T) {
	_, err := New(Options{}).Recommend(context.Background(), "p", "b")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestPrompts(t *testing.T) {
	assert.Contains(t, SystemPrompt(), "7가지 부품")
	assert.True(t, json.Valid([]byte(example)))
	assert.Contains(t, UserPrompt("조용한 사무용", "[SSD 후보]"), "[SSD 후보]")
}

func TestRecommend_AttemptTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		fmt.Fprint(w, completion("{}"))
	}))
	defer srv.Close()

	a := New(Options{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
		Backoff: func(int) time.Duration { return time.Millisecond },
	})
	got, err := a.Recommend(context.Background(), "p", "b")
	require.NoError(t, err)
	assert.Equal(t, "{}", got)
	assert.Equal(t, int32(2), calls.Load())
}
