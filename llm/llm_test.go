package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionResponse(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func newTestClient(url string) *Client {
	return &Client{BaseURL: url, APIKey: "test-key", Model: "test-model"}
}

func TestTranslateRequestShape(t *testing.T) {
	var captured chatRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse(`{"greeting": "Hallo {name}"}`)))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	out, err := c.Translate(context.Background(),
		map[string]string{"greeting": "Hello {name}"}, "en", "de", "Use informal du.")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"greeting": "Hallo {name}"}, out)
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	// Language names, not codes, go into the prompt.
	assert.Contains(t, captured.Messages[0].Content, "English")
	assert.Contains(t, captured.Messages[0].Content, "German")
	assert.Contains(t, captured.Messages[0].Content, "Use informal du.")

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(captured.Messages[1].Content), &payload))
	assert.Equal(t, "Hello {name}", payload["greeting"])
}

func TestTranslateStripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("```json\n{\"k\": \"v\"}\n```")))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Translate(context.Background(),
		map[string]string{"k": "x"}, "en", "de", "")
	require.NoError(t, err)
	assert.Equal(t, "v", out["k"])
}

func TestTranslateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Translate(context.Background(),
		map[string]string{"k": "x"}, "en", "de", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestTranslateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"message": "model overloaded"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Translate(context.Background(),
		map[string]string{"k": "x"}, "en", "de", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestTranslateNonObjectCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("Sorry, I cannot translate that.")))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Translate(context.Background(),
		map[string]string{"k": "x"}, "en", "de", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key/value object")
}

func TestTranslateRequiresAPIKey(t *testing.T) {
	c := &Client{BaseURL: "http://localhost:1", Model: "m"}
	_, err := c.Translate(context.Background(), map[string]string{"k": "x"}, "en", "de", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": "b"}`, `{"a": "b"}`},
		{"```json\n{\"a\": \"b\"}\n```", `{"a": "b"}`},
		{"```\n{\"a\": \"b\"}\n```", `{"a": "b"}`},
		{"  {\"a\": \"b\"}  ", `{"a": "b"}`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stripFences(tc.in), "input: %q", tc.in)
	}
}
