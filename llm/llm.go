// Package llm implements the translation capability against any
// OpenAI-compatible chat-completions endpoint. It is deliberately the
// only package that knows about HTTP: the orchestrator consumes it as
// a plain translate.Func and can swap in a mock.
//
// Protocol: the request carries a key→text JSON object; the model must
// answer with a JSON object holding the same keys and translated
// values. Placeholder preservation is demanded in the system prompt
// and enforced again by the orchestrator's guard — the prompt is a
// request, the guard is the contract.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/l10nbox/l10nbox/langmeta"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// systemPrompt is the base instruction set. {{sourceLang}} and
// {{targetLang}} are substituted per request.
const systemPrompt = `You are a professional software localization translator.
Translate the values of the given JSON object from {{sourceLang}} to {{targetLang}}.

TECHNICAL REQUIREMENTS:
- Return ONLY a JSON object with exactly the same keys and translated string values.
- Preserve every placeholder exactly as-is: {name}, %d, %1$s, %.2f, %@, %%.
- Preserve escape sequences (\n, \", \\) and leading/trailing whitespace.
- Keep brand names and proper nouns unchanged.
- Translate for naturalness in {{targetLang}}, not word-for-word.
- No explanations, no markdown code fences.`

// Client talks to one OpenAI-compatible endpoint.
type Client struct {
	// BaseURL is the API root (e.g. "https://api.openai.com/v1").
	BaseURL string
	// APIKey is sent as a Bearer token.
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy overrides the proxy URL; empty uses the environment.
	Proxy string
	// Timeout bounds one HTTP round trip.
	Timeout time.Duration

	httpClient *http.Client
}

// NewFromEnv builds a client from OPENAI_BASE_URL, OPENAI_API_KEY and
// OPENAI_MODEL, with standard defaults.
func NewFromEnv() *Client {
	c := &Client{
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("OPENAI_MODEL"),
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	return c
}

// client builds the HTTP client lazily, honoring both the explicit
// Proxy field and HTTP_PROXY/HTTPS_PROXY environment variables.
func (c *Client) client() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.Proxy != "" {
		if parsed, err := url.Parse(c.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	c.httpClient = &http.Client{Transport: transport, Timeout: timeout}
	return c.httpClient
}

// ---------------------------------------------------------------------------
// Chat completions wire types
// ---------------------------------------------------------------------------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ---------------------------------------------------------------------------
// Translate
// ---------------------------------------------------------------------------

// Translate implements translate.Func. All errors are transport-level:
// retry policy lives in the orchestrator, not here.
func (c *Client) Translate(ctx context.Context, texts map[string]string, sourceLocale, targetLocale, guidance string) (map[string]string, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("no API key configured (set OPENAI_API_KEY)")
	}

	prompt := systemPrompt
	prompt = strings.ReplaceAll(prompt, "{{sourceLang}}", langmeta.Resolve(sourceLocale).Name)
	prompt = strings.ReplaceAll(prompt, "{{targetLang}}", langmeta.Resolve(targetLocale).Name)
	if guidance = strings.TrimSpace(guidance); guidance != "" {
		prompt += "\n\nADDITIONAL GUIDANCE:\n" + guidance
	}

	payload, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: string(payload)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: HTTP %d: %s", endpoint, resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("empty completion")
	}

	content := stripFences(parsed.Choices[0].Message.Content)

	var out map[string]string
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("completion is not a key/value object: %w", err)
	}
	return out, nil
}

// stripFences removes a ```json ... ``` wrapper some models insist on
// adding despite the prompt.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
