// Package polish rewrites raw transcripts into English prose with the Gemini generateContent API
package polish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// Temperature is fixed and not exposed to users
const Temperature = 0.7

// ErrEmptyResponse is returned when the model answers without text
var ErrEmptyResponse = errors.New("model returned an empty response")

// APIError is a non-2xx answer of the generative API
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generative API error %d %s: %s", e.StatusCode, e.Status, e.Message)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Client is the polishing collaborator
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *zap.Logger
}

// NewClient creates a Gemini client; endpoint is the API root such as https://generativelanguage.googleapis.com/v1beta
func NewClient(endpoint, apiKey, model string, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		retry:      DefaultRetryPolicy(),
		logger:     logger,
	}
}

// WithHTTPClient replaces the HTTP client
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// WithRetryPolicy replaces the retry policy
func (c *Client) WithRetryPolicy(policy RetryPolicy) *Client {
	c.retry = policy
	return c
}

// Polish translates and polishes raw text into English prose
func (c *Client) Polish(ctx context.Context, rawText, languageHint string) (*models.PolishedText, error) {
	text, err := c.generate(ctx, polishPrompt(rawText, languageHint))
	if err != nil {
		return nil, err
	}
	return &models.PolishedText{
		Text:           text,
		SourceLanguage: languageHint,
		Model:          c.model,
	}, nil
}

// Describe writes a short promotional description of a story
func (c *Client) Describe(ctx context.Context, storyContent, languageHint string) (string, error) {
	return c.generate(ctx, describePrompt(storyContent, languageHint))
}

// generate runs one prompt with the retry policy
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := c.retry.Do(ctx, func(attempt int) error {
		var callErr error
		text, callErr = c.call(ctx, prompt)
		if callErr != nil {
			c.logger.Warn("generative API call failed",
				zap.Int("attempt", attempt),
				zap.Bool("transient", IsTransient(callErr)),
				zap.Error(callErr),
			)
		}
		return callErr
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call generative API: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(payload))}
		var parsed errorResponse
		if json.Unmarshal(payload, &parsed) == nil && parsed.Error.Message != "" {
			apiErr.Message = parsed.Error.Message
			apiErr.Status = parsed.Error.Status
		}
		return "", apiErr
	}

	var parsed generateResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var sb strings.Builder
	for _, candidate := range parsed.Candidates {
		for _, p := range candidate.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
