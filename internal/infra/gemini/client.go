// Package gemini provides a client for the Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Client is a Gemini API client.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Config represents Gemini client configuration.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Roles used in a conversation.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is one piece of message content.
type Part struct {
	Text string `json:"text"`
}

// Content is one conversation turn.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Text creates a single-part conversation turn.
func Text(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// GenerateContentRequest represents the request body of generateContent.
type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

// GenerateContentResponse represents the response from generateContent.
type GenerateContentResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// APIError represents an error response from the Gemini API.
type APIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// New creates a new Gemini client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// GenerateContent sends the conversation and returns the text of the first
// candidate's first part. An empty answer is not an error.
// Reference: https://ai.google.dev/api/generate-content
func (c *Client) GenerateContent(ctx context.Context, contents []Content) (string, error) {
	if len(contents) == 0 {
		return "", errors.New("at least one content turn is required")
	}

	payload, err := json.Marshal(GenerateContentRequest{Contents: contents})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode request")
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + "/models/" + url.PathEscape(c.model) + ":generateContent?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		var apiError APIError
		if err := json.Unmarshal(body, &apiError); err == nil && apiError.Error.Message != "" {
			return "", errors.Newf("gemini API error %d: %s", resp.StatusCode, apiError.Error.Message)
		}
		return "", errors.Newf("gemini API error %d", resp.StatusCode)
	}

	var response GenerateContentResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Wrap(err, "failed to parse response")
	}

	zlog.Debug().Msgf("gemini: generated: model=%s candidates=%d elapsed=%v", c.model, len(response.Candidates), time.Since(start))

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return response.Candidates[0].Content.Parts[0].Text, nil
}
