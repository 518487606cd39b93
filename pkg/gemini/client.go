// Package gemini is a minimal client for the Gemini generateContent API with
// structured JSON output.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/tcgcompanion/backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://generativelanguage.googleapis.com/v1beta"
	responseBodyReadLimit int64 = 2048
)

var (
	errAPIKeyRequired = errors.New("gemini api key is required")
	errModelRequired  = errors.New("gemini model is required")

	// ErrInvalidResponse marks model output that does not satisfy the
	// requested response schema.
	ErrInvalidResponse = errors.New("gemini response does not match requested schema")
)

// Client calls a fixed Gemini model over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a Gemini client bound to one model.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		return nil, errModelRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		model:      trimmedModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Request describes one generateContent call. Schema is the JSON response
// schema the model output must conform to.
type Request struct {
	SystemInstruction string
	Prompt            string
	Image             *InlineImage
	Schema            map[string]any
}

// InlineImage attaches raw image bytes to the prompt.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

type apiPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *apiInlineData `json:"inline_data,omitempty"`
}

type apiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiRequest struct {
	SystemInstruction *apiContent  `json:"systemInstruction,omitempty"`
	Contents          []apiContent `json:"contents"`
	GenerationConfig  apiGenConfig `json:"generationConfig"`
}

type apiGenConfig struct {
	ResponseMIMEType string         `json:"response_mime_type"`
	ResponseSchema   map[string]any `json:"response_schema,omitempty"`
}

// Generate runs one generateContent call and returns the raw JSON text the
// model produced.
func (c *Client) Generate(ctx context.Context, req Request) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gemini client not configured")
	}
	if strings.TrimSpace(req.Prompt) == "" && req.Image == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gemini request needs a prompt or an image")
	}

	parts := []apiPart{}
	if req.Prompt != "" {
		parts = append(parts, apiPart{Text: req.Prompt})
	}
	if req.Image != nil {
		parts = append(parts, apiPart{InlineData: &apiInlineData{
			MIMEType: req.Image.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}})
	}

	body := apiRequest{
		Contents: []apiContent{{Role: "user", Parts: parts}},
		GenerationConfig: apiGenConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   req.Schema,
		},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &apiContent{Parts: []apiPart{{Text: req.SystemInstruction}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal generate request")
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.baseURL, "/"), c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build generate request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute generate request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		code := pkgerrors.CodeDependency
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			code = pkgerrors.CodeValidation
		}
		return nil, pkgerrors.Wrap(code, cause, "generate request failed")
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode generate response")
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned", ErrInvalidResponse)
	}

	return []byte(apiResp.Candidates[0].Content.Parts[0].Text), nil
}

// GenerateObject runs a generateContent call and decodes the JSON output into
// T. Output that fails to decode is reported as ErrInvalidResponse.
func GenerateObject[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T

	raw, err := c.Generate(ctx, req)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return out, nil
}

// IsRetryable reports whether the error came from a transient transport or
// upstream condition worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidResponse) {
		return false
	}
	if te := pkgerrors.As(err); te != nil {
		return pkgerrors.MetadataFor(te.Code()).Retryable
	}
	return false
}
