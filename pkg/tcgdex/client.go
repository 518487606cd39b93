// Package tcgdex fetches catalog data from the TCGdex REST API.
package tcgdex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/tcgcompanion/backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.tcgdex.net/v2/en"
	responseBodyReadLimit int64 = 1024
)

// Client wraps the TCGdex catalog feed.
type Client struct {
	httpClient *http.Client
	baseURL    string
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

// WithBaseURL overrides the feed base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a TCGdex client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// SetBrief is a set as listed by the sets index endpoint.
type SetBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Set is a full set with its card list.
type Set struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"releaseDate"`
	Cards       []Card `json:"cards"`
}

// Card is a catalog card as embedded in a set response.
type Card struct {
	ID      string `json:"id"`
	LocalID string `json:"localId"`
	Name    string `json:"name"`
	Image   string `json:"image"`
}

// ImageURL returns the full asset URL for the card image, or "" when the
// feed carries no image for the card.
func (c Card) ImageURL() string {
	if c.Image == "" {
		return ""
	}
	return c.Image + "/high.png"
}

// ReleaseYear parses the four-digit year from the set's release date.
// Returns 0 when the date is absent or malformed.
func (s Set) ReleaseYear() int {
	parsed, err := time.Parse("2006-01-02", s.ReleaseDate)
	if err != nil {
		return 0
	}
	return parsed.Year()
}

// ListSets fetches the index of all sets.
func (c *Client) ListSets(ctx context.Context) ([]SetBrief, error) {
	var sets []SetBrief
	if err := c.getJSON(ctx, "sets", &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// GetSet fetches one set with its full card list.
func (c *Client) GetSet(ctx context.Context, setID string) (*Set, error) {
	trimmed := strings.TrimSpace(setID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "set id is required")
	}

	var set Set
	if err := c.getJSON(ctx, "sets/"+url.PathEscape(trimmed), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "tcgdex client not configured")
	}

	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("catalog resource %s not found", path))
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "catalog request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}
	return nil
}
