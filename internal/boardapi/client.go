// Package boardapi fetches a task board over the monday.com GraphQL
// API and converts it into boardcache snapshots.
package boardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tferrors "github.com/threadflow/threadflow/pkg/threadflow/errors"
)

// Defaults for the production board.
const (
	DefaultEndpoint = "https://api.monday.com/v2"
	DefaultBoardID  = 2039779333
)

// Column IDs on the production board. The API identifies columns by
// these opaque IDs, not by their display names.
const (
	colPerson   = "person"
	colDate     = "date4"
	colStatus   = "status"
	colClient   = "dropdown_mksnbmk2"
	colMiro     = "link_mksnj6fc"
	colDrive    = "link_mksn5w3"
	colFrameio  = "link_mksnvt1d"
	colNotes    = "long_text_mksn8vr6"
	colPriority = "text_mksnh90q"
)

// Client talks to the board API. Construct with NewClient.
type Client struct {
	endpoint string
	token    string
	boardID  int64
	http     *http.Client
	logger   *slog.Logger
	retry    tferrors.RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint, mainly for tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithBoardID selects a board other than the default.
func WithBoardID(id int64) Option {
	return func(c *Client) {
		if id != 0 {
			c.boardID = id
		}
	}
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetry overrides the retry policy for board calls.
func WithRetry(cfg tferrors.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// NewClient builds a board client authenticating with token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		token:    token,
		boardID:  DefaultBoardID,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default(),
		retry:    tferrors.DefaultRetry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type boardResponse struct {
	Data struct {
		Boards []boardPayload `json:"boards"`
		Me     *struct {
			ID string `json:"id"`
		} `json:"me"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type boardPayload struct {
	Name   string `json:"name"`
	Groups []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"groups"`
	ItemsPage struct {
		Items []boardItem `json:"items"`
	} `json:"items_page"`
}

type boardItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group struct {
		ID string `json:"id"`
	} `json:"group"`
	ColumnValues []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"column_values"`
}

// query executes one GraphQL request, retrying transient failures.
func (c *Client) query(ctx context.Context, q string) (*boardResponse, error) {
	return tferrors.Do(ctx, c.retry, "board query", func(ctx context.Context) (*boardResponse, error) {
		body, err := json.Marshal(graphQLRequest{Query: q})
		if err != nil {
			return nil, fmt.Errorf("marshaling query: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Authorization", c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("board request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading board response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, tferrors.StatusError(c.endpoint, resp.StatusCode, respBody)
		}

		var parsed boardResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("decoding board response: %w", err)
		}
		if len(parsed.Errors) > 0 {
			return nil, fmt.Errorf("board API returned errors: %s", parsed.Errors[0].Message)
		}
		return &parsed, nil
	})
}

// boardQuery is the single query that pulls everything the cache
// needs: board name, groups, and every item with its column values.
func (c *Client) boardQuery() string {
	return fmt.Sprintf(`{
  boards(ids: %d) {
    name
    groups {
      id
      title
    }
    items_page {
      items {
        id
        name
        group {
          id
        }
        column_values {
          id
          text
        }
      }
    }
  }
}`, c.boardID)
}

// Healthy reports whether the API answers an authenticated query.
func (c *Client) Healthy(ctx context.Context) bool {
	resp, err := c.query(ctx, "{ me { id } }")
	if err != nil {
		c.logger.Warn("board health check failed", "error", err)
		return false
	}
	return resp.Data.Me != nil && resp.Data.Me.ID != ""
}
