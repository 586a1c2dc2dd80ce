// Package snowflake is a client for the Snowflake SQL API: it submits statements and
// fetches result partitions for peerwire.PartitionedStream.
package snowflake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kent-id/peerwire"
	"github.com/kent-id/peerwire/types"
)

const (
	tokenTypeHeader     = "X-Snowflake-Authorization-Token-Type"
	userAgent           = "peerwire/1.0"
	defaultTimeout      = 60 * time.Second
	defaultPollInterval = 1 * time.Second
	maxErrorBody        = 4096
)

// Config configures a Client. Endpoint defaults to the account's statements endpoint.
type Config struct {
	AccountID    string
	Endpoint     string
	Warehouse    string
	Database     string
	Schema       string
	Role         string
	Timeout      time.Duration
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// Client talks to the SQL API of one account.
type Client struct {
	endpoint     string
	cfg          Config
	auth         AuthContext
	httpClient   *http.Client
	pollInterval time.Duration
}

type submitRequest struct {
	Statement string `json:"statement"`
	Timeout   int64  `json:"timeout,omitempty"`
	Database  string `json:"database,omitempty"`
	Schema    string `json:"schema,omitempty"`
	Warehouse string `json:"warehouse,omitempty"`
	Role      string `json:"role,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// New creates a Client. auth is asked for a credential on every request.
func New(cfg Config, auth AuthContext) (*Client, error) {
	if auth == nil {
		return nil, fmt.Errorf("snowflake auth is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.AccountID == "" {
			return nil, fmt.Errorf("snowflake account id or endpoint is required")
		}
		endpoint = fmt.Sprintf("https://%s.snowflakecomputing.com/api/v2/statements", strings.ToLower(cfg.AccountID))
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	peerwire.LogInfof("creating snowflake client with endpoint: %s, warehouse: %s, database: %s", endpoint, cfg.Warehouse, cfg.Database)
	return &Client{
		endpoint:     strings.TrimRight(endpoint, "/"),
		cfg:          cfg,
		auth:         auth,
		httpClient:   httpClient,
		pollInterval: pollInterval,
	}, nil
}

// Query submits sql and returns a stream over its result. The first partition comes
// back with the submission; later ones are fetched as the stream is read.
func (c *Client) Query(ctx context.Context, sql string) (*peerwire.PartitionedStream, error) {
	resultSet, err := c.Submit(ctx, sql)
	if err != nil {
		return nil, peerwire.NewNetworkError("failed to submit statement", err)
	}
	return peerwire.NewPartitionedStream(resultSet, c)
}

// Submit executes sql and waits for its first partition.
func (c *Client) Submit(ctx context.Context, sql string) (*types.ResultSet, error) {
	body, err := json.Marshal(submitRequest{
		Statement: sql,
		Timeout:   int64(c.cfg.Timeout / time.Second),
		Database:  c.cfg.Database,
		Schema:    c.cfg.Schema,
		Warehouse: c.cfg.Warehouse,
		Role:      c.cfg.Role,
	})
	if err != nil {
		return nil, err
	}

	query := url.Values{"requestId": {uuid.NewString()}}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint+"?"+query.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resultSet types.ResultSet
	status, err := c.do(req, &resultSet)
	if err != nil {
		return nil, err
	}
	peerwire.LogInfof("submitted statement with handle: %s", resultSet.StatementHandle)

	// 202 means the statement is still running past the submission timeout
	for status == http.StatusAccepted {
		peerwire.LogInfof("still awaiting statement %s, waitInterval: %s", resultSet.StatementHandle, c.pollInterval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		status, err = c.getStatement(ctx, resultSet.StatementHandle, nil, &resultSet)
		if err != nil {
			return nil, err
		}
	}
	return &resultSet, nil
}

// FetchPartition fetches one partition of a finished statement. It makes exactly one
// request and never retries.
func (c *Client) FetchPartition(ctx context.Context, statementHandle string, partition int) ([][]*string, error) {
	var result types.PartitionResult
	query := url.Values{"partition": {strconv.Itoa(partition)}}
	if _, err := c.getStatement(ctx, statementHandle, query, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (c *Client) getStatement(ctx context.Context, statementHandle string, query url.Values, out interface{}) (int, error) {
	target := c.endpoint + "/" + url.PathEscape(statementHandle)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	return c.do(req, out)
}

// newRequest builds a request carrying a fresh credential from the auth context.
func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth token: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(tokenTypeHeader, c.auth.TokenType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return resp.StatusCode, fmt.Errorf("%s %s returned %d: %s (code %s)", req.Method, req.URL.Path, resp.StatusCode, apiErr.Message, apiErr.Code)
		}
		return resp.StatusCode, fmt.Errorf("%s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response of %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp.StatusCode, nil
}

var _ peerwire.PartitionFetcher = (*Client)(nil)
