// Package googleads provides a thin, version-pinned REST client for the
// offline user data job surface used by audience uploads. Authentication is
// delegated to a TokenProvider; this package never performs token exchange
// itself.
package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL       = "https://googleads.googleapis.com"
	defaultAPIVersion    = "v17"
	jobTypeCustomerMatch = "CUSTOMER_MATCH_USER_LIST"
)

// TokenProvider supplies a bearer credential for each request. Implementations
// are expected to cache and refresh as needed.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider returning a fixed credential, useful for
// tests and short-lived runs.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token(_ context.Context) (string, error) {
	return string(t), nil
}

// Client defines the offline user data job operations used by the upload
// engine.
type Client interface {
	// CreateJob allocates a job against the target user list and returns the
	// job resource name.
	CreateJob(ctx context.Context, userListID string) (string, error)
	// AddOperations submits one batch of operations to an existing job.
	AddOperations(ctx context.Context, jobResource string, ops []Operation) error
	// RunJob starts asynchronous execution of a fully-populated job.
	RunJob(ctx context.Context, jobResource string) error
	// GetJobStatus fetches the remote job state.
	GetJobStatus(ctx context.Context, jobResource string) (JobStatus, error)
}

// ClientOption configures the REST client.
type ClientOption func(*restClient)

// WithBaseURL overrides the API endpoint (tests, proxies).
func WithBaseURL(u string) ClientOption {
	return func(c *restClient) {
		c.baseURL = u
	}
}

// WithAPIVersion pins a different API version.
func WithAPIVersion(v string) ClientOption {
	return func(c *restClient) {
		c.version = v
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *restClient) {
		c.http = h
	}
}

// WithRateLimit caps outgoing requests per second across all job calls.
func WithRateLimit(rps float64) ClientOption {
	return func(c *restClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type restClient struct {
	baseURL        string
	version        string
	customerID     string
	developerToken string
	tokens         TokenProvider
	http           *http.Client
	limiter        *rate.Limiter
}

// NewClient creates a REST client for one ads account. customerID is the
// numeric account ID; developerToken is the fixed application credential.
func NewClient(customerID, developerToken string, tokens TokenProvider, opts ...ClientOption) Client {
	c := &restClient{
		baseURL:        defaultBaseURL,
		version:        defaultAPIVersion,
		customerID:     customerID,
		developerToken: developerToken,
		tokens:         tokens,
		http:           &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *restClient) CreateJob(ctx context.Context, userListID string) (string, error) {
	req := createJobRequest{
		Job: jobSpec{
			Type: jobTypeCustomerMatch,
			CustomerMatchUserListMetadata: customerMatchUserListMetadata{
				UserList: fmt.Sprintf("customers/%s/userLists/%s", c.customerID, userListID),
			},
		},
	}

	var resp createJobResponse
	path := fmt.Sprintf("%s/%s/customers/%s/offlineUserDataJobs:create", c.baseURL, c.version, c.customerID)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return "", eris.Wrapf(err, "googleads: create job for list %s", userListID)
	}
	if resp.ResourceName == "" {
		return "", eris.Errorf("googleads: create job for list %s returned no resource name", userListID)
	}
	return resp.ResourceName, nil
}

func (c *restClient) AddOperations(ctx context.Context, jobResource string, ops []Operation) error {
	req := addOperationsRequest{Operations: ops, EnablePartialFailure: true}

	var resp addOperationsResponse
	path := fmt.Sprintf("%s/%s/%s:addOperations", c.baseURL, c.version, jobResource)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return eris.Wrapf(err, "googleads: add %d operations to %s", len(ops), jobResource)
	}
	if resp.PartialFailureError != nil {
		return &APIError{
			StatusCode: resp.PartialFailureError.Code,
			Status:     resp.PartialFailureError.Status,
			Message:    resp.PartialFailureError.Message,
		}
	}
	return nil
}

func (c *restClient) RunJob(ctx context.Context, jobResource string) error {
	path := fmt.Sprintf("%s/%s/%s:run", c.baseURL, c.version, jobResource)
	if err := c.post(ctx, path, struct{}{}, nil); err != nil {
		return eris.Wrapf(err, "googleads: run job %s", jobResource)
	}
	return nil
}

func (c *restClient) GetJobStatus(ctx context.Context, jobResource string) (JobStatus, error) {
	path := fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, jobResource)
	var job Job
	if err := c.get(ctx, path, &job); err != nil {
		return "", eris.Wrapf(err, "googleads: get status of %s", jobResource)
	}
	if job.Status == "" {
		return JobPending, nil
	}
	return job.Status, nil
}

func (c *restClient) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "encode request")
	}
	return c.do(ctx, http.MethodPost, url, bytes.NewReader(payload), out)
}

func (c *restClient) get(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

func (c *restClient) do(ctx context.Context, method, url string, body io.Reader, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return eris.Wrap(err, "obtain bearer token")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("developer-token", c.developerToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "http request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(data)}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Error.Message != "" {
			apiErr.Status = eb.Error.Status
			apiErr.Message = eb.Error.Message
		}
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return eris.Wrap(err, "decode response")
		}
	}
	return nil
}
