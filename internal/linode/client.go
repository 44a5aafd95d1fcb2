package linode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nikitaproks/vpn-bot/internal/shared/errors"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
	"github.com/nikitaproks/vpn-bot/pkg/secret"
)

const (
	defaultBaseURL = "https://api.linode.com/v4"
	defaultImage   = "linode/ubuntu20.04"
	defaultPlan    = "g6-nanode-1"

	// listPageSize is the fixed page size used when paginating listings.
	listPageSize = 100
)

// Client is a typed wrapper around the Linode instances API.
// Every call is a live network request; nothing is cached.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Linode API client.
func NewClient(token string, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewDevelopment("linode")
	}

	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateOpts describes a creation request. Image and plan fall back to the
// bot defaults when empty. The root password is generated fresh per request
// and never returned to the caller.
type CreateOpts struct {
	Region          Region
	Label           string
	Image           string
	Plan            string
	StackScriptID   int
	StackScriptData ShadowsocksParams
}

type createPayload struct {
	Type            string            `json:"type"`
	Image           string            `json:"image"`
	Region          string            `json:"region"`
	Label           string            `json:"label"`
	RootPass        string            `json:"root_pass"`
	StackScriptID   int               `json:"stackscript_id,omitempty"`
	StackScriptData ShadowsocksParams `json:"stackscript_data,omitempty"`
}

// CreateInstance issues a creation request and returns the created record.
// Any status other than 200 is a ProvisionError carrying the raw response
// body; creation is never retried here.
func (c *Client) CreateInstance(ctx context.Context, opts CreateOpts) (*Instance, error) {
	rootPass, err := secret.RootPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate root password: %w", err)
	}

	payload := createPayload{
		Type:            opts.Plan,
		Image:           opts.Image,
		Region:          opts.Region.Code(),
		Label:           opts.Label,
		RootPass:        rootPass,
		StackScriptID:   opts.StackScriptID,
		StackScriptData: opts.StackScriptData,
	}
	if payload.Type == "" {
		payload.Type = defaultPlan
	}
	if payload.Image == "" {
		payload.Image = defaultImage
	}

	body, status, err := c.do(ctx, http.MethodPost, "/linode/instances", nil, payload)
	if err != nil {
		return nil, errors.NewProvisionError("create", 0, "", err)
	}
	if status != http.StatusOK {
		return nil, errors.NewProvisionError("create", status, string(body), nil)
	}

	var instance Instance
	if err := json.Unmarshal(body, &instance); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}

	c.logger.InfoContext(ctx, "instance created",
		"instance_id", instance.ID,
		"region", instance.Region,
		"label", instance.Label)
	return &instance, nil
}

type listResponse struct {
	Data []Instance `json:"data"`
}

// ListInstances returns all instances on the account, in server order.
// Pagination is internal: pages of 100 are fetched until an empty page.
func (c *Client) ListInstances(ctx context.Context) ([]Instance, error) {
	var all []Instance

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("page_size", strconv.Itoa(listPageSize))

		body, status, err := c.do(ctx, http.MethodGet, "/linode/instances", params, nil)
		if err != nil {
			return nil, errors.NewProvisionError("list", 0, "", err)
		}
		if status != http.StatusOK {
			return nil, errors.NewProvisionError("list", status, string(body), nil)
		}

		var resp listResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode list response: %w", err)
		}
		if len(resp.Data) == 0 {
			break
		}
		all = append(all, resp.Data...)
	}

	c.logger.DebugContext(ctx, "listed instances", "count", len(all))
	return all, nil
}

// DeleteInstance issues a deletion request. A nil error means the API
// acknowledged the deletion; all failure modes (network error, not found,
// server error) are reported uniformly as a ProvisionError.
func (c *Client) DeleteInstance(ctx context.Context, id int) error {
	body, status, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/linode/instances/%d", id), nil, nil)
	if err != nil {
		return errors.NewProvisionError("delete", 0, "", err)
	}
	if status != http.StatusOK {
		return errors.NewProvisionError("delete", status, string(body), nil)
	}

	c.logger.InfoContext(ctx, "instance deleted", "instance_id", id)
	return nil
}

// do performs a single API request and returns the raw body and status.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload any) ([]byte, int, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "making API request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}
