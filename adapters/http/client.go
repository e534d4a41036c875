package http

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

	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/pkg/jsonapi"
	"github.com/artpar/occi/ports"
)

// maxResponseSize bounds response bodies read into memory.
const maxResponseSize = 50 << 20

// Client is a remote backend: it provisions entities by driving
// another server's REST API and can serve that server's catalogue to
// the local registry.
type Client struct {
	client   *http.Client
	baseURL  *url.URL
	username string
	password string
}

// ClientConfig contains configuration for the remote client.
type ClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration

	// Username and Password are sent as basic auth when set.
	Username string
	Password string
}

// NewClient creates a new remote backend client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("base URL %q: scheme and host are required", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}

	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConns,
		IdleConnTimeout:     idleConnTimeout,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:  baseURL,
		username: cfg.Username,
		password: cfg.Password,
	}, nil
}

// Name identifies the backend.
func (c *Client) Name() string { return "remote" }

// Create provisions a new entity on the remote server.
func (c *Client) Create(ctx context.Context, rec ports.Record) (ports.Record, error) {
	resp, body, err := c.do(ctx, http.MethodPost, "/v1/entities", nil, recordDocument(rec))
	if err != nil {
		return ports.Record{}, err
	}
	if resp.StatusCode != http.StatusCreated {
		return ports.Record{}, c.responseError(resp, body)
	}
	return c.decodeRecord(body)
}

// Get retrieves an entity by ID.
func (c *Client) Get(ctx context.Context, id string) (ports.Record, error) {
	resp, body, err := c.do(ctx, http.MethodGet, "/v1/entities/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return ports.Record{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return ports.Record{}, c.responseError(resp, body)
	}
	return c.decodeRecord(body)
}

// List retrieves all entities matching the filter, walking the
// server's pages until a short page ends the listing.
func (c *Client) List(ctx context.Context, filter ports.ListFilter) ([]ports.Record, error) {
	const pageSize = jsonapi.MaxPageSize

	var records []ports.Record
	for page := 1; ; page++ {
		q := url.Values{}
		if filter.Kind != "" {
			q.Set("kind", filter.Kind)
		}
		if filter.Mixin != "" {
			q.Set("mixin", filter.Mixin)
		}
		q.Set("page[number]", strconv.Itoa(page))
		q.Set("page[size]", strconv.Itoa(pageSize))

		resp, body, err := c.do(ctx, http.MethodGet, "/v1/entities", q, nil)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, c.responseError(resp, body)
		}

		var doc struct {
			Data []resourcePayload `json:"data"`
		}
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		for _, p := range doc.Data {
			records = append(records, recordFromPayload(p))
		}
		if len(doc.Data) < pageSize {
			return records, nil
		}
	}
}

// Update replaces the stored attributes and mixins of an entity.
func (c *Client) Update(ctx context.Context, rec ports.Record) (ports.Record, error) {
	resp, body, err := c.do(ctx, http.MethodPatch, "/v1/entities/"+url.PathEscape(rec.ID), nil, recordDocument(rec))
	if err != nil {
		return ports.Record{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return ports.Record{}, c.responseError(resp, body)
	}
	return c.decodeRecord(body)
}

// Delete removes an entity.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, body, err := c.do(ctx, http.MethodDelete, "/v1/entities/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return c.responseError(resp, body)
	}
	return nil
}

// InvokeAction runs an action against a remote entity and reports the
// resulting state.
func (c *Client) InvokeAction(ctx context.Context, id string, action category.Identifier, attributes map[string]any) (ports.ActionResult, error) {
	payload := map[string]any{"action": action.String()}
	if len(attributes) > 0 {
		payload["attributes"] = attributes
	}

	resp, body, err := c.do(ctx, http.MethodPost, "/v1/entities/"+url.PathEscape(id)+"/actions", nil, payload)
	if err != nil {
		return ports.ActionResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return ports.ActionResult{}, c.responseError(resp, body)
	}

	rec, err := c.decodeRecord(body)
	if err != nil {
		return ports.ActionResult{}, err
	}
	return ports.ActionResult{State: rec.State, Attributes: rec.Attributes}, nil
}

// ExistsWithAttributeValue probes the remote uniqueness endpoint.
func (c *Client) ExistsWithAttributeValue(ctx context.Context, kind category.Identifier, attribute string, value any) (bool, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode value: %w", err)
	}

	q := url.Values{}
	q.Set("kind", kind.String())
	q.Set("attribute", attribute)
	q.Set("value", string(encoded))

	resp, body, err := c.do(ctx, http.MethodGet, "/v1/entities/exists", q, nil)
	if err != nil {
		return false, err
	}
	if resp.StatusCode != http.StatusOK {
		return false, c.responseError(resp, body)
	}

	var doc struct {
		Meta struct {
			Exists bool `json:"exists"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return doc.Meta.Exists, nil
}

// HealthCheck verifies the remote server is ready.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, body, err := c.do(ctx, http.MethodGet, "/health/ready", nil, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return c.responseError(resp, body)
	}
	return nil
}

// Catalogue fetches the remote server's category document so its
// definitions can be registered locally.
func (c *Client) Catalogue(ctx context.Context) (*category.Document, error) {
	resp, body, err := c.do(ctx, http.MethodGet, "/v1/catalogue", nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.responseError(resp, body)
	}

	var doc category.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	return &doc, nil
}

// RegisterCatalogue posts a category document to the remote server's
// catalogue. Identical definitions already registered there are no-ops.
func (c *Client) RegisterCatalogue(ctx context.Context, doc *category.Document) error {
	resp, body, err := c.do(ctx, http.MethodPost, "/v1/catalogue", nil, doc)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return c.responseError(resp, body)
	}
	return nil
}

// UnregisterCategory removes one definition from the remote server's
// catalogue.
func (c *Client) UnregisterCategory(ctx context.Context, id category.Identifier) error {
	query := url.Values{"category": []string{id.String()}}
	resp, body, err := c.do(ctx, http.MethodDelete, "/v1/catalogue", query, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return c.responseError(resp, body)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

// do executes one request against the remote server and returns the
// response with its fully read body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, []byte, error) {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", jsonapi.ContentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("remote request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, data, nil
}

// responseError turns an error response into a Go error, preserving
// the first JSON:API error's code and detail.
func (c *Client) responseError(resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusNotFound {
		return ports.ErrNotFound
	}

	var doc struct {
		Errors []jsonapi.Error `json:"errors"`
	}
	if err := json.Unmarshal(body, &doc); err == nil && len(doc.Errors) > 0 {
		e := doc.Errors[0]
		return fmt.Errorf("remote: %s: %s", e.Code, e.Detail)
	}
	return fmt.Errorf("remote: unexpected status %d", resp.StatusCode)
}

// resourcePayload mirrors the entity resource shape the server writes.
type resourcePayload struct {
	Type          string         `json:"type"`
	ID            string         `json:"id"`
	Attributes    map[string]any `json:"attributes"`
	Relationships struct {
		Mixins struct {
			Data []jsonapi.ResourceIdentifier `json:"data"`
		} `json:"mixins"`
	} `json:"relationships"`
	Meta map[string]any `json:"meta"`
}

func (c *Client) decodeRecord(body []byte) (ports.Record, error) {
	var doc struct {
		Data resourcePayload `json:"data"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return ports.Record{}, fmt.Errorf("decode response: %w", err)
	}
	return recordFromPayload(doc.Data), nil
}

func recordFromPayload(p resourcePayload) ports.Record {
	rec := ports.Record{
		ID:         p.ID,
		Kind:       p.Type,
		Attributes: p.Attributes,
	}
	for _, ref := range p.Relationships.Mixins.Data {
		rec.Mixins = append(rec.Mixins, ref.ID)
	}
	if s, ok := p.Meta["state"].(string); ok {
		rec.State = s
	}
	if ts, ok := p.Meta["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.CreatedAt = t
		}
	}
	if ts, ok := p.Meta["updated_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.UpdatedAt = t
		}
	}
	return rec
}

// recordDocument shapes a record as the JSON:API body Create and
// Update accept.
func recordDocument(rec ports.Record) map[string]any {
	mixins := make([]jsonapi.ResourceIdentifier, 0, len(rec.Mixins))
	for _, m := range rec.Mixins {
		mixins = append(mixins, jsonapi.ResourceIdentifier{Type: "mixin", ID: m})
	}

	data := map[string]any{
		"type":       rec.Kind,
		"attributes": rec.Attributes,
		"relationships": map[string]any{
			"mixins": map[string]any{"data": mixins},
		},
	}
	if rec.ID != "" {
		data["id"] = rec.ID
	}
	return map[string]any{"data": data}
}

var (
	_ ports.Backend         = (*Client)(nil)
	_ ports.CatalogueSource = (*Client)(nil)
)
