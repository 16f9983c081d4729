// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/parfour/parfour/internal/config"
	"github.com/parfour/parfour/internal/identity"
	"github.com/parfour/parfour/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is read.
const maxErrorBodySize = 64 * 1024

// Asset is an uploaded media asset as reported by the media API.
type Asset struct {
	PublicID     string    `json:"public_id"`
	Format       string    `json:"format"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Bytes        int64     `json:"bytes"`
	SecureURL    string    `json:"secure_url"`
	ResourceType string    `json:"resource_type"`
	Folder       string    `json:"folder,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// destroyResponse is the media API's delete acknowledgement.
// Result is "ok" on success, "not found" when the asset is gone.
type destroyResponse struct {
	Result string `json:"result"`
}

// searchResponse is the media API's resource search result page.
type searchResponse struct {
	TotalCount int     `json:"total_count"`
	Resources  []Asset `json:"resources"`
}

// ClientInterface defines the media service operations. Implemented by
// Client for production and by mocks for testing.
type ClientInterface interface {
	Upload(ctx context.Context, filename string, content io.Reader, folder string) (*Asset, error)
	Delete(ctx context.Context, publicID string) error
	List(ctx context.Context, folder string, maxResults int) ([]Asset, error)
}

// Client is the HTTP client for the hosted media service. Requests are
// signed with the account secret and throttled by a token-bucket
// limiter so bulk operations never exceed the media API's rate
// allowances.
type Client struct {
	creds        Credentials
	apiHost      string
	scheme       string
	uploadFolder string
	httpClient   *http.Client
	limiter      *rate.Limiter
	now          func() time.Time
}

// NewClient creates a media client from configuration.
func NewClient(cfg *config.MediaConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		creds:        CredentialsFromConfig(cfg),
		apiHost:      cfg.APIHost,
		scheme:       "https",
		uploadFolder: cfg.UploadFolder,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(rps), int(rps)),
		now:          time.Now,
	}
}

// Upload uploads an image to the media service. The asset lands in the
// given folder, or the configured default when folder is empty.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader, folder string) (*Asset, error) {
	if err := c.creds.Validate(); err != nil {
		return nil, err
	}
	if folder == "" {
		folder = c.uploadFolder
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if folder != "" {
		params["folder"] = folder
	}
	signed := signedParams(params, c.creds)

	body, contentType, err := buildUploadBody(filename, content, signed)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	asset := &Asset{}
	err = c.doRequest(ctx, c.endpoint("image/upload"), contentType, body, "", asset)
	metrics.MediaAPICallDuration.WithLabelValues("upload").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MediaAPICalls.WithLabelValues("upload", "failure").Inc()
		return nil, err
	}

	metrics.MediaAPICalls.WithLabelValues("upload", "success").Inc()
	return asset, nil
}

// Delete removes an asset by its public ID. Deleting an asset the
// media service no longer has is not an error; the end state is the
// same.
func (c *Client) Delete(ctx context.Context, publicID string) error {
	if err := c.creds.Validate(); err != nil {
		return err
	}
	if publicID == "" {
		return fmt.Errorf("public ID must not be empty")
	}

	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	signed := signedParams(params, c.creds)

	form := url.Values{}
	for k, v := range signed {
		form.Set(k, v)
	}

	start := time.Now()
	result := &destroyResponse{}
	err := c.doRequest(ctx, c.endpoint("image/destroy"),
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), "", result)
	metrics.MediaAPICallDuration.WithLabelValues("delete").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MediaAPICalls.WithLabelValues("delete", "failure").Inc()
		return err
	}

	if result.Result != "ok" && result.Result != "not found" {
		metrics.MediaAPICalls.WithLabelValues("delete", "failure").Inc()
		return &identity.UpstreamError{
			Service:    "media",
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("delete of %s rejected: %s", publicID, result.Result),
		}
	}

	metrics.MediaAPICalls.WithLabelValues("delete", "success").Inc()
	return nil
}

// List returns the assets in a folder, or in the configured default
// folder when folder is empty. The search parameters are signed like
// every other request; the signature travels as the HTTP Basic
// password alongside the API key.
func (c *Client) List(ctx context.Context, folder string, maxResults int) ([]Asset, error) {
	if err := c.creds.Validate(); err != nil {
		return nil, err
	}
	if folder == "" {
		folder = c.uploadFolder
	}
	if maxResults <= 0 || maxResults > 500 {
		maxResults = 100
	}

	params := map[string]string{
		"expression":  fmt.Sprintf("folder=%s", folder),
		"max_results": strconv.Itoa(maxResults),
		"timestamp":   strconv.FormatInt(c.now().Unix(), 10),
	}
	signature := Sign(params, c.creds.APISecret)

	payload, err := json.Marshal(map[string]any{
		"expression":  params["expression"],
		"max_results": maxResults,
		"timestamp":   params["timestamp"],
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	start := time.Now()
	result := &searchResponse{}
	err = c.doRequest(ctx, c.endpoint("resources/search"),
		"application/json", bytes.NewReader(payload), signature, result)
	metrics.MediaAPICallDuration.WithLabelValues("list").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MediaAPICalls.WithLabelValues("list", "failure").Inc()
		return nil, err
	}

	metrics.MediaAPICalls.WithLabelValues("list", "success").Inc()
	return result.Resources, nil
}

// endpoint builds the full API URL for an action on this account.
func (c *Client) endpoint(action string) string {
	return fmt.Sprintf("%s://%s/v1_1/%s/%s", c.scheme, c.apiHost, c.creds.CloudName, action)
}

// doRequest performs one rate-limited request against the media API and
// decodes the JSON response into out. A non-empty signature is sent as
// HTTP Basic api_key:signature, for endpoints whose signed parameters
// ride in the body instead of form fields.
func (c *Client) doRequest(ctx context.Context, endpoint, contentType string, body io.Reader, signature string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if signature != "" {
		req.SetBasicAuth(c.creds.APIKey, signature)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &identity.UpstreamError{Service: "media", Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return identity.ParseUpstreamError("media", resp.StatusCode, errBody)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &identity.UpstreamError{
			Service:    "media",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to decode response: %v", err),
		}
	}
	return nil
}

// buildUploadBody assembles the multipart form for an upload: the file
// content plus every signed parameter as a form field.
func buildUploadBody(filename string, content io.Reader, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
