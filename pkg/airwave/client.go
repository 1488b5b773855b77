/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package airwave is a small client for the Aruba AirWave management server.
// It logs in with form credentials, downloads the access point inventory and
// looks up client associations.
package airwave

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/carverauto/airwave/pkg/logger"
	"github.com/carverauto/airwave/pkg/models"
)

const (
	defaultTimeout = 30 * time.Second
	loginPath      = "/LOGIN"
	apListPath     = "/ap_list.xml"
	clientPath     = "/client_detail.xml"
	maxErrorBody   = 512
)

// Client talks to a single AirWave server.
type Client struct {
	endpoint   string
	username   string
	password   string
	httpClient HTTPClient
	transport  *http.Transport
	session    *sessionTransport
	middleware []func(HTTPClient) HTTPClient
	logger     logger.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default cookie-jar backed HTTP client.
func WithHTTPClient(hc HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithHTTPMiddleware wraps the HTTP client once it has been built, for
// instrumentation.
func WithHTTPMiddleware(wrap func(HTTPClient) HTTPClient) ClientOption {
	return func(c *Client) {
		c.middleware = append(c.middleware, wrap)
	}
}

// NewClient creates a client for cfg. The endpoint gets an https:// scheme
// when none is given.
func NewClient(cfg *models.AirwaveConfig, log logger.Logger, opts ...ClientOption) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errMissingEndpoint
	}

	if log == nil {
		log = logger.NewNop()
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint: endpoint,
		username: cfg.Username,
		password: cfg.Password,
		logger:   log.WithComponent("airwave"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}

		timeout := time.Duration(cfg.Timeout)
		if timeout <= 0 {
			timeout = defaultTimeout
		}

		//nolint:gosec // AirWave appliances commonly ship self-signed certificates
		c.transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify,
			},
		}

		c.session = newSessionTransport(c.transport)

		c.httpClient = &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: c.session,
		}
	}

	for _, wrap := range c.middleware {
		c.httpClient = wrap(c.httpClient)
	}

	return c, nil
}

func normalizeEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid airwave endpoint %q: %w", raw, err)
	}

	if u.Host == "" {
		return "", fmt.Errorf("invalid airwave endpoint %q: %w", raw, errMissingEndpoint)
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Endpoint returns the normalized base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Login authenticates the session. The session cookie is kept by the client,
// including AirWave's colon-named AMPAuth cookie.
func (c *Client) Login(ctx context.Context) error {
	if c.session != nil {
		c.session.reset()
	}

	form := url.Values{}
	form.Set("destination", "/")
	form.Set("credential_0", c.username)
	form.Set("credential_1", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+loginPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	defer c.closeResponse(resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug().Str("endpoint", c.endpoint).Str("username", c.username).Msg("Logged in to AirWave")

	return nil
}

// FetchInventory downloads ap_list.xml and returns its raw ap records.
func (c *Client) FetchInventory(ctx context.Context) ([]map[string]interface{}, error) {
	body, err := c.get(ctx, apListPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ap list: %w", err)
	}

	records, err := ParseAPList(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info().Int("records", len(records)).Msg("Fetched AirWave inventory")

	return records, nil
}

// ClientAssociation looks up where a wireless client is associated.
func (c *Client) ClientAssociation(ctx context.Context, mac string) (*ClientAssociation, error) {
	mac = strings.ToUpper(strings.TrimSpace(mac))

	body, err := c.get(ctx, clientPath, url.Values{"mac": []string{mac}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch client %s: %w", mac, err)
	}

	assoc, err := parseClientDetail(body)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", mac, err)
	}

	assoc.MAC = mac

	if assoc.APID == "" {
		return assoc, nil
	}

	body, err = c.get(ctx, apListPath, url.Values{"id": []string{assoc.APID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ap %s: %w", assoc.APID, err)
	}

	aps, err := ParseAPList(body)
	if err != nil {
		return nil, err
	}

	if len(aps) > 0 {
		applyAPDetail(assoc, aps[0])
	}

	return assoc, nil
}

// Close releases idle connections held by the default transport.
func (c *Client) Close() {
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer c.closeResponse(resp)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, fmt.Errorf("%w: %d, response: %s", ErrUnexpectedStatusCode,
			resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) closeResponse(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close response body")
	}
}
