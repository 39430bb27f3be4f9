// Package api implements the HTTPS client for the MES telemetry endpoints.
// Requests authenticate with a "token <key>:<secret>" header; the server
// signals success strictly with HTTP 200.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
	"github.com/navneet-indusworks/indus-daq-firmware/internal/logger"
)

const (
	configurationMethod = "indusworks_mes.api.get_device_configuration"
	telemetryMethod     = "indusworks_mes.api.create_telemetry"

	defaultTimeout = 10 * time.Second
)

type Config struct {
	Site      string
	DeviceID  string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// Client talks to the telemetry server. The underlying http.Client is
// replaceable at runtime: after a reconnect the transport must be rebuilt so
// a half-completed TLS handshake cannot poison later requests.
type Client struct {
	cfg Config

	mu   sync.Mutex
	http *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Site == "" || cfg.DeviceID == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New(ErrInvalidClientConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:  cfg,
		http: newHTTPClient(cfg.Timeout),
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{},
	}
}

// Rebuild discards the HTTP client and its transport, dropping any pooled
// connections and cached TLS session state.
func (c *Client) Rebuild() {
	c.mu.Lock()
	old := c.http
	c.http = newHTTPClient(c.cfg.Timeout)
	c.mu.Unlock()

	if transport, ok := old.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	logger.Debug().Msg("HTTP transport rebuilt")
}

func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.http
}

// methodURL builds the endpoint URL. Site is normally a bare hostname and
// gets the https scheme; an explicit scheme is honored so tests can point the
// client at a local server.
func (c *Client) methodURL(method string, params url.Values) string {
	base := c.cfg.Site
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/api/v2/method/%s?%s", base, method, params.Encode())
}

func (c *Client) do(ctx context.Context, httpMethod, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, httpMethod, rawURL, http.NoBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "token "+c.cfg.APIKey+":"+c.cfg.APISecret)

	resp, err := c.client().Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	return resp.StatusCode, body, nil
}

// GetDeviceConfiguration fetches the remote configuration. Any failure here
// is fatal to the caller: the device cannot operate uncalibrated.
func (c *Client) GetDeviceConfiguration(ctx context.Context) (*DeviceConfiguration, error) {
	params := url.Values{}
	params.Set("device_id", c.cfg.DeviceID)

	status, body, err := c.do(ctx, http.MethodGet, c.methodURL(configurationMethod, params))
	if err != nil {
		return nil, errors.Wrap(ErrConfigurationFetch, err)
	}
	if status != http.StatusOK {
		return nil, errors.WithData(ErrUnexpectedStatus, status)
	}

	var envelope configurationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap(ErrConfigurationFetch, err)
	}
	if envelope.Data == nil {
		return nil, errors.New(ErrConfigurationEmpty)
	}

	return envelope.Data, nil
}

// CreateTelemetry submits one telemetry report. Non-200 statuses and
// transport errors are both reported as send failures; the caller restores
// the counts either way.
func (c *Client) CreateTelemetry(ctx context.Context, currentAmps float64, outputCount, rejectionCount uint64) error {
	params := url.Values{}
	params.Set("device_id", c.cfg.DeviceID)
	params.Set("current", strconv.FormatFloat(currentAmps, 'f', -1, 64))
	params.Set("output_signal_count", strconv.FormatUint(outputCount, 10))
	params.Set("rejection_signal_count", strconv.FormatUint(rejectionCount, 10))

	status, _, err := c.do(ctx, http.MethodPost, c.methodURL(telemetryMethod, params))
	if err != nil {
		return errors.Wrap(ErrTelemetrySend, err)
	}
	if status != http.StatusOK {
		return errors.WithData(ErrUnexpectedStatus, status)
	}

	return nil
}
