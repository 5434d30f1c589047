package plugins

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/registry"
)

// ProbeOptions tunes the HTTP reachability probe
type ProbeOptions struct {
	Timeout  time.Duration
	RetryMax int
}

// HTTPProbe checks that a server answers a plain GET with a non-error status
type HTTPProbe struct {
	url      string
	serverID string
	userID   string
	client   *retryablehttp.Client
}

// NewHTTPProbeFactory returns a registry.ServerFactory building HTTPProbes
// that share one retrying client
func NewHTTPProbeFactory(opts ProbeOptions) registry.ServerFactory {
	client := newRetryClient(opts)
	return func(rawURL, serverID, actingUserID string) registry.ServerHandler {
		return &HTTPProbe{
			url:      rawURL,
			serverID: serverID,
			userID:   actingUserID,
			client:   client,
		}
	}
}

func newRetryClient(opts ProbeOptions) *retryablehttp.Client {
	httpClient := cleanhttp.DefaultPooledClient()
	if opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = httpClient
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.Logger = logger.NewLeveled("probe")
	// Exhausted retries return the last response instead of an error
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// IsAlive reports whether the server answered with a 2xx or 3xx status.
// Non HTTP schemes are never probed and report false.
func (p *HTTPProbe) IsAlive(ctx context.Context) bool {
	u, err := url.Parse(p.url)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		logger.WithFields(map[string]interface{}{
			"server_id": p.serverID,
			"url":       p.url,
		}).Debug("Skipping liveness probe for non HTTP server")
		return false
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"server_id": p.serverID,
			"user_id":   p.userID,
			"error":     err.Error(),
		}).Info("Liveness probe failed")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
