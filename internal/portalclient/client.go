package portalclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/record"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for Ping
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second

	// maxBody bounds how much of a response is read
	maxBody = 64 << 10
)

// internalError is the body a portal serves when it cannot read a page or
// save the record.
var internalError = []byte("Internal server error")

// Client talks to a running portal over HTTP
type Client struct {
	// BaseURL is the base URL for the portal (e.g., "http://192.168.1.1")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for Ping
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool
}

// NewClient creates a new portal client
// ip: Portal IP address (e.g., "192.168.1.1")
// port: Portal HTTP port (typically 80)
func NewClient(ip string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", ip, port))
}

// NewClientWithURL creates a new client with a full base URL
// baseURL: Full base URL (e.g., "http://192.168.1.1:80")
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping fetches the portal's start page, retrying network failures.
// It reports whether the portal is in settings mode (it serves the
// configuration form) or not.
func (c *Client) Ping() (settingsMode bool, err error) {
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(currentDelay)

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		var body []byte
		body, err = c.do(http.MethodGet, "/", nil)
		if err == nil {
			return bytes.Contains(body, []byte(`action="/connect"`)), nil
		}
		if !fault.IsRetryable(err) {
			return false, err
		}
	}

	return false, err
}

// Connect submits station credentials. The portal saves them and restarts
// into station mode.
func (c *Client) Connect(ssid, pass string) error {
	if errs := ValidateCredentials(record.ModeStation, ssid, pass); len(errs) > 0 {
		return fault.NewValidationError(fault.FormatErrors(errs))
	}
	return c.submit("/connect", ssid, pass)
}

// Hotspot submits access point credentials. The portal saves them and
// restarts into hotspot mode.
func (c *Client) Hotspot(ssid, pass string) error {
	if errs := ValidateCredentials(record.ModeHotspot, ssid, pass); len(errs) > 0 {
		return fault.NewValidationError(fault.FormatErrors(errs))
	}
	return c.submit("/ap", ssid, pass)
}

// Reconfigure sends the portal back to settings mode.
func (c *Client) Reconfigure() error {
	_, err := c.do(http.MethodGet, "/reconf", nil)
	return err
}

// Apply sends the request matching mode. Settings mode ignores the
// credentials.
func (c *Client) Apply(mode record.Mode, ssid, pass string) error {
	switch mode {
	case record.ModeStation:
		return c.Connect(ssid, pass)
	case record.ModeHotspot:
		return c.Hotspot(ssid, pass)
	case record.ModeSettings:
		return c.Reconfigure()
	default:
		return fault.NewValidationError(fmt.Sprintf("unknown mode %v", mode))
	}
}

// submit posts the credential form once; the portal restarts afterwards
// so a retry would reach a different network.
func (c *Client) submit(path, ssid, pass string) error {
	form := url.Values{}
	form.Set("ssid", ssid)
	form.Set("pass", pass)

	_, err := c.do(http.MethodPost, path, strings.NewReader(form.Encode()))
	return err
}

func (c *Client) do(method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return nil, fault.NewNetworkError(fmt.Sprintf("failed to create %s request", method), err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fault.NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fault.NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &fault.Error{
			Kind:    fault.KindNetwork,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		}
	}
	if bytes.Equal(bytes.TrimSpace(data), internalError) {
		return nil, &fault.Error{
			Kind:    fault.KindStorageWrite,
			Message: fmt.Sprintf("portal reported an internal error for %s %s", method, path),
		}
	}

	return data, nil
}
