// Package remote is the client for the hosted registration store, a PostgREST
// endpoint exposing a single registrations table.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/gdg-garage/outing-registration-api/internal/metrics"
	"github.com/gdg-garage/outing-registration-api/internal/models"
)

var (
	ErrNotConfigured = errors.New("remote store not configured")
	ErrRemote        = errors.New("remote store request failed")
)

const (
	// A project URL still containing this marker was copied from the setup template.
	placeholderMarker = "your-project"
	// Real anon keys are JWTs; anything shorter is a placeholder.
	minKeyLength = 50

	maxResponseSize = 10 * 1024 * 1024
)

type Config struct {
	URL     string
	APIKey  string
	Table   string
	Timeout time.Duration
}

// Diagnostics lists what keeps the client from being usable.
type Diagnostics struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient sets the base client. The bearer transport is layered on top of it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	c.httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	c.httpClient.Timeout = base.Timeout
	c.log = c.log.With().Str("component", "remote").Logger()

	return c
}

func (c *Client) Diagnostics() Diagnostics {
	issues := []string{}

	rawURL := strings.TrimSpace(c.cfg.URL)
	u, err := url.Parse(rawURL)
	switch {
	case rawURL == "":
		issues = append(issues, "SUPABASE_URL is not set")
	case strings.Contains(rawURL, placeholderMarker):
		issues = append(issues, "SUPABASE_URL still points at the placeholder project")
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		issues = append(issues, "SUPABASE_URL is not an absolute http(s) URL")
	}

	if len(strings.TrimSpace(c.cfg.APIKey)) < minKeyLength {
		issues = append(issues, "SUPABASE_ANON_KEY is missing or too short to be a real key")
	}
	if strings.TrimSpace(c.cfg.Table) == "" {
		issues = append(issues, "SUPABASE_TABLE is not set")
	}

	return Diagnostics{Valid: len(issues) == 0, Issues: issues}
}

// IsConfigured is a pure check; it never touches the network.
func (c *Client) IsConfigured() bool {
	return c.Diagnostics().Valid
}

// FetchAll returns every stored registration, newest first. It never fails:
// an unconfigured client, a transport error, an error status or an unreadable
// payload all yield an empty result.
func (c *Client) FetchAll(ctx context.Context) []models.Registration {
	if !c.IsConfigured() {
		return nil
	}

	rows, err := c.fetchRows(ctx)
	if err != nil {
		metrics.RemoteRequests.WithLabelValues("fetch", "error").Inc()
		c.log.Error().Err(err).Msg("fetch registrations")
		return nil
	}
	metrics.RemoteRequests.WithLabelValues("fetch", "ok").Inc()

	regs := make([]models.Registration, 0, len(rows))
	for i, r := range rows {
		reg, err := r.registration()
		if err != nil {
			c.log.Warn().Err(err).Int("row", i).Msg("skipping unreadable row")
			continue
		}
		if !reg.Carpool.Valid() {
			c.log.Warn().Str("employee_id", reg.EmployeeID).Str("carpool", string(reg.Carpool)).Msg("unknown commute preference")
		}
		regs = append(regs, reg)
	}
	return regs
}

func (c *Client) fetchRows(ctx context.Context) ([]row, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "timestamp.desc")

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint()+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %w", ErrRemote, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	var rows []row
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: fetch: decode: %w", ErrRemote, err)
	}
	return rows, nil
}

// Save writes r, merging on the business key so a repeated submit updates the
// existing row. Failures are returned; there is no retry.
func (c *Client) Save(ctx context.Context, r models.Registration) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(newRow(r))
	if err != nil {
		return fmt.Errorf("save: encode: %w", err)
	}

	q := url.Values{}
	q.Set("on_conflict", "employee_id")
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint()+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RemoteRequests.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("%w: save: %w", ErrRemote, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		metrics.RemoteRequests.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("save: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	metrics.RemoteRequests.WithLabelValues("save", "ok").Inc()
	return nil
}

func (c *Client) endpoint() string {
	return strings.TrimSuffix(strings.TrimSpace(c.cfg.URL), "/") + "/rest/v1/" + url.PathEscape(c.cfg.Table)
}

// newRequest sets the headers every call carries. The bearer header is added by
// the oauth2 transport.
func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrRemote, err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// checkStatus turns a non-2xx response into an error carrying the PostgREST message.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var apiErr struct {
		Message string `json:"message"`
		Hint    string `json:"hint"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		msg = apiErr.Message
		if apiErr.Hint != "" {
			msg += " (" + apiErr.Hint + ")"
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", ErrRemote, resp.StatusCode, msg)
}
