package veo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vidgate/internal/domain"
)

const (
	// DefaultBaseURL is the Gemini API surface that hosts the Veo models.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the Veo generation the gateway targets.
	DefaultModel = "veo-3.0-generate-001"

	defaultTimeout       = 60 * time.Second
	defaultStreamTimeout = 120 * time.Second

	// error bodies beyond this are noise, not messages
	maxErrorBody = 64 * 1024
)

// Options configures the upstream client.
type Options struct {
	BaseURL       string
	Model         string
	APIKey        string
	HTTPClient    *http.Client
	Timeout       time.Duration
	StreamTimeout time.Duration
}

// Client talks to the Veo REST surface: starting generations, polling their
// operations and fetching finished videos. Video fetches get their own
// longer-lived HTTP client.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	baseURL      string
	model        string
	apiKey       string
}

func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	streamTimeout := opts.StreamTimeout
	if streamTimeout <= 0 {
		streamTimeout = defaultStreamTimeout
	}
	client := opts.HTTPClient
	streamClient := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
		streamClient = &http.Client{Timeout: streamTimeout}
	}
	return &Client{
		httpClient:   client,
		streamClient: streamClient,
		baseURL:      base,
		model:        model,
		apiKey:       strings.TrimSpace(opts.APIKey),
	}
}

// GenerationParams carries one generation request. APIKey overrides the
// client-wide credential when set.
type GenerationParams struct {
	Prompt      string
	AspectRatio string
	APIKey      string
}

type instancePayload struct {
	Prompt string `json:"prompt"`
}

type parametersPayload struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type predictPayload struct {
	Instances  []instancePayload `json:"instances"`
	Parameters parametersPayload `json:"parameters"`
}

// StartGeneration submits a prompt and returns the upstream operation name
// to poll.
func (c *Client) StartGeneration(ctx context.Context, p GenerationParams) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", c.baseURL, c.model)
	resp, err := c.postPredict(ctx, endpoint, p)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", c.statusError(resp)
	}
	var op Operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return "", domain.Malformed("decode start response", err)
	}
	if strings.TrimSpace(op.Name) == "" {
		return "", domain.Malformed("start response missing operation name", nil)
	}
	return op.Name, nil
}

// Predict runs the synchronous variant and returns the video URI directly.
func (c *Client) Predict(ctx context.Context, p GenerationParams) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:predict", c.baseURL, c.model)
	resp, err := c.postPredict(ctx, endpoint, p)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", c.statusError(resp)
	}
	var out struct {
		Predictions []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.Malformed("decode predict response", err)
	}
	if len(out.Predictions) == 0 || strings.TrimSpace(out.Predictions[0].Video.URI) == "" {
		return "", domain.Malformed("predict response missing video uri", nil)
	}
	return out.Predictions[0].Video.URI, nil
}

func (c *Client) postPredict(ctx context.Context, endpoint string, p GenerationParams) (*http.Response, error) {
	key := c.credential(p.APIKey)
	if key == "" {
		return nil, domain.Auth(http.StatusUnauthorized, "API key is missing")
	}
	payload := predictPayload{
		Instances:  []instancePayload{{Prompt: p.Prompt}},
		Parameters: parametersPayload{AspectRatio: p.AspectRatio},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal generation payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	return resp, nil
}

// GetOperation polls one operation by its upstream name.
func (c *Client) GetOperation(ctx context.Context, name, apiKey string) (*Operation, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return nil, domain.Validation("operation name is required")
	}
	key := c.credential(apiKey)
	if key == "" {
		return nil, domain.Auth(http.StatusUnauthorized, "API key is missing")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+name, nil)
	if err != nil {
		return nil, fmt.Errorf("build operation request: %w", err)
	}
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, c.statusError(resp)
	}
	var op Operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, domain.Malformed("decode operation response", err)
	}
	return &op, nil
}

// VideoRequest addresses one finished video on the upstream CDN.
type VideoRequest struct {
	URI    string
	APIKey string
	Range  string
}

// VideoStream is an open upstream video response. The caller owns Body.
type VideoStream struct {
	Status        int
	ContentType   string
	ContentLength string
	ContentRange  string
	AcceptRanges  string
	Body          io.ReadCloser
}

// OpenVideo fetches the video behind a URI the upstream handed out. The
// body is returned unread so callers can stream it through.
func (c *Client) OpenVideo(ctx context.Context, vr VideoRequest) (*VideoStream, error) {
	key := c.credential(vr.APIKey)
	if key == "" {
		return nil, domain.Auth(http.StatusUnauthorized, "API key is missing")
	}
	parsed, err := url.Parse(strings.TrimSpace(vr.URI))
	if err != nil || !parsed.IsAbs() || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, domain.Validation("uri must be an absolute http(s) URL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build video request: %w", err)
	}
	req.Header.Set("x-goog-api-key", key)
	if vr.Range != "" {
		req.Header.Set("Range", vr.Range)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		defer resp.Body.Close()
		return nil, c.statusError(resp)
	}
	return &VideoStream{
		Status:        resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.Header.Get("Content-Length"),
		ContentRange:  resp.Header.Get("Content-Range"),
		AcceptRanges:  resp.Header.Get("Accept-Ranges"),
		Body:          resp.Body,
	}, nil
}

func (c *Client) credential(override string) string {
	if k := strings.TrimSpace(override); k != "" {
		return k
	}
	return c.apiKey
}

// statusError turns an upstream non-2xx reply into a taxonomy error,
// relaying the upstream message verbatim when one is present.
func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := parseUpstreamMessage(body)
	status, kind := mapStatus(resp.StatusCode)
	if kind == domain.KindAuth {
		return domain.Auth(status, msg)
	}
	return domain.Upstream(status, msg)
}

// mapStatus maps an upstream HTTP status to the gateway's status and kind.
func mapStatus(code int) (int, domain.Kind) {
	switch code {
	case http.StatusBadRequest:
		return http.StatusBadRequest, domain.KindUpstream
	case http.StatusUnauthorized:
		return http.StatusUnauthorized, domain.KindAuth
	case http.StatusForbidden:
		return http.StatusForbidden, domain.KindAuth
	case http.StatusNotFound:
		return http.StatusNotFound, domain.KindUpstream
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, domain.KindUpstream
	}
	return http.StatusBadGateway, domain.KindUpstream
}

func parseUpstreamMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Error.Message)
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Timeout("upstream request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.Timeout("upstream request timed out")
	}
	return domain.Network(err)
}
