// Package client drives the generation lifecycle against a running gateway:
// submit a prompt, poll the operation until it settles, hand back the proxied
// video URL. It talks to the gateway's HTTP surface, never to upstream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"vidgate/internal/domain"
	"vidgate/internal/providers/veo"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultMaxPolls     = 60

	// per run: one submitting update, one polling update per attempt, one
	// terminal update. The buffer holds a full run so a consumer that drains
	// never misses an update.
	updateBuffer = defaultMaxPolls + 4

	maxEnvelopeBody = 1 << 20
)

// Options configures a gateway client. The zero value of every field has a
// usable default except BaseURL, which is required.
type Options struct {
	BaseURL         string
	HTTPClient      *http.Client
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Request is one generation order.
type Request struct {
	Prompt      string
	AspectRatio string
	APIKey      string
}

// Result is the terminal outcome of a successful run. VideoURL points at the
// gateway's streaming endpoint, ready to hand to a player or downloader.
type Result struct {
	OperationName string
	VideoURL      string
}

// Client polls a vidgate gateway on behalf of a caller. It is safe for
// concurrent use; Submit serializes runs internally.
type Client struct {
	httpClient *http.Client
	baseURL    string
	interval   time.Duration
	maxPolls   int

	mu      sync.Mutex
	updates chan Update
	cancel  context.CancelFunc
	run     uint64
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxPolls := opts.MaxPollAttempts
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		interval:   interval,
		maxPolls:   maxPolls,
	}
}

// Generate runs one full submit and poll cycle, blocking until the video is
// ready, the run fails, or ctx is done. An empty prompt fails locally before
// any request is sent.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	return c.generate(ctx, req, nil)
}

// Submit starts a run in the background and reports progress on Updates.
// A second Submit supersedes the first: the older run's context is canceled
// and its remaining updates are dropped, so the channel only ever narrates
// the newest submission.
func (c *Client) Submit(req Request) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.run++
	run := c.run
	c.mu.Unlock()

	go func() {
		defer cancel()
		res, err := c.generate(ctx, req, func(u Update) { c.send(run, u) })
		if err != nil {
			c.send(run, Update{State: StateFailed, Err: err})
			return
		}
		c.send(run, Update{State: StateReady, Result: res})
	}()
}

// Updates returns the progress channel shared by all background runs.
func (c *Client) Updates() <-chan Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.updates == nil {
		c.updates = make(chan Update, updateBuffer)
	}
	return c.updates
}

// Close cancels any in-flight background run.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Client) send(run uint64, u Update) {
	c.mu.Lock()
	stale := run != c.run
	ch := c.updates
	c.mu.Unlock()
	if stale || ch == nil {
		return
	}
	select {
	case ch <- u:
	default:
		// consumer stopped draining; progress is best effort
	}
}

func (c *Client) generate(ctx context.Context, req Request, report func(Update)) (*Result, error) {
	emit := func(u Update) {
		if report != nil {
			report(u)
		}
	}

	prompt, err := domain.NormalizePrompt(req.Prompt)
	if err != nil {
		return nil, err
	}
	aspect, err := domain.ParseAspectRatio(req.AspectRatio)
	if err != nil {
		return nil, err
	}

	emit(Update{State: StateSubmitting})
	sub, err := c.submit(ctx, prompt, string(aspect), req.APIKey)
	if err != nil {
		return nil, err
	}
	if sub.VideoURL != "" {
		return &Result{VideoURL: c.absoluteURL(sub.VideoURL)}, nil
	}
	if sub.OperationName == "" {
		return nil, domain.Malformed("generate response carried neither a video nor an operation", nil)
	}

	for attempt := 1; ; attempt++ {
		op, err := c.fetchOperation(ctx, sub.OperationName, req.APIKey)
		if err != nil {
			return nil, err
		}
		uri, done, err := op.Terminal()
		if err != nil {
			return nil, err
		}
		if done {
			return &Result{
				OperationName: sub.OperationName,
				VideoURL:      c.videoURL(uri),
			}, nil
		}
		if attempt >= c.maxPolls {
			return nil, domain.Timeout(fmt.Sprintf("video generation still pending after %d polls", c.maxPolls))
		}
		emit(Update{State: StatePolling, Attempt: attempt})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.interval):
		}
	}
}

type submitResponse struct {
	Success       bool   `json:"success"`
	OperationName string `json:"operationName"`
	VideoURL      string `json:"videoUrl"`
}

func (c *Client) submit(ctx context.Context, prompt, aspect, apiKey string) (*submitResponse, error) {
	payload := map[string]string{
		"prompt":       prompt,
		"aspect_ratio": aspect,
	}
	if apiKey != "" {
		payload["api_key"] = apiKey
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var sub submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, domain.Malformed("generate response is not valid JSON", err)
	}
	if !sub.Success {
		return nil, domain.Malformed("generate response reported failure without an error envelope", nil)
	}
	return &sub, nil
}

func (c *Client) fetchOperation(ctx context.Context, name, apiKey string) (*veo.Operation, error) {
	target := c.baseURL + "/api/operation?name=" + url.QueryEscape(name)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build operation request: %w", err)
	}
	if apiKey != "" {
		httpReq.Header.Set("X-Goog-Api-Key", apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var op veo.Operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, domain.Malformed("operation response is not valid JSON", err)
	}
	return &op, nil
}

// videoURL builds the gateway streaming URL for an upstream video URI.
func (c *Client) videoURL(uri string) string {
	return c.baseURL + "/api/video?uri=" + url.QueryEscape(uri)
}

// absoluteURL resolves a gateway-relative path like /api/video?uri=...
// against the configured base.
func (c *Client) absoluteURL(u string) string {
	if strings.HasPrefix(u, "/") {
		return c.baseURL + u
	}
	return u
}

// decodeError rebuilds a taxonomy error from a gateway error envelope so
// callers see the same kinds on both sides of the wire.
func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBody))
	if err != nil {
		return domain.Upstream(resp.StatusCode, "")
	}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Code == "" {
		return domain.Upstream(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return &domain.Error{
		Kind:    domain.KindFromCode(env.Error.Code),
		Status:  resp.StatusCode,
		Message: env.Error.Message,
	}
}
