package assistant

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/isooko/gateway/internal/infrastructure/logging"
	"github.com/isooko/gateway/internal/infrastructure/monitoring"
	"github.com/isooko/gateway/internal/infrastructure/resilience"
)

// cleanupTimeout bounds the best-effort thread deletion that runs after a
// turn, even when the turn's own context is already cancelled.
const cleanupTimeout = 10 * time.Second

// Config holds client settings. APIKey and AssistantID are mandatory;
// zero values elsewhere fall back to defaults.
type Config struct {
	APIKey      string
	AssistantID string
	BaseURL     string
	// Timeout bounds each individual REST call. Streaming turns are exempt
	// and bounded by the caller's context instead.
	Timeout      time.Duration
	MaxRetries   int
	PollInterval time.Duration
	RunTimeout   time.Duration
	// RequestsPerSecond throttles outbound calls. Zero means unlimited.
	RequestsPerSecond float64
}

// Client talks to the remote assistant service. It wraps resty with retry,
// rate limiting, and circuit breaker protection.
type Client struct {
	rest    *resty.Client
	breaker *resilience.Breaker
	limiter *rate.Limiter
	logger  *logging.Logger
	metrics *monitoring.Metrics

	assistantID  string
	callTimeout  time.Duration
	pollInterval time.Duration
	runTimeout   time.Duration
}

// New creates a production-ready assistant client. metrics may be nil.
func New(cfg Config, logger *logging.Logger, metrics *monitoring.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Minute
	}

	// Underlying retryable client handles transient network errors, 429s,
	// and 5xx responses.
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil // Disable logging

	restyClient := resty.NewWithClient(retryClient.StandardClient())
	restyClient.
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("OpenAI-Beta", "assistants=v2").
		SetHeader("User-Agent", "isooko-gateway/1.0")
	restyClient.JSONMarshal = sonic.Marshal
	restyClient.JSONUnmarshal = sonic.Unmarshal

	breaker := resilience.New("assistant", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	limiter := rate.NewLimiter(rate.Inf, 0) // Unlimited by default
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		rest:         restyClient,
		breaker:      breaker,
		limiter:      limiter,
		logger:       logger,
		metrics:      metrics,
		assistantID:  cfg.AssistantID,
		callTimeout:  cfg.Timeout,
		pollInterval: cfg.PollInterval,
		runTimeout:   cfg.RunTimeout,
	}
}

// AssistantID returns the configured assistant identifier.
func (c *Client) AssistantID() string {
	return c.assistantID
}

// request creates a new request after the breaker and rate limiter admit it.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrOpen
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	return c.rest.R().SetContext(ctx), nil
}

// call runs one REST request against the service, decoding a success
// response into out when it is non-nil. Transport failures and 5xx
// responses feed the circuit breaker; 4xx responses do not.
func (c *Client) call(ctx context.Context, op, method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	req.SetError(&apiErrorEnvelope{})

	timer := monitoring.NewTimer(c.metrics, op)

	var clientErr error
	err = c.breaker.Do(func() error {
		resp, execErr := req.Execute(method, path)
		if execErr != nil {
			return fmt.Errorf("%s: %w", op, execErr)
		}
		if resp.IsError() {
			apiErr := c.apiError(resp)
			if resp.StatusCode() >= http.StatusInternalServerError {
				return apiErr
			}
			clientErr = apiErr
		}
		return nil
	})
	if err == nil {
		err = clientErr
	}

	if err != nil {
		timer.Stop("error")
		return err
	}
	timer.Stop("success")
	return nil
}

// apiError builds a typed error from a non-2xx response.
func (c *Client) apiError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if env, ok := resp.Error().(*apiErrorEnvelope); ok && env != nil {
		apiErr.Message = env.Error.Message
		apiErr.Type = env.Error.Type
		apiErr.Code = env.Error.Code
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status()
	}
	return apiErr
}

// RetrieveAssistant fetches the configured assistant's metadata.
func (c *Client) RetrieveAssistant(ctx context.Context) (*Assistant, error) {
	var out Assistant
	path := fmt.Sprintf("/assistants/%s", c.assistantID)
	if err := c.call(ctx, "retrieve_assistant", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateThread creates an empty conversation thread.
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var out Thread
	if err := c.call(ctx, "create_thread", http.MethodPost, "/threads", struct{}{}, &out); err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.IncThreadsCreated()
	}
	c.logger.Debug("thread created", zap.String("thread_id", out.ID))
	return &out, nil
}

// DeleteThread removes a thread and everything in it.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	var out ThreadDeleted
	path := fmt.Sprintf("/threads/%s", threadID)
	if err := c.call(ctx, "delete_thread", http.MethodDelete, path, nil, &out); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.IncThreadsDeleted()
	}
	c.logger.Debug("thread deleted", zap.String("thread_id", threadID))
	return nil
}

// CreateMessage appends a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	var out Message
	path := fmt.Sprintf("/threads/%s/messages", threadID)
	body := createMessageRequest{Role: role, Content: content}
	if err := c.call(ctx, "create_message", http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRun starts the assistant over a thread.
func (c *Client) CreateRun(ctx context.Context, threadID string) (*Run, error) {
	var out Run
	path := fmt.Sprintf("/threads/%s/runs", threadID)
	body := createRunRequest{AssistantID: c.assistantID}
	if err := c.call(ctx, "create_run", http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetrieveRun fetches the current state of a run.
func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var out Run
	path := fmt.Sprintf("/threads/%s/runs/%s", threadID, runID)
	if err := c.call(ctx, "retrieve_run", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessages fetches a thread's messages, newest first.
func (c *Client) ListMessages(ctx context.Context, threadID string) (*MessageList, error) {
	var out MessageList
	path := fmt.Sprintf("/threads/%s/messages?order=desc", threadID)
	if err := c.call(ctx, "list_messages", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForRun polls a run until it reaches a terminal status. Polling stops
// when the caller's context is cancelled or the run timeout elapses.
func (c *Client) WaitForRun(ctx context.Context, threadID, runID string) (*Run, error) {
	ctx, cancel := context.WithTimeout(ctx, c.runTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		run, err := c.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return nil, err
		}
		if run.Terminal() {
			return run, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("run %s did not finish: %w", runID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Complete runs one full conversation turn: create a thread, append the
// user message, run the assistant to completion, and read back the reply.
// The thread is transient; deletion is attempted exactly once on every
// path out of this function.
func (c *Client) Complete(ctx context.Context, message string) (*TurnResult, error) {
	thread, err := c.CreateThread(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if delErr := c.DeleteThread(cleanupCtx, thread.ID); delErr != nil {
			c.logger.Warn("thread cleanup failed",
				zap.String("thread_id", thread.ID),
				zap.Error(delErr))
		}
	}()

	if _, err := c.CreateMessage(ctx, thread.ID, RoleUser, message); err != nil {
		return nil, err
	}

	run, err := c.CreateRun(ctx, thread.ID)
	if err != nil {
		return nil, err
	}

	run, err = c.WaitForRun(ctx, thread.ID, run.ID)
	if err != nil {
		return nil, err
	}
	if run.Status != RunStatusCompleted {
		return nil, &RunFailedError{Status: run.Status, LastError: run.LastError}
	}

	reply, err := c.latestAssistantReply(ctx, thread.ID)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		Reply:     reply,
		ThreadID:  thread.ID,
		RunID:     run.ID,
		RunStatus: run.Status,
	}, nil
}

// latestAssistantReply returns the text of the newest assistant message.
func (c *Client) latestAssistantReply(ctx context.Context, threadID string) (string, error) {
	list, err := c.ListMessages(ctx, threadID)
	if err != nil {
		return "", err
	}
	for i := range list.Data {
		msg := &list.Data[i]
		if msg.Role == RoleAssistant {
			if text := msg.Text(); text != "" {
				return text, nil
			}
		}
	}
	return "", ErrNoReply
}
