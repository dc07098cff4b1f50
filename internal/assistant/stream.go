package assistant

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/isooko/gateway/internal/infrastructure/monitoring"
)

// Stream event names emitted by the assistant service.
const (
	eventMessageDelta      = "thread.message.delta"
	eventRunCompleted      = "thread.run.completed"
	eventRunFailed         = "thread.run.failed"
	eventRunCancelled      = "thread.run.cancelled"
	eventRunExpired        = "thread.run.expired"
	eventRunIncomplete     = "thread.run.incomplete"
	eventRunRequiresAction = "thread.run.requires_action"
	eventDone              = "done"
)

// StreamMessage runs one streaming conversation turn. The service creates
// a thread seeded with the user message, runs the assistant over it, and
// emits text fragments which are passed to fn in arrival order. A non-nil
// error from fn aborts the stream and is returned as-is. As with Complete,
// the turn's thread is deleted exactly once on every path out.
func (c *Client) StreamMessage(ctx context.Context, message string, fn func(fragment string) error) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	body := createThreadAndRunRequest{
		AssistantID: c.assistantID,
		Thread: &threadPayload{
			Messages: []createMessageRequest{{Role: RoleUser, Content: message}},
		},
		Stream: true,
	}
	req.SetBody(body).
		SetHeader("Accept", "text/event-stream").
		SetDoNotParseResponse(true)

	timer := monitoring.NewTimer(c.metrics, "stream_run")

	var resp *resty.Response
	var clientErr error
	err = c.breaker.Do(func() error {
		var execErr error
		resp, execErr = req.Post("/threads/runs")
		if execErr != nil {
			return fmt.Errorf("stream_run: %w", execErr)
		}
		if resp.IsError() {
			apiErr := c.streamError(resp)
			if resp.StatusCode() >= 500 {
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

	raw := resp.RawBody()
	defer raw.Close()

	var threadID string
	defer func() {
		if threadID == "" {
			return
		}
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if delErr := c.DeleteThread(cleanupCtx, threadID); delErr != nil {
			c.logger.Warn("thread cleanup failed",
				zap.String("thread_id", threadID),
				zap.Error(delErr))
		}
	}()

	if err := c.consumeStream(ctx, raw, &threadID, fn); err != nil {
		timer.Stop("error")
		return err
	}
	timer.Stop("success")
	return nil
}

// streamError builds a typed error from a non-2xx streaming response. The
// body is read manually because response parsing is disabled for streams.
func (c *Client) streamError(resp *resty.Response) error {
	raw := resp.RawBody()
	defer raw.Close()

	apiErr := &APIError{StatusCode: resp.StatusCode()}
	data, err := io.ReadAll(io.LimitReader(raw, 1<<20))
	if err == nil && len(data) > 0 {
		var env apiErrorEnvelope
		if sonic.Unmarshal(data, &env) == nil {
			apiErr.Message = env.Error.Message
			apiErr.Type = env.Error.Type
			apiErr.Code = env.Error.Code
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status()
	}
	return apiErr
}

// consumeStream reads server-sent events until the run reaches a terminal
// state or the stream ends. threadID is filled in from the first run event
// so the caller can release the thread afterwards.
func (c *Client) consumeStream(ctx context.Context, r io.Reader, threadID *string, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var event, data string
	var completed, done bool
	var failure error

	handle := func() error {
		if data == "" {
			event, data = "", ""
			return nil
		}
		payloadEvent, payload := event, data
		event, data = "", ""

		switch {
		case payloadEvent == eventDone:
			done = true
		case payloadEvent == eventMessageDelta:
			var delta MessageDelta
			if err := sonic.Unmarshal([]byte(payload), &delta); err != nil {
				return fmt.Errorf("decode message delta: %w", err)
			}
			for _, part := range delta.Delta.Content {
				if part.Type == "text" && part.Text != nil && part.Text.Value != "" {
					if err := fn(part.Text.Value); err != nil {
						return err
					}
				}
			}
		case strings.HasPrefix(payloadEvent, "thread.run"):
			var run Run
			if err := sonic.Unmarshal([]byte(payload), &run); err != nil {
				return fmt.Errorf("decode run event: %w", err)
			}
			if *threadID == "" && run.ThreadID != "" {
				*threadID = run.ThreadID
				if c.metrics != nil {
					c.metrics.IncThreadsCreated()
				}
				c.logger.Debug("stream thread created",
					zap.String("thread_id", run.ThreadID),
					zap.String("run_id", run.ID))
			}
			switch payloadEvent {
			case eventRunCompleted:
				completed = true
			case eventRunFailed, eventRunCancelled, eventRunExpired,
				eventRunIncomplete, eventRunRequiresAction:
				status := run.Status
				if status == "" {
					status = strings.TrimPrefix(payloadEvent, "thread.run.")
				}
				failure = &RunFailedError{Status: status, LastError: run.LastError}
			}
		}
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := handle(); err != nil {
				return err
			}
			if failure != nil {
				return failure
			}
			if done {
				if completed {
					return nil
				}
				return ErrTruncatedStream
			}
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			chunk := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data != "" {
				data += "\n"
			}
			data += chunk
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("stream aborted: %w", ctx.Err())
		}
		return fmt.Errorf("read stream: %w", err)
	}

	// Flush a trailing event that arrived without a closing blank line.
	if err := handle(); err != nil {
		return err
	}
	if failure != nil {
		return failure
	}
	if !completed {
		return ErrTruncatedStream
	}
	return nil
}
