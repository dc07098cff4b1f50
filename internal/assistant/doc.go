/*
Package assistant implements the client for the remote assistant service.

# Overview

Every conversation turn is executed against a fresh server-side thread:
the gateway creates a thread, appends the user message, runs the
configured assistant over it, reads back the reply, and deletes the
thread. Continuity across turns is the responsibility of the assistant's
own instructions, not of retained threads, so thread deletion is attempted
exactly once on every path out of a turn.

# Turn Styles

Complete executes a blocking turn and returns the full reply once the run
reaches a terminal state; it backs the HTTP chat endpoint. StreamMessage
executes the same turn with streaming enabled and hands text fragments to
a callback as they arrive; it backs the WebSocket relay.

# Resilience

All calls go through a shared rate limiter and circuit breaker, and
transient failures are retried at the transport layer. Run polling and
per-call timeouts are configurable via Config.

# Usage

	client := assistant.New(assistant.Config{
		APIKey:      cfg.Upstream.APIKey,
		AssistantID: cfg.Upstream.AssistantID,
	}, logger, metrics)

	result, err := client.Complete(ctx, "hello")
	if err != nil {
		// inspect with errors.As for *APIError / *RunFailedError
	}
*/
package assistant
