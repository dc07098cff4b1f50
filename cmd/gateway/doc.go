// Package main is the entry point for the Isooko gateway server.
//
// The gateway fronts a remote conversational assistant, exposing it to
// web clients over plain HTTP and streaming WebSocket.
//
// Architecture:
//
//	Browser / HTTP client → Gateway → Assistant service (REST + SSE)
//
// The server provides:
//   - REST API for single-shot chat, health, and assistant metadata
//   - WebSocket streaming with per-message framing
//   - Prometheus metrics on /metrics
//
// Configuration:
//   - Environment variables (12-factor), .env autoloaded when present
//   - CLI flags (override env vars)
//   - OPENAI_API_KEY and ASSISTANT_ID are required
//
// Usage:
//
//	# Production mode
//	./gateway -port 8000
//
//	# Development mode (colored logs)
//	./gateway -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
