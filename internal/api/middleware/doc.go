// Package middleware provides HTTP middleware for the gateway's API.
//
// The stack is intentionally small: CORS for browser clients plus the
// recovery and request-metrics middleware wired in by the server. The
// gateway does not rate limit its own clients; outbound pacing toward
// the upstream assistant lives in the assistant client instead.
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
package middleware
