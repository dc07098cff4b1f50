// Package server provides HTTP server setup and initialization for the
// gateway.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (recovery, tracing, metrics, CORS)
//   - Upstream assistant client construction
//   - Session registry and streaming relay wiring
//   - Prometheus exposition on /metrics
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Build the upstream client, registry, and relay
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal, closing live WebSocket sessions
//
// Example Usage:
//
//	cfg, err := config.Load()
//	srv, err := server.NewServer(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
