/*
Package monitoring provides Prometheus metrics collection for the gateway.

# Overview

This package tracks HTTP requests, WebSocket connections and messages,
relayed conversation turns, and upstream assistant API calls. Each
collector owns its registry so that several collectors can coexist in one
process.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record domain metrics
	metrics.IncWSConnections()
	metrics.RecordTurn("ok", duration)

	// Time upstream operations
	timer := monitoring.NewTimer(metrics, "create_thread")
	// ... perform call ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics from the collector's own registry:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
*/
package monitoring
