package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStartSpanNewTrace(t *testing.T) {
	tracer := New("test", zap.NewNop())

	span, ctx := tracer.StartSpan(context.Background(), "op")

	assert.NotEmpty(t, span.TraceID)
	assert.NotEmpty(t, span.SpanID)
	assert.Empty(t, span.ParentID)
	assert.Equal(t, span.TraceID, GetTraceID(ctx))
	assert.Equal(t, span.SpanID, GetSpanID(ctx))
}

func TestStartSpanChildInheritsTrace(t *testing.T) {
	tracer := New("test", zap.NewNop())

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, _ := tracer.StartSpan(ctx, "child")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
}

func TestSpanFinishAndError(t *testing.T) {
	tracer := New("test", zap.NewNop())

	span, _ := tracer.StartSpan(context.Background(), "op")
	span.SetTag("key", "value")
	span.SetError(assert.AnError)
	span.Finish()

	assert.Equal(t, "value", span.Tags["key"])
	assert.Equal(t, 500, span.StatusCode)
	assert.False(t, span.EndTime.IsZero())
	assert.GreaterOrEqual(t, span.Duration, time.Duration(0))
}

func TestHTTPMiddlewareSetsTraceHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer := New("test", zap.NewNop())

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Span-ID"))
}

func TestHTTPMiddlewareJoinsInboundTrace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer := New("test", zap.NewNop())

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Trace-ID", "req_inbound_trace")
	router.ServeHTTP(w, req)

	assert.Equal(t, "req_inbound_trace", w.Header().Get("X-Trace-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Span-ID"))
}
