package obs

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// Middleware carries the gin middleware that tags and logs requests.
type Middleware struct {
	Logger *slog.Logger
	// Quiet lists routes logged at debug level, such as probes.
	Quiet []string
}

type requestIDKey struct{}

// RequestID keeps the caller's X-Request-ID or mints one, and exposes it on
// the request context, the gin context and the response.
func (m Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey{}, id))
		c.Header(requestIDHeader, id)
		c.Set("request_id", id)
		c.Next()
	}
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggerMiddleware writes one line per request. 5xx log at error, 4xx at
// warn.
func (m Middleware) LoggerMiddleware() gin.HandlerFunc {
	quiet := make(map[string]bool, len(m.Quiet))
	for _, p := range m.Quiet {
		quiet[p] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m.Logger == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case quiet[route]:
			level = slog.LevelDebug
		}
		m.Logger.Log(c.Request.Context(), level, "http",
			"method", c.Request.Method,
			"path", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"),
		)
	}
}
