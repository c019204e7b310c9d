package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/GoPolymarket/calllog/internal/pkg/traceid"
	"github.com/GoPolymarket/calllog/internal/service"
	"github.com/gin-gonic/gin"
)

// ContextTraceID gin context key holding the request's correlation id
const ContextTraceID = "trace_id"

// TraceID gives every request its own trace slot. An inbound TRACE_ID header
// is kept as is, otherwise a new id is generated. The id is echoed on the
// response and cleared once the request is done, panics included.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		slot := traceid.NewSlot()
		defer slot.Clear()

		id := slot.Ensure(c.GetHeader(traceid.Key))
		c.Header(traceid.Key, id)
		c.Set(ContextTraceID, id)

		ctx := traceid.WithSlot(c.Request.Context(), slot)
		ctx = service.WithRequest(ctx, GinRequest{c: c})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GinRequest exposes a gin request to the logging pipeline.
type GinRequest struct {
	c *gin.Context
}

func (r GinRequest) Method() string            { return r.c.Request.Method }
func (r GinRequest) URL() string               { return requestURL(r.c.Request) }
func (r GinRequest) URI() string               { return r.c.Request.URL.Path }
func (r GinRequest) ClientIP() string          { return r.c.ClientIP() }
func (r GinRequest) Header(name string) string { return r.c.GetHeader(name) }

// HTTPRequest exposes a plain net/http request. The client address is taken
// from proxy headers first, then from RemoteAddr.
type HTTPRequest struct {
	R *http.Request
}

func (r HTTPRequest) Method() string            { return r.R.Method }
func (r HTTPRequest) URL() string               { return requestURL(r.R) }
func (r HTTPRequest) URI() string               { return r.R.URL.Path }
func (r HTTPRequest) ClientIP() string          { return ClientIP(r.R) }
func (r HTTPRequest) Header(name string) string { return r.R.Header.Get(name) }

var proxyHeaders = []string{"X-Forwarded-For", "Proxy-Client-IP", "WL-Proxy-Client-IP", "X-Real-IP"}

// ClientIP resolves the caller address through the usual proxy headers.
// Empty and "unknown" values are skipped; for a comma list the first hop wins.
func ClientIP(r *http.Request) string {
	for _, h := range proxyHeaders {
		if ip := firstHop(r.Header.Get(h)); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func firstHop(raw string) string {
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "unknown") {
			continue
		}
		return part
	}
	return ""
}

// requestURL is scheme://host/path, without the query string.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}
