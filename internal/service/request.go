package service

import "context"

// Request is the slice of the inbound HTTP request the logging pipeline reads.
type Request interface {
	Method() string
	URL() string
	URI() string
	ClientIP() string
	Header(name string) string
}

type requestKey struct{}

// WithRequest exposes req to code running later in the same request.
func WithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// RequestFrom returns the request stored by WithRequest, or nil.
func RequestFrom(ctx context.Context) Request {
	if ctx == nil {
		return nil
	}
	req, _ := ctx.Value(requestKey{}).(Request)
	return req
}
