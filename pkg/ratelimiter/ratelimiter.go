package ratelimiter

// RateLimiter gates requests on the API surface. Allow reports whether the
// caller may proceed; a false return means the request should be rejected
// with a throttling response.
type RateLimiter interface {
	Allow() bool
}
