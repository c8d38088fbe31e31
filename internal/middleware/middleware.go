// Package middleware holds the global and route-specific echo middleware:
// request ids, request logging, CORS, New Relic tracing, rate limiting,
// panic recovery and the global error handler.
package middleware
