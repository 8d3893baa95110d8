// Package common contains constants and tiny helpers shared by the client
// packages.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token in the Authorization header value.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName correlates a client call with server logs.
	RequestIDHeaderName = "X-Request-ID"
)
