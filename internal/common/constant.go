// Package common contains shared constants, sentinel errors and small
// helpers used across authkeeper components.
package common

// Metadata keys understood by the gRPC transport. Keys are lower-case as
// required by gRPC metadata.
const (
	// AuthorizationHeaderName carries "Bearer <access token>".
	AuthorizationHeaderName = "authorization"

	// AccessTokenHeaderName is the legacy key carrying a bare access token.
	// Login and Refresh also set it on the response header.
	AccessTokenHeaderName = "access_token"

	// RefreshTokenHeaderName carries the refresh token in both directions.
	RefreshTokenHeaderName = "refresh_token"

	// RequestIDHeaderName is echoed back on every response.
	RequestIDHeaderName = "x-request-id"
)

// TokenTypeBearer is reported in every token response.
const TokenTypeBearer = "bearer"
