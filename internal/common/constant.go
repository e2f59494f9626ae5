// Package common contains shared constants and helpers used by the client
// and the development backend.
package common

const (
	// AuthorizationHeaderName carries the session token on authenticated calls.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token inside the Authorization header.
	BearerPrefix = "Bearer "

	// Ed2kScheme is the mandatory prefix of an ed2k link.
	Ed2kScheme = "ed2k://"
)
