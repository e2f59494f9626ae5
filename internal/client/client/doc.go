// Package client contains the transport layer of the gophdisk client.
//
// # Overview
//
// The package provides:
//  1. The Client interface describing the storage service's REST API:
//     login, multipart upload, download job listing, share access and
//     owned-file operations.
//  2. A concrete HTTP implementation (see HTTPClient) that injects the
//     session's bearer token and maps response statuses to sentinel errors.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations)
//     that open the SQLite database and apply the embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError, which unwraps to one of
// ErrUnauthorized, ErrNotFound, ErrRejected or ErrServer. Transport failures
// wrap ErrUnavailable. Match with errors.Is.
//
// HTTPClient is safe for concurrent use. Every call honors its context.
package client
