// Package gallery provides the HTTP client for the image gallery server.
//
// # Overview
//
// The client covers every collaborator call the gallery core makes: list
// reloads, thumbnail prioritization and fetches, full-size asset preloads,
// edit records, bulk metadata extraction and the trash operations.
//
//   - client.go: Backend interface, Client, request plumbing
//   - types.go: wire types mirroring the server schema
//
// # Error Handling
//
// Every response with status >= 400 becomes an *APIError carrying the
// trimmed response body. Thumbnail failures surface that body verbatim as
// the inline error text, so no second request is needed to recover it.
//
// Bulk operations treat 207 Multi-Status as success with caveats: the
// decoded BatchResult lists the failed paths and Partial is set. A 207 in
// which nothing succeeded is reported as ErrAllFailed. Any other 2xx means
// every requested path succeeded.
//
// # Request Pacing
//
// Thumbnail fetches pass through a token bucket (golang.org/x/time/rate) so
// a fast scroll cannot flood the server. Every request carries a per-client
// X-Client-Session id and a fresh X-Request-ID.
package gallery
