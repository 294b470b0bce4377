// Package httptransport provides an HTTP-based JSON-RPC client transport.
//
// Each request or batch is sent as a single HTTP POST request and the response
// is read from the body of the HTTP response. A Transport is configured using
// a Builder and is immutable once built.
package httptransport
