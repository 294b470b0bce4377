package rpcpost

import (
	"encoding/json"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// RequestIDGenerator produces the IDs used for JSON-RPC "call" requests.
//
// Implementations must be safe for concurrent use.
type RequestIDGenerator interface {
	// NextRequestID returns the JSON representation of a new request ID.
	NextRequestID() json.RawMessage
}

// SequentialRequestIDs is a RequestIDGenerator that produces increasing integer
// IDs, starting at 1.
type SequentialRequestIDs struct {
	prev uint32 // atomic
}

// NextRequestID returns the JSON representation of a new request ID.
func (g *SequentialRequestIDs) NextRequestID() json.RawMessage {
	id := atomic.AddUint32(&g.prev, 1)
	return json.RawMessage(strconv.FormatUint(uint64(id), 10))
}

// UUIDRequestIDs is a RequestIDGenerator that produces random (version 4)
// UUIDs encoded as JSON strings.
type UUIDRequestIDs struct{}

// NextRequestID returns the JSON representation of a new request ID.
func (UUIDRequestIDs) NextRequestID() json.RawMessage {
	return json.RawMessage(strconv.Quote(uuid.NewString()))
}
