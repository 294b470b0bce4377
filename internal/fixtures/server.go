package fixtures

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/dogmatiq/rpcpost"
	"github.com/dogmatiq/rpcpost/internal/jsonx"
)

// mediaType is the MIME media-type for JSON-RPC requests and responses when
// delivered over HTTP.
const mediaType = "application/json"

// Server is an HTTP server that plays the part of a JSON-RPC server in tests.
//
// It records every request it receives. By default it uses EchoHandler() to
// produce responses.
type Server struct {
	*httptest.Server

	m        sync.Mutex
	handler  http.Handler
	requests []RecordedRequest
}

// RecordedRequest is an HTTP request received by a Server.
type RecordedRequest struct {
	Method        string
	Header        http.Header
	ContentLength int64
	Close         bool
	Body          []byte
}

// NewServer starts a new server.
func NewServer() *Server {
	s := &Server{
		handler: EchoHandler(),
	}

	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))

	return s
}

// SetHandler replaces the handler used to produce responses.
func (s *Server) SetHandler(h http.Handler) {
	s.m.Lock()
	defer s.m.Unlock()

	s.handler = h
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.m.Lock()
	defer s.m.Unlock()

	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request received. It panics if no
// requests have been received.
func (s *Server) LastRequest() RecordedRequest {
	s.m.Lock()
	defer s.m.Unlock()

	if len(s.requests) == 0 {
		panic("no requests have been received")
	}

	return s.requests[len(s.requests)-1]
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.m.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method:        r.Method,
		Header:        r.Header.Clone(),
		ContentLength: r.ContentLength,
		Close:         r.Close,
		Body:          body,
	})
	h := s.handler
	s.m.Unlock()

	r.Body = io.NopCloser(bytes.NewReader(body))
	h.ServeHTTP(w, r)
}

// EchoHandler returns a handler that behaves as a JSON-RPC server in which
// every method returns its parameters as its result.
func EchoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, rpcpost.InvalidRequestCode, "JSON-RPC requests must use the POST method")
			return
		}

		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != mediaType {
			writeError(w, http.StatusUnsupportedMediaType, rpcpost.InvalidRequestCode, "JSON-RPC requests must use the application/json content type")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusInternalServerError, rpcpost.InternalErrorCode, err.Error())
			return
		}

		switch jsonx.ShapeOf(body) {
		case jsonx.Array:
			var batch []rpcpost.Request
			if err := json.Unmarshal(body, &batch); err != nil {
				writeError(w, http.StatusBadRequest, rpcpost.ParseErrorCode, err.Error())
				return
			}

			if len(batch) == 0 {
				writeError(w, http.StatusBadRequest, rpcpost.InvalidRequestCode, "batches must contain at least one request")
				return
			}

			rw := &batchWriter{Target: w}
			for _, req := range batch {
				if !req.IsNotification() {
					rw.Write(Echo(req))
				}
			}
			rw.Close()

		case jsonx.Object:
			var req rpcpost.Request
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, http.StatusBadRequest, rpcpost.ParseErrorCode, err.Error())
				return
			}

			if req.IsNotification() {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			writeResponse(w, http.StatusOK, Echo(req))

		default:
			writeError(w, http.StatusBadRequest, rpcpost.ParseErrorCode, "unable to parse request")
		}
	})
}

// MirrorHandler returns a handler that responds with the request body,
// unchanged.
func MirrorHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", mediaType)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})
}

// RawHandler returns a handler that always responds with the given status code
// and body.
func RawHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", mediaType)
		w.WriteHeader(status)
		io.WriteString(w, body)
	})
}

// DelayHandler returns a handler that waits for d before passing the request
// to next. It abandons the request if the client goes away first.
func DelayHandler(d time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(d):
			next.ServeHTTP(w, r)
		}
	})
}

// batchWriter writes the responses to a batch as a single JSON array.
type batchWriter struct {
	Target    http.ResponseWriter
	arrayOpen bool
}

var (
	openArray  = []byte(`[`)
	closeArray = []byte(`]`)
	comma      = []byte(`,`)
)

// Write writes the next response in the batch.
func (w *batchWriter) Write(res rpcpost.Response) {
	separator := comma

	if !w.arrayOpen {
		w.Target.Header().Set("Content-Type", mediaType)
		w.Target.WriteHeader(http.StatusOK)
		w.arrayOpen = true
		separator = openArray
	}

	w.Target.Write(separator)
	json.NewEncoder(w.Target).Encode(res)
}

// Close finishes the batch. If no responses were written, for example because
// every request was a notification, it responds with no content.
func (w *batchWriter) Close() {
	if w.arrayOpen {
		w.Target.Write(closeArray)
		return
	}

	w.Target.WriteHeader(http.StatusNoContent)
}

// writeResponse writes a single JSON-RPC response.
func writeResponse(w http.ResponseWriter, status int, res rpcpost.Response) {
	w.Header().Set("Content-Type", mediaType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(res)
}

// writeError writes a JSON-RPC error response that is not associated with any
// particular request.
func writeError(w http.ResponseWriter, status int, code rpcpost.ErrorCode, message string) {
	writeResponse(
		w,
		status,
		rpcpost.Response{
			Version:   rpcpost.JSONRPCVersion,
			RequestID: json.RawMessage(`null`),
			Error: &rpcpost.ErrorInfo{
				Code:    code,
				Message: message,
			},
		},
	)
}
