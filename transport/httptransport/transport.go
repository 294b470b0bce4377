package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dogmatiq/rpcpost"
	"github.com/dogmatiq/rpcpost/internal/jsonx"
	"github.com/dogmatiq/rpcpost/internal/version"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// mediaType is the MIME media-type for JSON-RPC requests and responses when
// delivered over HTTP.
const mediaType = "application/json"

// userAgent is the value of the "User-Agent" header sent with each request.
var userAgent = "rpcpost/" + version.Version

// Transport is an implementation of rpcpost.Transport that sends each request
// or batch as an HTTP POST request.
//
// It is safe for concurrent use. Use a Builder to create a Transport.
type Transport struct {
	endpoint         string
	target           string
	timeout          time.Duration
	authorization    string
	client           *resty.Client
	logger           *zap.Logger
	tracer           trace.Tracer
	propagator       propagation.TextMapPropagator
	metrics          *Metrics
	unmarshalOptions []rpcpost.UnmarshalOption
}

var _ rpcpost.Transport = (*Transport)(nil)

// SendRequest sends a single request and returns the server's response.
//
// If it returns an error the response is always the zero value.
func (t *Transport) SendRequest(ctx context.Context, req rpcpost.Request) (rpcpost.Response, error) {
	var res rpcpost.Response

	err := t.post(
		ctx,
		exchange{
			Shape:     shapeSingle,
			Method:    req.Method,
			RequestID: req.ID,
			Count:     1,
		},
		req,
		func(body []byte) error {
			return t.decode(body, &res, jsonx.Object)
		},
	)
	if err != nil {
		return rpcpost.Response{}, err
	}

	return res, nil
}

// SendBatch sends a batch of requests and returns the server's responses.
//
// The responses are returned in the order the server produced them. It
// returns an error of kind rpcpost.KindDeserialization if the number of
// responses differs from the number of requests.
//
// An empty batch produces an error of kind rpcpost.KindSerialization without
// contacting the server. rpcpost.Client.Batch() panics in that case instead.
func (t *Transport) SendBatch(ctx context.Context, reqs []rpcpost.Request) ([]rpcpost.Response, error) {
	if len(reqs) == 0 {
		return nil, t.newError(
			rpcpost.KindSerialization,
			errors.New("batches must contain at least one request"),
		)
	}

	var responses []rpcpost.Response

	err := t.post(
		ctx,
		exchange{
			Shape: shapeBatch,
			Count: len(reqs),
		},
		reqs,
		func(body []byte) error {
			if err := t.decode(body, &responses, jsonx.Array); err != nil {
				return err
			}

			if len(responses) != len(reqs) {
				return t.newError(
					rpcpost.KindDeserialization,
					fmt.Errorf(
						"batch response contains %d response(s), expected %d",
						len(responses),
						len(reqs),
					),
				)
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return responses, nil
}

// Post sends payload as the body of an HTTP POST request and unmarshals the
// response body into out, which must be a non-nil pointer.
//
// The payload is not interpreted in any way, it need not be a JSON-RPC
// request. out is only modified if the whole response body is decoded
// successfully.
func (t *Transport) Post(ctx context.Context, payload, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		panic("unable to post to JSON-RPC server: out must be a non-nil pointer")
	}

	return t.post(
		ctx,
		exchange{
			Shape: shapeRaw,
			Count: 1,
		},
		payload,
		func(body []byte) error {
			v := reflect.New(rv.Type().Elem())
			if err := t.decode(body, v.Interface()); err != nil {
				return err
			}

			rv.Elem().Set(v.Elem())
			return nil
		},
	)
}

// Target returns a description of the endpoint in the form
// "<scheme>://<host>:<port><path>". It never includes credentials.
func (t *Transport) Target() string {
	return t.target
}

// String returns the same value as Target().
func (t *Transport) String() string {
	return t.target
}

// exchange describes a single HTTP exchange, for the purposes of logging,
// tracing and metrics.
type exchange struct {
	Shape     string
	Method    string
	RequestID json.RawMessage
	Count     int
}

const (
	shapeSingle = "single"
	shapeBatch  = "batch"
	shapeRaw    = "raw"
)

// outcome holds the observable details of a completed exchange.
type outcome struct {
	PayloadSize  int
	StatusCode   int
	ResponseSize int
	Duration     time.Duration
}

// post performs an exchange, using decode to process the response body.
func (t *Transport) post(
	ctx context.Context,
	x exchange,
	payload any,
	decode func([]byte) error,
) error {
	ctx, span := t.startSpan(ctx, x)

	start := time.Now()
	out, err := t.roundTrip(ctx, payload, decode)
	out.Duration = time.Since(start)

	endSpan(span, out, err)
	t.metrics.observe(x, err, out.Duration)
	t.logExchange(ctx, x, out, err)

	return err
}

// roundTrip marshals payload, sends it to the server and decodes the response.
func (t *Transport) roundTrip(
	ctx context.Context,
	payload any,
	decode func([]byte) error,
) (outcome, error) {
	var out outcome

	body, err := json.Marshal(payload)
	if err != nil {
		return out, t.newError(rpcpost.KindSerialization, err)
	}
	out.PayloadSize = len(body)

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", mediaType).
		SetHeader("Content-Length", strconv.Itoa(len(body))).
		SetHeader("Connection", "Close").
		SetHeader("User-Agent", userAgent).
		SetBody(body)

	if t.authorization != "" {
		req.SetHeader("Authorization", t.authorization)
	}

	t.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	// An oversized response body is reported here, before any decoding.
	res, err := req.Post(t.endpoint)
	if err != nil {
		return out, &rpcpost.TransportError{
			Kind:      rpcpost.KindTransport,
			Target:    t.target,
			IsTimeout: isTimeout(ctx, err),
			Cause:     err,
		}
	}

	out.StatusCode = res.StatusCode()
	out.ResponseSize = len(res.Body())

	if err := decode(res.Body()); err != nil {
		if res.IsSuccess() {
			return out, err
		}

		// A non-2xx status with an unusable body is reported as a transport
		// failure.
		return out, &rpcpost.TransportError{
			Kind:       rpcpost.KindTransport,
			Target:     t.target,
			StatusCode: out.StatusCode,
			Cause:      bodySnippet(res.Body()),
		}
	}

	return out, nil
}

// decode unmarshals the response body into v.
//
// If shapes is non-empty the top-level JSON value must have one of the given
// shapes. Well-formedness is checked by the unmarshaler itself, which limits
// nesting depth. v may be partially populated if decoding fails.
func (t *Transport) decode(body []byte, v any, shapes ...jsonx.Shape) error {
	shape := jsonx.ShapeOf(body)

	if shape == jsonx.Invalid {
		return t.newError(
			rpcpost.KindDeserialization,
			errors.New("response body is not valid JSON"),
		)
	}

	if len(shapes) != 0 && !containsShape(shapes, shape) {
		return t.newError(
			rpcpost.KindDeserialization,
			fmt.Errorf("expected a JSON %s in response body, got a JSON %s", shapes[0], shape),
		)
	}

	if err := jsonx.Unmarshal(body, v, t.unmarshalOptions...); err != nil {
		if jsonx.IsSyntaxError(err) {
			err = fmt.Errorf("response body is not valid JSON: %w", err)
		}

		return t.newError(rpcpost.KindDeserialization, err)
	}

	return nil
}

// newError returns a new TransportError of the given kind.
func (t *Transport) newError(k rpcpost.ErrorKind, cause error) error {
	return &rpcpost.TransportError{
		Kind:   k,
		Target: t.target,
		Cause:  cause,
	}
}

// newRestyClient returns the HTTP client shared by every exchange performed by
// a transport.
//
// hc is copied; resty sets the Transport field of the client it is given.
func newRestyClient(hc *http.Client, logger *zap.Logger, limit int) *resty.Client {
	var c http.Client
	if hc != nil {
		c = *hc
	}

	return resty.NewWithClient(&c).
		SetLogger(logger.Sugar()).
		SetResponseBodyLimit(limit)
}

// isTimeout returns true if err was caused by the deadline of ctx, or some
// other timeout within the HTTP client.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// maxSnippetSize is the maximum number of bytes of an unusable response body
// that are included in an error.
const maxSnippetSize = 512

// bodySnippet returns an error describing the start of an unusable response
// body, or nil if the body is empty.
func bodySnippet(body []byte) error {
	if len(body) > maxSnippetSize {
		body = body[:maxSnippetSize]
	}

	s := strings.TrimSpace(string(body))
	if s == "" {
		return nil
	}

	return errors.New(s)
}

func containsShape(shapes []jsonx.Shape, s jsonx.Shape) bool {
	for _, x := range shapes {
		if x == s {
			return true
		}
	}

	return false
}
