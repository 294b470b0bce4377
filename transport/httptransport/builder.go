package httptransport

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dogmatiq/rpcpost"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultURL is the endpoint used if Builder.URL() is never called.
	DefaultURL = "http://127.0.0.1:8332/"

	// DefaultTimeout is the maximum duration of each exchange if
	// Builder.Timeout() is never called.
	DefaultTimeout = 2 * time.Second

	// DefaultResponseBodyLimit is the maximum size of a response body, in
	// bytes, if Builder.ResponseBodyLimit() is never called.
	DefaultResponseBodyLimit = 32 << 20
)

// schemePattern matches a URL scheme at the start of an endpoint URL.
var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// Builder accumulates the configuration of a Transport.
//
// The zero value is not usable, use NewBuilder() instead.
type Builder struct {
	endpoint         *url.URL
	timeout          time.Duration
	authorization    string
	httpClient       *http.Client
	logger           *zap.Logger
	tracerProvider   trace.TracerProvider
	propagator       propagation.TextMapPropagator
	metrics          *Metrics
	bodyLimit        int
	unmarshalOptions []rpcpost.UnmarshalOption
}

// NewBuilder returns a builder with the default configuration.
func NewBuilder() *Builder {
	endpoint, _, err := parseEndpoint(DefaultURL)
	if err != nil {
		panic(err) // CODE COVERAGE: DefaultURL is a constant.
	}

	return &Builder{
		endpoint:  endpoint,
		timeout:   DefaultTimeout,
		bodyLimit: DefaultResponseBodyLimit,
	}
}

// Timeout sets the maximum duration of each exchange, including connecting,
// sending the request and reading the response.
//
// A non-positive duration disables the transport's own deadline, leaving only
// the deadline of the context passed to each call.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.timeout = d
	return b
}

// URL sets the endpoint that requests are sent to.
//
// The scheme must be "http" or "https". If the scheme is omitted, as in
// "localhost:8332", "http" is assumed. If u contains user information it is
// removed from the endpoint and used for basic authentication, as though
// passed to Auth().
//
// It returns an error of kind rpcpost.KindInvalidEndpoint if u can not be
// parsed.
func (b *Builder) URL(u string) (*Builder, error) {
	endpoint, auth, err := parseEndpoint(u)
	if err != nil {
		return nil, &rpcpost.TransportError{
			Kind:  rpcpost.KindInvalidEndpoint,
			Cause: err,
		}
	}

	b.endpoint = endpoint
	if auth != "" {
		b.authorization = auth
	}

	return b, nil
}

// Auth configures HTTP basic authentication using the given credentials.
//
// An empty password is encoded as "user:", which is identical to the encoding
// used when no password is given. It replaces any previously configured
// authentication. The credentials themselves are not retained.
func (b *Builder) Auth(user, password string) *Builder {
	b.authorization = basicAuth(user + ":" + password)
	return b
}

// CookieAuth configures HTTP basic authentication using a single token, such
// as the contents of an RPC cookie file.
//
// It replaces any previously configured authentication.
func (b *Builder) CookieAuth(cookie string) *Builder {
	b.authorization = basicAuth(cookie)
	return b
}

// HTTPClient sets the HTTP client used to perform exchanges.
//
// By default a new client is created when the transport is built. The
// transport uses a copy of c; c itself is never modified.
func (b *Builder) HTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// Logger sets the target for log messages about each exchange.
func (b *Builder) Logger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// TracerProvider sets the OpenTelemetry tracer provider used to create a
// client span for each exchange.
//
// By default the global tracer provider is used.
func (b *Builder) TracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// Propagator sets the propagator used to inject trace context into the HTTP
// request headers.
//
// By default the W3C trace context format is used.
func (b *Builder) Propagator(p propagation.TextMapPropagator) *Builder {
	b.propagator = p
	return b
}

// Metrics sets the collector that records metrics about each exchange.
func (b *Builder) Metrics(m *Metrics) *Builder {
	b.metrics = m
	return b
}

// ResponseBodyLimit sets the maximum size of a response body, in bytes.
//
// A larger body produces an error of kind rpcpost.KindTransport. A
// non-positive limit disables the check.
func (b *Builder) ResponseBodyLimit(n int) *Builder {
	b.bodyLimit = n
	return b
}

// AllowUnknownFields controls whether response objects may contain fields
// other than those defined by the JSON-RPC specification.
//
// Unknown fields are disallowed by default.
func (b *Builder) AllowUnknownFields(allow bool) *Builder {
	b.unmarshalOptions = []rpcpost.UnmarshalOption{
		rpcpost.AllowUnknownFields(allow),
	}
	return b
}

// Build returns a new transport with the accumulated configuration.
func (b *Builder) Build() *Transport {
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	propagator := b.propagator
	if propagator == nil {
		propagator = propagation.TraceContext{}
	}

	endpoint := *b.endpoint

	return &Transport{
		endpoint:         endpoint.String(),
		target:           describeEndpoint(&endpoint),
		timeout:          b.timeout,
		authorization:    b.authorization,
		client:           newRestyClient(b.httpClient, logger, b.bodyLimit),
		logger:           logger,
		tracer:           newTracer(b.tracerProvider),
		propagator:       propagator,
		metrics:          b.metrics,
		unmarshalOptions: b.unmarshalOptions,
	}
}

// parseEndpoint parses and validates an endpoint URL.
//
// It returns the URL without any user information, and the basic
// authorization header value derived from that user information, if present.
func parseEndpoint(raw string) (_ *url.URL, auth string, _ error) {
	if raw == "" {
		return nil, "", errors.New("URL must not be empty")
	}

	s := raw
	if !schemePattern.MatchString(s) {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported URL scheme (%s)", u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, "", fmt.Errorf("URL must include a host (%s)", raw)
	}

	if p := u.Port(); p != "" {
		if n, err := strconv.ParseUint(p, 10, 16); err != nil || n == 0 {
			return nil, "", fmt.Errorf("invalid port in URL (%s)", p)
		}
	}

	if u.User != nil {
		password, _ := u.User.Password()
		auth = basicAuth(u.User.Username() + ":" + password)
		u.User = nil
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u, auth, nil
}

// describeEndpoint renders u as "<scheme>://<host>:<port><path>".
func describeEndpoint(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return u.Scheme + "://" + net.JoinHostPort(u.Hostname(), port) + path
}

// basicAuth returns the value of a basic "Authorization" header for the given
// credentials.
func basicAuth(credentials string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}
