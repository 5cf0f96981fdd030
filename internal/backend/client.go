package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/flowerbelle/internal/config"
	inHttp "github.com/Alturino/flowerbelle/internal/http"
	"github.com/Alturino/flowerbelle/internal/log"
	"github.com/Alturino/flowerbelle/internal/otel"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerOpenFor  = 30 * time.Second
)

// Client talks to the REST backend. Reads go through a circuit breaker;
// writes never do, so a tripped breaker cannot fail a sale on its own.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(cfg config.Backend) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = defaultBreakerFailures
	}
	openFor := cfg.BreakerOpenAfter
	if openFor <= 0 {
		openFor = defaultBreakerOpenFor
	}

	httpClient := resty.NewWithClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", inHttp.VALUE_HEADER_APPLICATION_JSON)

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			respErr, ok := AsResponseError(err)
			return ok && respErr.StatusCode < http.StatusInternalServerError
		},
	})

	return &Client{http: httpClient, breaker: breaker}
}

func (cl *Client) BreakerState() string {
	return cl.breaker.State().String()
}

// withTrailingSlash keeps the backend from redirecting every request.
func withTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

func (cl *Client) send(
	c context.Context,
	method string,
	path string,
	token string,
	query url.Values,
	body interface{},
) ([]byte, error) {
	path = withTrailingSlash(path)
	c, span := otel.Tracer.Start(
		c,
		"backend Client send",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("backend.path", path),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "backend Client send").
		Str(log.KeyBackendURL, method+" "+path).
		Str(log.KeyProcess, "sending request to backend").
		Logger()

	req := cl.http.R().SetContext(c)
	if token != "" {
		req.SetAuthToken(token)
	}
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		req.SetHeader(inHttp.KEY_HEADER_REQUEST_ID, requestID)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader(inHttp.KEY_HEADER_CONTENT_TYPE, inHttp.VALUE_HEADER_APPLICATION_JSON)
		req.SetBody(body)
	}

	logger.Debug().Msg("sending request to backend")
	resp, err := req.Execute(method, path)
	if err != nil {
		err = fmt.Errorf("failed sending request to backend with error=%w", errors.Join(ErrUnreachable, err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger = logger.With().Int(log.KeyStatusCode, resp.StatusCode()).Logger()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		respErr := newResponseError(resp.StatusCode(), resp.Body())
		otel.RecordError(respErr, span)
		logger.Warn().Err(respErr).Msg(respErr.Error())
		return nil, respErr
	}
	logger.Debug().Msg("sent request to backend")

	return resp.Body(), nil
}

func (cl *Client) read(c context.Context, path string, token string, query url.Values) ([]byte, error) {
	body, err := cl.breaker.Execute(func() ([]byte, error) {
		return cl.send(c, http.MethodGet, path, token, query, nil)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("failed reading path=%s breakerState=%s with error=%w",
			path,
			cl.BreakerState(),
			errors.Join(ErrUnreachable, err),
		)
		zerolog.Ctx(c).Warn().
			Str(log.KeyTag, "backend Client read").
			Str(log.KeyBreakerState, cl.BreakerState()).
			Err(err).
			Msg(err.Error())
		return nil, err
	}
	return body, err
}
