// Package api is the single choke-point for every HTTP call to the
// WorkBoard backend. It injects the session credential, unwraps the response
// envelope, classifies failures into a closed taxonomy, and clears the
// credential on session expiry.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/workboardhq/workboard/internal/notify"
	"github.com/workboardhq/workboard/internal/observability"
	"github.com/workboardhq/workboard/internal/session"
	"github.com/workboardhq/workboard/pkg/models"
)

// errorBodyLimit bounds how much of a failed response is read for messages.
const errorBodyLimit = 4096

// Options configures a Client.
type Options struct {
	// BaseURL is the backend API root; trailing slashes are trimmed.
	BaseURL string
	// Timeout bounds each call unless the context is tighter.
	Timeout time.Duration
	// Session supplies and receives the bearer credential. Required.
	Session *session.Store
	// Sink receives one notification per classified error. Required.
	Sink notify.Sink
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics is optional; nil disables recording.
	Metrics *observability.Metrics
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client is the request pipeline. All outbound HTTP goes through Call; the
// pipeline itself never retries, so every call is at-most-once.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store
	sink    notify.Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient builds the request pipeline.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		session: opts.Session,
		sink:    opts.Sink,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// CallOptions adjust a single call.
type CallOptions struct {
	// Query is appended to the request URL.
	Query url.Values
	// Binary skips envelope handling entirely and returns the raw
	// response body (file export).
	Binary bool
	// Multipart replaces the JSON body with a multipart upload (file
	// import). The body argument to Call is ignored when set.
	Multipart *Multipart
}

// Multipart describes a file upload.
type Multipart struct {
	Field    string
	Filename string
	Content  io.Reader
	// Extra adds plain form fields alongside the file.
	Extra map[string]string
}

// Call performs one HTTP request. On success it returns the envelope's data
// bytes exactly as received (or the raw body for binary calls). On failure
// it returns a *Error carrying exactly one of the taxonomy codes; the error
// has already been reported once through the notification sink.
func (c *Client) Call(ctx context.Context, method, path string, body any, opts *CallOptions) ([]byte, error) {
	if opts == nil {
		opts = &CallOptions{}
	}
	start := time.Now()
	data, err := c.call(ctx, method, path, body, opts)
	c.record(method, start, err)
	return data, err
}

func (c *Client) call(ctx context.Context, method, path string, body any, opts *CallOptions) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, body, opts)
	if err != nil {
		return nil, c.report(newNetworkError("could not build request", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.report(newNetworkError("network error, please try again", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, c.expire()
	}

	if opts.Binary {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
			return nil, c.report(newNetworkError(
				fmt.Sprintf("download failed: %s", resp.Status),
				fmt.Errorf("%s %s: %s", method, path, strings.TrimSpace(string(body)))))
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, c.report(newNetworkError("response truncated", err))
		}
		return data, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.report(newNetworkError("response truncated", err))
	}

	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Code == 0 {
		// No recognizable envelope. A non-2xx transport status without one
		// is a generic failure; a 2xx without one is a malformed response.
		return nil, c.report(newNetworkError(
			fmt.Sprintf("unexpected response from server (%s)", resp.Status),
			fmt.Errorf("%s %s: no envelope in %d-byte body", method, path, len(raw))))
	}

	// The envelope outranks the transport status: any code other than 200
	// is a business error, 401 ends the session.
	switch {
	case env.Code == http.StatusUnauthorized:
		return nil, c.expire()
	case env.OK():
		return env.Data, nil
	default:
		return nil, c.report(newBusinessError(&env))
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, opts *CallOptions) (*http.Request, error) {
	target := c.baseURL + path
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var reader io.Reader
	contentType := ""
	switch {
	case opts.Multipart != nil:
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)
		part, err := writer.CreateFormFile(opts.Multipart.Field, opts.Multipart.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, opts.Multipart.Content); err != nil {
			return nil, err
		}
		for key, value := range opts.Multipart.Extra {
			if err := writer.WriteField(key, value); err != nil {
				return nil, err
			}
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		reader = buf
		contentType = writer.FormDataContentType()
	case body != nil:
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, ok := c.session.Get(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// expire handles session expiry: the credential is cleared and the user is
// told to re-authenticate exactly once, no matter how many in-flight calls
// observe the same expired credential.
func (c *Client) expire() *Error {
	err := newAuthExpiredError()
	if c.session.Clear() {
		c.sink.Notify(notify.LevelError, err.Message)
	}
	return err
}

// report surfaces the error through the sink once and passes it through.
func (c *Client) report(err *Error) *Error {
	c.sink.Notify(notify.LevelError, err.Message)
	if err.Err != nil {
		c.logger.Debug("request failed", "code", string(err.Code), "error", err.Err)
	}
	return err
}

func (c *Client) record(method string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case IsNetwork(err):
		outcome = "network_error"
	case IsAuthExpired(err):
		outcome = "auth_expired"
	case IsBusiness(err):
		outcome = "business_error"
	default:
		outcome = "error"
	}
	c.metrics.RequestCounter.WithLabelValues(method, outcome).Inc()
	c.metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// Do performs a call and decodes the envelope data into T.
func Do[T any](ctx context.Context, c *Client, method, path string, body any, opts *CallOptions) (T, error) {
	var out T
	data, err := c.Call(ctx, method, path, body, opts)
	if err != nil {
		return out, err
	}
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return out, nil
}
