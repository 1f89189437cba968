package flowhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/torosent/flowrunner/internal/extract"
	"github.com/torosent/flowrunner/internal/flowvalue"
	"github.com/torosent/flowrunner/internal/urlbuild"
)

const (
	maxRetryAttempts  = 3
	baseRetryDelay    = 500 * time.Millisecond
	maxBodyReadBytes  = 1 << 20 // 1 MiB, matching the teacher's http_requester.go limit
	perRequestTimeout = 15 * time.Second
)

// Request describes one Request step's fully-substituted inputs.
type Request struct {
	Method  string
	Built   urlbuild.Built
	Headers http.Header
	Body    flowvalue.Value // Missing/Null means no body
}

// Result carries the executed request's outcome back to the interpreter.
type Result struct {
	StatusCode int
	Response   extract.Response
	Err        error
	// Retryable indicates the final error was a network/5xx failure (as
	// opposed to, e.g., a build-time failure) for logging purposes.
	Retryable bool
	// Latency is the wall-clock duration of the attempt that produced this
	// Result (request build through response headers received), excluding
	// any earlier retries' backoff delays.
	Latency time.Duration
}

// Logger receives structured diagnostics for retries and failures.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
}

// Execute performs req against client, retrying on network errors and 5xx
// responses up to maxRetryAttempts with exponential backoff, per
// spec.md §4.6 item 4. 4xx responses are never retried.
func Execute(ctx context.Context, client *http.Client, req Request, logger Logger) Result {
	body, contentType, omitBody := encodeBody(req.Method, req.Body)

	var lastResult Result
	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		if ctx.Err() != nil {
			return Result{Err: ctx.Err()}
		}

		reqCtx, cancel := context.WithTimeout(ctx, perRequestTimeout)
		result := attemptOnce(reqCtx, client, req, body, contentType, omitBody)
		cancel()

		lastResult = result
		if result.Err == nil && result.StatusCode < 500 {
			return result
		}
		retryable := result.Err != nil || result.StatusCode >= 500
		lastResult.Retryable = retryable
		if !retryable || attempt == maxRetryAttempts {
			return lastResult
		}

		delay := baseRetryDelay * time.Duration(1<<(attempt-1))
		debugw(logger, "retrying request", "attempt", attempt, "delay", delay.String(), "status", result.StatusCode)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Result{Err: ctx.Err()}
		}
	}
	return lastResult
}

func attemptOnce(ctx context.Context, client *http.Client, req Request, body []byte, contentType string, omitBody bool) Result {
	start := time.Now()

	var bodyReader io.Reader
	if !omitBody && body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.Built.RequestURL, bodyReader)
	if err != nil {
		return Result{Err: fmt.Errorf("flowhttp: build request: %w", err), Latency: time.Since(start)}
	}
	httpReq.Header = req.Headers.Clone()
	if contentType != "" && !omitBody && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Built.HostHeader != "" {
		httpReq.Host = req.Built.HostHeader
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{Err: fmt.Errorf("flowhttp: request failed: %w", err), Latency: time.Since(start)}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadBytes))
	if readErr != nil {
		respBody = nil
	}
	latency := time.Since(start)

	isJSON := isJSONContentType(resp.Header.Get("Content-Type"))
	return Result{
		StatusCode: resp.StatusCode,
		Response: extract.Response{
			StatusCode: resp.StatusCode,
			Headers:    resp.Header,
			Body:       respBody,
			IsJSON:     isJSON,
		},
		Latency: latency,
	}
}

// encodeBody implements spec.md §4.6 item 2's body-type dispatch.
func encodeBody(method string, body flowvalue.Value) (encoded []byte, contentType string, omit bool) {
	if method == http.MethodGet || method == http.MethodHead {
		return nil, "", true
	}
	if body.IsNullOrMissing() {
		return nil, "", true
	}
	switch body.Kind() {
	case flowvalue.KindMap, flowvalue.KindList:
		data, err := json.Marshal(body.ToInterface())
		if err != nil {
			return nil, "", true
		}
		return data, "application/json", false
	case flowvalue.KindStr:
		s, _ := body.Str()
		return []byte(s), "", false
	default:
		return []byte(body.StringForm()), "", false
	}
}

func isJSONContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "application/json") || strings.HasSuffix(ct, "+json")
}

func debugw(logger Logger, msg string, kv ...any) {
	if logger == nil {
		return
	}
	logger.Debugw(msg, kv...)
}
