package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/go-ports/todo/internal/redaction"
)

// HTTPError is a non-2xx response. Message is the server's "message"
// (or "error") field when the body is JSON.
type HTTPError struct {
	Status  int
	Message string
	Body    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// doJSON executes an HTTP request, marshalling body as JSON and unmarshalling
// the response into out. Pass nil body for GET and DELETE requests. Pass nil
// out to discard the response body. Returns *HTTPError on non-2xx status codes.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("doJSON marshal: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("doJSON new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req) // #nosec G704 -- URL is the user-configured todo backend
	if err != nil {
		return fmt.Errorf("doJSON request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return newHTTPError(resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("doJSON decode: %w", err)
		}
	}
	return nil
}

func newHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{Status: status}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = strings.TrimSpace(payload.Message)
		if e.Message == "" {
			e.Message = strings.TrimSpace(payload.Error)
		}
	}
	if e.Message == "" {
		snippet := string(bytes.TrimSpace(body))
		snippet = truncate(snippet, maxSnippet)
		e.Body = redaction.Redact(snippet, nil)
	}
	return e
}

// maxSnippet bounds the raw body kept on an HTTPError, in bytes.
const maxSnippet = 256

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
