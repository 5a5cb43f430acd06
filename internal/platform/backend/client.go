// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backend is the typed HTTP client of the external marketplace REST API.

Every remote read and mutation Farmgate performs goes through [Client]. The
client never retries: failures are converted to [apperr.AppError] values at
this boundary and surfaced to the caller, who decides whether to offer a
manual retry.

Error mapping:

  - Network failure or undecodable body: 502 UPSTREAM_ERROR with a generic message.
  - Backend 4xx: same status, backend "message" passed through verbatim.
  - Backend 5xx: 502 UPSTREAM_ERROR, backend message when present.
  - 2xx with "success": false: 400 UPSTREAM_REJECTED with the backend message.
*/
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/farmgate/internal/platform/apperr"
)

// maxResponseBytes caps how much of a backend response is read.
const maxResponseBytes = 4 << 20

// Client talks to the marketplace backend rooted at a configured base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backend client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope is the common shape of every backend response.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Call describes one backend request.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Bearer string
	Body   any
}

// Do executes call and decodes the envelope's "data" member into out (when non-nil).
// It returns the backend's top-level message for callers that surface it.
func (client *Client) Do(ctx context.Context, call Call, out any) (string, error) {
	request, err := client.newRequest(ctx, call)
	if err != nil {
		return "", apperr.Internal(err)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", apperr.BadGateway("", fmt.Errorf("backend: %s %s: %w", call.Method, call.Path, err))
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return "", apperr.BadGateway("", fmt.Errorf("backend: read %s: %w", call.Path, err))
	}

	var body envelope
	decodeErr := json.Unmarshal(raw, &body)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		cause := &Rejection{Method: call.Method, Path: call.Path, Status: response.StatusCode, Message: body.Message}
		return "", apperr.Upstream(response.StatusCode, body.Message, cause)
	}

	if decodeErr != nil {
		return "", apperr.BadGateway("", fmt.Errorf("backend: decode %s: %w", call.Path, decodeErr))
	}

	if body.Success != nil && !*body.Success {
		cause := &Rejection{Method: call.Method, Path: call.Path, Status: response.StatusCode, Message: body.Message}
		return "", apperr.Upstream(http.StatusBadRequest, body.Message, cause)
	}

	if out != nil && len(body.Data) > 0 && string(body.Data) != "null" {
		if err := json.Unmarshal(body.Data, out); err != nil {
			return "", apperr.BadGateway("", fmt.Errorf("backend: decode %s data: %w", call.Path, err))
		}
	}

	return body.Message, nil
}

// Reachable reports whether the backend answers HTTP at all. Any status counts.
func (client *Client) Reachable(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodHead, client.baseURL+"/", nil)
	if err != nil {
		return err
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("backend: unreachable: %w", err)
	}
	_ = response.Body.Close()
	return nil
}

func (client *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	target := client.baseURL + call.Path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		encoded, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("backend: encode %s body: %w", call.Path, err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("backend: build %s request: %w", call.Path, err)
	}

	request.Header.Set("Accept", "application/json")
	if call.Body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if call.Bearer != "" {
		request.Header.Set("Authorization", "Bearer "+call.Bearer)
	}

	return request, nil
}

// Rejection is the cause attached to a backend reply that was not a success:
// a non-2xx status or a 2xx envelope with "success": false.
type Rejection struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (r *Rejection) Error() string {
	if r.Message != "" {
		return fmt.Sprintf("backend: %s %s rejected with status %d: %s", r.Method, r.Path, r.Status, r.Message)
	}
	return fmt.Sprintf("backend: %s %s rejected with status %d", r.Method, r.Path, r.Status)
}

// Message returns the backend's own message for a client-side rejection, or
// fallback when the backend sent none or failed on its side.
func Message(err error, fallback string) string {
	var rejection *Rejection
	if errors.As(err, &rejection) && rejection.Message != "" && rejection.Status < 500 {
		return rejection.Message
	}
	return fallback
}
