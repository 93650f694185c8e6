package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// httpClient is shared across the HTTP-backed providers; each request
// carries its own context deadline, so a single generous client timeout
// is sufficient here.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// postJSON POSTs body as JSON to url with headers, decoding the response
// into out. Non-2xx responses are returned as ErrInvalidResponse/
// ErrAuthentication/ErrRateLimited depending on status.
func postJSON(ctx context.Context, service, url string, headers map[string]string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return ErrInvalidResponse(service, "failed to encode request: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return ErrRequest(service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ErrTimeout(service)
		}
		return ErrRequest(service, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuthentication(service)
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited(service)
	case resp.StatusCode >= 400:
		return ErrInvalidResponse(service, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ErrInvalidResponse(service, "malformed JSON body: "+err.Error())
	}
	return nil
}

// getJSON GETs url with headers, decoding the response into out. Status
// handling mirrors postJSON.
func getJSON(ctx context.Context, service, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ErrRequest(service, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ErrTimeout(service)
		}
		return ErrRequest(service, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuthentication(service)
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited(service)
	case resp.StatusCode >= 400:
		return ErrInvalidResponse(service, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ErrInvalidResponse(service, "malformed JSON body: "+err.Error())
	}
	return nil
}
