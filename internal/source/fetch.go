// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// RetryBaseDelay is the first backoff on a 429 or 5xx response. It doubles
// on each attempt. Tests override it to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const (
	defaultMaxRetries = 3
	defaultTimeout    = 60 * time.Second
	defaultUserAgent  = "clause-engine/1.0"
	maxDocumentBytes  = 64 << 20
)

// fetch downloads a URL and returns its body and Content-Type.
func (p *Provider) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	timeout := p.http.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := p.http.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", ua)

	client := &http.Client{Timeout: timeout}
	resp, err := DoWithRetry(ctx, client, req, p.http.MaxRetries)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching %s: HTTP %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if len(data) > maxDocumentBytes {
		return nil, "", fmt.Errorf("fetching %s: document exceeds %d bytes", rawURL, maxDocumentBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// retryable reports whether a status is worth another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry executes req and retries on 429 and 5xx responses with
// exponential backoff starting at RetryBaseDelay. When maxRetries is 0 the
// default (3) is used. The body of a retried response is drained and
// closed before sleeping. After exhausting retries the last response is
// returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// urlExt picks the format of a fetched document: the URL path extension
// when it has one, otherwise the Content-Type.
func urlExt(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); ext != "" {
			return ext
		}
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	switch mt {
	case "application/pdf":
		return ".pdf"
	case "text/markdown", "text/x-markdown":
		return ".md"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	}
	return ".txt"
}
