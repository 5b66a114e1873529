// Package translate abstracts the external translation capability used
// by the localization pipeline: a Translator that maps one source text
// to its translation, a per-run Cache that guarantees no source text is
// translated twice within a run, and a Retrying wrapper with bounded
// linear-backoff retries around transient service failures.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Translator
// ---------------------------------------------------------------------------

// Translator translates one text from the source language into the
// target language it was constructed for.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Func adapts a plain function to the Translator interface. Used for
// deterministic test doubles.
type Func func(ctx context.Context, text string) (string, error)

// Translate implements Translator.
func (f Func) Translate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

// Cache maps source text to translated text for the duration of one
// pipeline run. It is constructed once per run and passed explicitly to
// every translation site; it is never a hidden singleton.
type Cache struct {
	entries map[string]string
	hits    int
	misses  int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Get returns the cached translation for text, if any.
func (c *Cache) Get(text string) (string, bool) {
	translated, ok := c.entries[text]
	if ok {
		c.hits++
	}
	return translated, ok
}

// Put records the translation for text.
func (c *Cache) Put(text, translated string) {
	c.entries[text] = translated
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return len(c.entries) }

// Hits returns how many lookups were served from the cache.
func (c *Cache) Hits() int { return c.hits }

// Misses returns how many lookups required a translation call.
func (c *Cache) Misses() int { return c.misses }

// Text translates text through the cache: a hit is returned without an
// external call, a miss goes to tr and populates the cache.
// Whitespace-only text is returned unchanged.
func Text(ctx context.Context, tr Translator, c *Cache, text string) (string, error) {
	if translated, ok := c.Get(text); ok {
		return translated, nil
	}
	if strings.TrimSpace(text) == "" {
		c.Put(text, text)
		return text, nil
	}
	c.misses++
	translated, err := tr.Translate(ctx, text)
	if err != nil {
		return "", err
	}
	c.Put(text, translated)
	return translated, nil
}

// ---------------------------------------------------------------------------
// Error classification
// ---------------------------------------------------------------------------

// transientError marks an error as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err to mark it as a retryable service failure.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is a retryable service failure.
// Network errors, HTTP 429 and HTTP 5xx are transient; everything else
// (including an unsupported language pair, which the service reports as
// a 4xx) is permanent and must not be retried.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// ServiceError is the fatal error produced once the retry budget for a
// transient failure is exhausted. It records how many attempts were
// made and the last underlying failure.
type ServiceError struct {
	Attempts int
	Last     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("translation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ServiceError) Unwrap() error { return e.Last }

// ---------------------------------------------------------------------------
// Retrying wrapper
// ---------------------------------------------------------------------------

// Retrying wraps a Translator with a bounded retry policy: up to
// MaxAttempts attempts with linear backoff (Backoff, 2*Backoff, ...)
// between them. Only transient failures are retried; permanent failures
// propagate immediately.
type Retrying struct {
	Translator  Translator
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultMaxAttempts is used when MaxAttempts is unset.
const DefaultMaxAttempts = 3

// DefaultBackoff is used when Backoff is unset.
const DefaultBackoff = 500 * time.Millisecond

// Translate implements Translator.
func (r *Retrying) Translate(ctx context.Context, text string) (string, error) {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	backoff := r.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		translated, err := r.Translator.Translate(ctx, text)
		if err == nil {
			return translated, nil
		}
		if !IsTransient(err) {
			return "", err
		}
		last = err
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * backoff):
		}
	}
	return "", &ServiceError{Attempts: maxAttempts, Last: last}
}

// ---------------------------------------------------------------------------
// Google web endpoint provider
// ---------------------------------------------------------------------------

// GoogleWebBase is the unauthenticated Google Translate web endpoint.
const GoogleWebBase = "https://translate.googleapis.com"

// GoogleWeb translates via the unauthenticated Google Translate web
// endpoint (the "gtx" client). No API key is required.
type GoogleWeb struct {
	// Source and Target are language codes (e.g. "en", "de").
	Source string
	Target string
	// BaseURL overrides GoogleWebBase, mainly for tests.
	BaseURL string
	// Client overrides the default HTTP client.
	Client *http.Client
	// Delay is slept after each successful call to stay polite with
	// the unauthenticated endpoint.
	Delay time.Duration
}

// NewGoogleWeb returns a provider for one language pair.
func NewGoogleWeb(source, target string) *GoogleWeb {
	return &GoogleWeb{Source: source, Target: target}
}

func (g *GoogleWeb) httpClient() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// Translate implements Translator.
func (g *GoogleWeb) Translate(ctx context.Context, text string) (string, error) {
	base := g.BaseURL
	if base == "" {
		base = GoogleWebBase
	}

	form := url.Values{}
	form.Set("client", "gtx")
	form.Set("sl", g.Source)
	form.Set("tl", g.Target)
	form.Set("dt", "t")
	form.Set("q", text)

	endpoint := strings.TrimRight(base, "/") + "/translate_a/single"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient().Do(req)
	if err != nil {
		return "", Transient(fmt.Errorf("translation request failed: %w", err))
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", Transient(fmt.Errorf("translation service returned status %d: %s",
			resp.StatusCode, truncate(string(body), 200)))
	default:
		return "", fmt.Errorf("translation service rejected %s->%s request (status %d): %s",
			g.Source, g.Target, resp.StatusCode, truncate(string(body), 200))
	}

	translated, err := decodeGoogleResponse(body)
	if err != nil {
		return "", err
	}

	if g.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.Delay):
		}
	}
	return translated, nil
}

// decodeGoogleResponse extracts the translated text from the gtx
// response, which is a nested JSON array: the first element is a list
// of [translatedSegment, sourceSegment, ...] entries.
func decodeGoogleResponse(body []byte) (string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid translation response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty translation response")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return "", fmt.Errorf("invalid translation segment list: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(seg[0], &part); err != nil {
			continue
		}
		sb.WriteString(part)
	}
	return sb.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
