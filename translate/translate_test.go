package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCacheTextSingleCallPerSource(t *testing.T) {
	calls := 0
	tr := Func(func(ctx context.Context, text string) (string, error) {
		calls++
		return "DE:" + text, nil
	})
	cache := NewCache()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := Text(ctx, tr, cache, "Dreams are mysterious.")
		if err != nil {
			t.Fatalf("Text: %v", err)
		}
		if got != "DE:Dreams are mysterious." {
			t.Fatalf("Text = %q", got)
		}
	}

	if calls != 1 {
		t.Errorf("translator called %d times, want 1", calls)
	}
	if cache.Hits() != 2 || cache.Misses() != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", cache.Hits(), cache.Misses())
	}
}

func TestCacheTextWhitespaceOnly(t *testing.T) {
	tr := Func(func(ctx context.Context, text string) (string, error) {
		t.Fatal("translator called for whitespace-only text")
		return "", nil
	})
	got, err := Text(context.Background(), tr, NewCache(), "  \n\t ")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "  \n\t " {
		t.Errorf("whitespace not passed through: %q", got)
	}
}

func TestRetryingRecoversFromTransient(t *testing.T) {
	calls := 0
	r := &Retrying{
		Translator: Func(func(ctx context.Context, text string) (string, error) {
			calls++
			if calls < 3 {
				return "", Transient(errors.New("service hiccup"))
			}
			return "ok", nil
		}),
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	}

	got, err := r.Translate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls, want ok after 3", got, calls)
	}
}

func TestRetryingPermanentNotRetried(t *testing.T) {
	calls := 0
	permanent := errors.New("unsupported language pair")
	r := &Retrying{
		Translator: Func(func(ctx context.Context, text string) (string, error) {
			calls++
			return "", permanent
		}),
		MaxAttempts: 5,
		Backoff:     time.Millisecond,
	}

	_, err := r.Translate(context.Background(), "x")
	if !errors.Is(err, permanent) {
		t.Fatalf("Translate error = %v, want wrapped permanent error", err)
	}
	if calls != 1 {
		t.Errorf("translator called %d times, want 1", calls)
	}
}

func TestRetryingExhaustionReportsAttempts(t *testing.T) {
	last := errors.New("still down")
	r := &Retrying{
		Translator: Func(func(ctx context.Context, text string) (string, error) {
			return "", Transient(last)
		}),
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	}

	_, err := r.Translate(context.Background(), "x")
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("Translate error = %T, want *ServiceError", err)
	}
	if se.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", se.Attempts)
	}
	if !errors.Is(se, last) {
		t.Error("ServiceError does not wrap the last failure")
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(errors.New("plain")) {
		t.Error("plain error classified as transient")
	}
	if !IsTransient(Transient(errors.New("x"))) {
		t.Error("marked error not classified as transient")
	}
	if !IsTransient(fmt.Errorf("wrapped: %w", Transient(errors.New("x")))) {
		t.Error("wrapped transient not detected")
	}
	if IsTransient(nil) {
		t.Error("nil classified as transient")
	}
}

func TestGoogleWebTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.Form.Get("sl"); got != "en" {
			t.Errorf("sl = %q", got)
		}
		if got := r.Form.Get("tl"); got != "de" {
			t.Errorf("tl = %q", got)
		}
		fmt.Fprint(w, `[[["Träume sind ","Dreams are ",null],["geheimnisvoll.","mysterious.",null]],null,"en"]`)
	}))
	defer srv.Close()

	g := NewGoogleWeb("en", "de")
	g.BaseURL = srv.URL

	got, err := g.Translate(context.Background(), "Dreams are mysterious.")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "Träume sind geheimnisvoll." {
		t.Errorf("Translate = %q", got)
	}
}

func TestGoogleWebStatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tc := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		g := NewGoogleWeb("en", "de")
		g.BaseURL = srv.URL

		_, err := g.Translate(context.Background(), "x")
		srv.Close()

		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if IsTransient(err) != tc.transient {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, IsTransient(err), tc.transient)
		}
	}
}

func TestDecodeGoogleResponseRejectsGarbage(t *testing.T) {
	if _, err := decodeGoogleResponse([]byte(`not json`)); err == nil {
		t.Error("decoded garbage without error")
	}
	if _, err := decodeGoogleResponse([]byte(`[]`)); err == nil {
		t.Error("decoded empty response without error")
	}
}
