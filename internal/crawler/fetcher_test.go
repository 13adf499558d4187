package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcher_Fetch_Success(t *testing.T) {
	var gotUA, gotCookie string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")

		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{Timeout: 5 * time.Second})

	resp, err := f.Fetch(context.Background(), Request{
		URL:     server.URL,
		Headers: map[string]string{"User-Agent": "Top10Bot/1.0", "Cookie": "CONSENT=YES+"},
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if resp.Body != `{"ok":true}` || resp.StatusCode != http.StatusOK {
		t.Errorf("Unexpected response: %+v", resp)
	}

	if gotUA != "Top10Bot/1.0" || gotCookie != "CONSENT=YES+" {
		t.Errorf("Custom headers not sent: ua=%q cookie=%q", gotUA, gotCookie)
	}
}

func TestFetcher_Fetch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewFetcher(FetcherOptions{}).Fetch(context.Background(), Request{URL: server.URL})

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("Expected HTTPStatusError 503, got %v", err)
	}

	if !IsRetryable(err) {
		t.Error("503 should be retryable")
	}
}

func TestFetcher_Fetch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewFetcher(FetcherOptions{}).Fetch(context.Background(), Request{URL: url})

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}

	if !IsRetryable(err) {
		t.Error("transport errors should be retryable")
	}
}

func TestFetcher_Fetch_LimitsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(strings.Repeat("x", 3000)))
	}))
	defer server.Close()

	_, err := NewFetcher(FetcherOptions{BufferSizeKb: 1}).Fetch(context.Background(), Request{URL: server.URL})

	var tooLarge *BodyTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Expected BodyTooLargeError, got %v", err)
	}

	if tooLarge.Limit != 1024 {
		t.Errorf("Expected limit 1024, got %d", tooLarge.Limit)
	}

	if IsRetryable(err) {
		t.Error("Oversized body should not be retried")
	}
}

func TestFetcher_Fetch_BodyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1024)))
	}))
	defer server.Close()

	resp, err := NewFetcher(FetcherOptions{BufferSizeKb: 1}).Fetch(context.Background(), Request{URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(resp.Body) != 1024 {
		t.Errorf("Expected full 1024-byte body, got %d", len(resp.Body))
	}
}

func TestFetcher_Fetch_RedirectCap(t *testing.T) {
	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/loop", http.StatusFound)
	}))
	defer server.Close()

	_, err := NewFetcher(FetcherOptions{MaxRedirects: 2}).Fetch(context.Background(), Request{URL: server.URL})
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("Expected ErrTooManyRedirects, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "429", err: &HTTPStatusError{Status: 429}, want: true},
		{name: "408", err: &HTTPStatusError{Status: 408}, want: true},
		{name: "500", err: &HTTPStatusError{Status: 500}, want: true},
		{name: "404", err: &HTTPStatusError{Status: 404}, want: false},
		{name: "403", err: &HTTPStatusError{Status: 403}, want: false},
		{name: "transport", err: &TransportError{Err: errors.New("reset")}, want: true},
		{name: "canceled", err: &TransportError{Err: context.Canceled}, want: false},
		{name: "plain", err: errors.New("decode"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
