package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

type stubTokens struct {
	token string
}

func (s stubTokens) AccessToken(context.Context) string {
	return s.token
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestClientAttachesBearerWhenAuthRequired(t *testing.T) {
	var gotAuth, gotContentType, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get(RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(srv.URL, stubTokens{token: "tok1"})

	var out map[string]bool
	if err := client.Get(context.Background(), "/video/analyses?user_id=u1", &out, Options{RequireAuth: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok1" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotContentType)
	}
	if gotRequestID == "" {
		t.Fatal("expected request id header")
	}
	if !out["ok"] {
		t.Fatalf("expected decoded body, got %+v", out)
	}
}

func TestClientOmitsBearer(t *testing.T) {
	cases := []struct {
		name   string
		tokens TokenSource
		opts   Options
	}{
		{"auth not required", stubTokens{token: "tok1"}, Options{}},
		{"no session", stubTokens{}, Options{RequireAuth: true}},
		{"no token source", nil, Options{RequireAuth: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				gotAuth = r.Header.Get("Authorization")
				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			client := New(srv.URL, tc.tokens)
			if err := client.Get(context.Background(), "/health", nil, tc.opts); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !called {
				t.Fatal("expected request to be sent")
			}
			if gotAuth != "" {
				t.Fatalf("expected no authorization header, got %q", gotAuth)
			}
		})
	}
}

func TestClientCallerHeadersOverrideDefaults(t *testing.T) {
	var gotContentType, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotCustom = r.Header.Get("X-Client")
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	opts := Options{Headers: map[string]string{"Content-Type": "text/plain", "X-Client": "cli"}}
	if err := client.Post(context.Background(), "/echo", "hi", nil, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotContentType != "text/plain" || gotCustom != "cli" {
		t.Fatalf("caller headers not applied: content-type=%q x-client=%q", gotContentType, gotCustom)
	}
}

func TestClientEncodesBody(t *testing.T) {
	var got map[string]string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
	}))
	defer srv.Close()

	client := New(srv.URL+"/", nil)
	body := map[string]string{"url": "https://youtu.be/abc"}
	if err := client.Post(context.Background(), "video/analyze", body, nil, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if got["url"] != body["url"] {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestClientSendsNoBodyWhenNil(t *testing.T) {
	var length int64 = -2
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		length = int64(len(raw))
	}))
	defer srv.Close()

	if err := New(srv.URL, nil).Delete(context.Background(), "/thing", nil, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if length != 0 {
		t.Fatalf("expected empty body, got %d bytes", length)
	}
}

func TestClientHTTPErrorDetail(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantDetail  string
	}{
		{"detail string", http.StatusUnauthorized, "application/json", `{"detail":"Not authenticated"}`, "Not authenticated"},
		{"message fallback", http.StatusBadRequest, "application/json", `{"message":"bad idea"}`, "bad idea"},
		{"detail before message", http.StatusBadRequest, "application/json", `{"detail":"first","message":"second"}`, "first"},
		{"validation array", http.StatusUnprocessableEntity, "application/json", `{"detail":[{"loc":["body","email"],"msg":"field required"},{"msg":"too short"}]}`, "field required; too short"},
		{"non json body", http.StatusInternalServerError, "text/html", `<html>oops</html>`, "Internal Server Error"},
		{"empty body", http.StatusNotFound, "", ``, "Not Found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.contentType != "" {
					w.Header().Set("Content-Type", tc.contentType)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := New(srv.URL, nil).Get(context.Background(), "/x", nil, Options{})
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %T %v", err, err)
			}
			if apiErr.Status != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, apiErr.Status)
			}
			if apiErr.Detail != tc.wantDetail {
				t.Fatalf("expected detail %q got %q", tc.wantDetail, apiErr.Detail)
			}
			if apiErr.IsNetwork() {
				t.Fatal("http error reported as network error")
			}
		})
	}
}

func TestClientErrorMessageFormat(t *testing.T) {
	err := newHTTPError(404, "Not Found", nil)
	if err.Error() != "error 404: Not Found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url, nil).Get(context.Background(), "/x", nil, Options{})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if apiErr.Status != StatusNetwork || !apiErr.IsNetwork() {
		t.Fatalf("expected status 0, got %d", apiErr.Status)
	}
	if apiErr.Message != connectionErrorMessage {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
	if apiErr.Detail == "" {
		t.Fatal("expected underlying error text in detail")
	}
}

func TestClientCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(srv.URL, nil).Get(ctx, "/slow", nil, Options{Retries: 3})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Status != StatusNetwork {
			t.Fatalf("expected network error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled call did not return")
	}
}

func TestClientPerCallTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	err := New(srv.URL, nil).Get(context.Background(), "/slow", nil, Options{Timeout: 20 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClientRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	client.sleep = noSleep

	var out struct{ Status string }
	if err := client.Get(context.Background(), "/x", &out, Options{Retries: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	if out.Status != "ok" {
		t.Fatalf("unexpected body %+v", out)
	}
}

func TestClientDoesNotRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	client.sleep = noSleep

	if err := client.Get(context.Background(), "/x", nil, Options{}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := New(srv.URL, nil, WithDefaults(Options{Retries: 3}))
	client.sleep = noSleep

	if err := client.Get(context.Background(), "/x", nil, Options{}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 4xx not to be retried, got %d attempts", calls.Load())
	}
}

func TestClientNonJSONSuccessLeavesOutUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	out := map[string]string{"keep": "me"}
	if err := New(srv.URL, nil).Get(context.Background(), "/x", &out, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["keep"] != "me" || len(out) != 1 {
		t.Fatalf("expected out untouched, got %+v", out)
	}
}

type checkedPayload struct {
	ID string `json:"id"`
}

func (p checkedPayload) Validate() error {
	if p.ID == "" {
		return errors.New("id is missing")
	}
	return nil
}

func TestClientDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"id":`},
		{"wrong type", `{"id":42}`},
		{"schema violation", `{"id":""}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			var out checkedPayload
			err := New(srv.URL, nil).Get(context.Background(), "/video/analyses?user_id=u1", &out, Options{})
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T %v", err, err)
			}
			if decodeErr.Endpoint != "/video/analyses" {
				t.Fatalf("unexpected endpoint %q", decodeErr.Endpoint)
			}
			var apiErr *Error
			if errors.As(err, &apiErr) {
				t.Fatal("decode errors must not look like API errors")
			}
		})
	}
}

func TestClientRateLimiterFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	// A zero burst makes every Wait fail.
	client := New(srv.URL, nil, WithRateLimiter(rate.NewLimiter(rate.Limit(1), 0)), WithDefaults(Options{Retries: 3}))
	var slept atomic.Int32
	client.sleep = func(context.Context, time.Duration) error {
		slept.Add(1)
		return nil
	}

	err := client.Get(context.Background(), "/x", nil, Options{})
	if err == nil {
		t.Fatal("expected limiter error")
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		t.Fatalf("limiter failure must not look like a transport error, got %+v", apiErr)
	}
	if calls.Load() != 0 || slept.Load() != 0 {
		t.Fatalf("expected no request and no retry, got %d calls %d backoffs", calls.Load(), slept.Load())
	}
}
