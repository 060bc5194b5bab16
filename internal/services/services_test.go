package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/hookscontent/hooks/internal/apiclient"
	"github.com/hookscontent/hooks/internal/logging"
	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/session"
	"github.com/hookscontent/hooks/internal/validation"
)

type recordedRequest struct {
	Method string
	URL    string
	Auth   string
	Body   map[string]any
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func newFakeBackend(t *testing.T, handler http.HandlerFunc) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, URL: r.URL.String(), Auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		fb.mu.Lock()
		fb.requests = append(fb.requests, rec)
		fb.mu.Unlock()
		fb.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) Requests() []recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]recordedRequest(nil), fb.requests...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newStack(srvURL string) (*session.Store, *AuthService, *VideoService) {
	store := session.NewStore(session.NewMemoryStorage(), logging.Discard())
	client := apiclient.New(srvURL, store)
	v := validation.NewValidator()
	return store, NewAuthService(client, Endpoints{}, v), NewVideoService(client, Endpoints{}, v)
}

func TestSignUpThenAuthenticatedCallCarriesToken(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/signup":
			writeJSON(w, http.StatusOK, `{"status":"success","message":"Usuario registrado","data":{"user":{"id":"u1","email":"a@b.com"},"session":{"access_token":"tok1","refresh_token":"r1"}}}`)
		case "/video/analyses":
			writeJSON(w, http.StatusOK, `{"status":"success","data":[],"total":0}`)
		default:
			http.NotFound(w, r)
		}
	})

	store, authSvc, videoSvc := newStack(srv.URL)
	account := NewAccount(authSvc, store, logging.Discard())
	ctx := context.Background()

	user, err := account.SignUp(ctx, "a@b.com", "secret", "A B")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}
	if !store.IsAuthenticated(ctx) {
		t.Fatal("expected session to be stored")
	}

	if _, err := videoSvc.GetVideoAnalyses(ctx, user.ID, 10, 0); err != nil {
		t.Fatalf("list analyses: %v", err)
	}

	reqs := fb.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].Auth != "" {
		t.Fatalf("sign up must not carry a token, got %q", reqs[0].Auth)
	}
	if reqs[0].Body["full_name"] != "A B" || reqs[0].Body["email"] != "a@b.com" {
		t.Fatalf("unexpected sign up body %+v", reqs[0].Body)
	}
	if reqs[1].Auth != "Bearer tok1" {
		t.Fatalf("expected Bearer tok1, got %q", reqs[1].Auth)
	}
	if reqs[1].URL != "/video/analyses?user_id=u1&limit=10&offset=0" {
		t.Fatalf("unexpected list url %q", reqs[1].URL)
	}
}

func TestAnalyzeVideoRejectsUnsupportedURLWithoutRequest(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	_, _, videoSvc := newStack(srv.URL)

	for _, raw := range []string{"not-a-url", "https://vimeo.com/123", "ftp://youtube.com/x", "https://notyoutube.com/watch"} {
		_, err := videoSvc.AnalyzeVideo(context.Background(), raw)
		var vErr *validation.Error
		if !errors.As(err, &vErr) {
			t.Fatalf("%q: expected validation error, got %v", raw, err)
		}
		if _, ok := vErr.Field("url"); !ok {
			t.Fatalf("%q: expected url field error, got %+v", raw, vErr.Fields)
		}
	}

	if n := len(fb.Requests()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestAnalyzeVideo(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"success","transcript":"hola","hook":{"general":"g","used_in_video":"u","type":"Curiosidad"},"script_base":"s"}`)
	})
	_, _, videoSvc := newStack(srv.URL)

	got, err := videoSvc.AnalyzeVideo(context.Background(), " https://www.youtube.com/watch?v=abc ")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Hook.Text() != "u" || got.Transcript != "hola" {
		t.Fatalf("unexpected result %+v", got)
	}

	reqs := fb.Requests()
	if reqs[0].Auth != "" {
		t.Fatal("analyze is unauthenticated")
	}
	if reqs[0].Body["url"] != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("unexpected body %+v", reqs[0].Body)
	}
}

func TestListWithoutSessionIsSentAndMaps401(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"detail":"Not authenticated"}`)
	})
	_, _, videoSvc := newStack(srv.URL)

	_, err := videoSvc.GetVideoAnalyses(context.Background(), "u1", 10, 0)
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Detail != "Not authenticated" {
		t.Fatalf("unexpected error %+v", apiErr)
	}

	reqs := fb.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected the request to be sent, got %d", len(reqs))
	}
	if reqs[0].Auth != "" {
		t.Fatalf("expected no authorization header, got %q", reqs[0].Auth)
	}
	if Message(err, "fallback") != "Not authenticated" {
		t.Fatalf("unexpected message %q", Message(err, "fallback"))
	}
}

func TestListPagingDefaults(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"success","data":[],"total":0}`)
	})
	_, _, videoSvc := newStack(srv.URL)
	ctx := context.Background()

	if _, err := videoSvc.GetViralHooks(ctx, "u 1", 0, 5); err != nil {
		t.Fatalf("list hooks: %v", err)
	}
	if _, err := videoSvc.GetViralHooks(ctx, "u1", 10, -1); err == nil {
		t.Fatal("expected negative offset to be rejected")
	}
	if _, err := videoSvc.GetVideoAnalyses(ctx, " ", 10, 0); err == nil {
		t.Fatal("expected blank user id to be rejected")
	}

	reqs := fb.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected only the valid call to be sent, got %d", len(reqs))
	}
	if reqs[0].URL != "/video/hooks?user_id=u+1&limit=50&offset=5" {
		t.Fatalf("unexpected url %q", reqs[0].URL)
	}
}

func TestGenerateHooks(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"success","hooks":[{"text":"Nadie te dice esto","type":"Curiosidad","retention_score":87.5}]}`)
	})
	_, _, videoSvc := newStack(srv.URL)

	if _, err := videoSvc.GenerateHooks(context.Background(), "   ", "", ""); err == nil {
		t.Fatal("expected blank idea to be rejected")
	}

	got, err := videoSvc.GenerateHooks(context.Background(), "ahorro", "finanzas", "tiktok")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got.Hooks) != 1 || got.Hooks[0].RetentionScore != 87.5 {
		t.Fatalf("unexpected hooks %+v", got.Hooks)
	}

	reqs := fb.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(reqs))
	}
	if reqs[0].Body["nicho"] != "finanzas" || reqs[0].Body["platform"] != "tiktok" {
		t.Fatalf("unexpected body %+v", reqs[0].Body)
	}
}

func TestGenerateHooksRejectsOutOfRangeScore(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"success","hooks":[{"text":"x","type":"Racional","retention_score":140}]}`)
	})
	_, _, videoSvc := newStack(srv.URL)

	_, err := videoSvc.GenerateHooks(context.Background(), "idea", "", "")
	var decodeErr *apiclient.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestSaveCallsRequireAuth(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/video/save" {
			writeJSON(w, http.StatusOK, `{"status":"success","message":"ok","analysis_id":"a1"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":"success","message":"ok","hook_id":"h1"}`)
	})
	store, _, videoSvc := newStack(srv.URL)
	ctx := context.Background()
	store.Save(ctx, models.AuthData{User: models.User{ID: "u1"}, Session: models.Session{AccessToken: "tok"}})

	saved, err := videoSvc.SaveVideoAnalysis(ctx, models.VideoAnalysisSaveRequest{
		UserID:   "u1",
		VideoURL: "https://youtu.be/abc",
		Hook:     &models.Hook{General: "g"},
	})
	if err != nil {
		t.Fatalf("save analysis: %v", err)
	}
	if saved.ID() != "a1" {
		t.Fatalf("unexpected id %q", saved.ID())
	}

	score := 72.0
	hook, err := videoSvc.SaveViralHook(ctx, models.ViralHookSaveRequest{
		UserID:         "u1",
		IdeaInput:      "idea",
		HookText:       "hook",
		RetentionScore: &score,
	})
	if err != nil {
		t.Fatalf("save hook: %v", err)
	}
	if hook.ID() != "h1" {
		t.Fatalf("unexpected id %q", hook.ID())
	}

	for _, req := range fb.Requests() {
		if req.Auth != "Bearer tok" {
			t.Fatalf("%s: expected bearer token, got %q", req.URL, req.Auth)
		}
	}

	bad := 101.0
	if _, err := videoSvc.SaveViralHook(ctx, models.ViralHookSaveRequest{UserID: "u1", IdeaInput: "i", HookText: "h", RetentionScore: &bad}); err == nil {
		t.Fatal("expected out of range score to be rejected")
	}
}

func TestSignInFailureLeavesSessionUntouched(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"detail":"Invalid login credentials"}`)
	})
	store, authSvc, _ := newStack(srv.URL)
	account := NewAccount(authSvc, store, logging.Discard())
	ctx := context.Background()

	_, err := account.SignIn(ctx, "a@b.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if Message(err, "Error signing in") != "Invalid login credentials" {
		t.Fatalf("unexpected message %q", Message(err, "Error signing in"))
	}
	if store.IsAuthenticated(ctx) {
		t.Fatal("failed sign in must not store a session")
	}
	if _, ok := account.Current(ctx); ok {
		t.Fatal("expected no current user")
	}
}

func TestAccountSignOut(t *testing.T) {
	_, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"success","data":{"user":{"id":"u2","email":"c@d.com"},"session":{"access_token":"tok2"}}}`)
	})
	store, authSvc, _ := newStack(srv.URL)
	account := NewAccount(authSvc, store, logging.Discard())
	ctx := context.Background()

	if _, err := account.SignIn(ctx, "c@d.com", "secret"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if user, ok := account.Current(ctx); !ok || user.Email != "c@d.com" {
		t.Fatalf("unexpected current user %+v ok=%v", user, ok)
	}

	account.SignOut(ctx)
	if _, ok := account.Current(ctx); ok {
		t.Fatal("expected sign out to clear the session")
	}
}

func TestSignUpValidation(t *testing.T) {
	fb, srv := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	_, authSvc, _ := newStack(srv.URL)

	_, err := authSvc.SignUp(context.Background(), "a@b.com", "123", "A")
	if Message(err, "") != "password must be at least 6 characters" {
		t.Fatalf("unexpected message %q", Message(err, ""))
	}
	if len(fb.Requests()) != 0 {
		t.Fatal("invalid sign up must not reach the server")
	}
}

func TestMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "fallback"},
		{"plain", errors.New("boom"), "boom"},
		{"decode", &apiclient.DecodeError{Endpoint: "/x", Err: errors.New("bad")}, "fallback"},
		{"validation", validation.New("url", "enter a valid URL"), "enter a valid URL"},
		{"http", &apiclient.Error{Message: "error 404: Not Found", Status: 404, Detail: "Not Found"}, "Not Found"},
		{"network", &apiclient.Error{Message: "connection error with the server", Status: apiclient.StatusNetwork, Detail: "dial tcp: connection refused"}, "dial tcp: connection refused"},
		{"empty detail", &apiclient.Error{Message: "error 500: ", Status: 500}, "fallback"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Message(tc.err, "fallback"); got != tc.want {
				t.Fatalf("Message() = %q want %q", got, tc.want)
			}
		})
	}
}

func TestMessageShowsTransportDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	_, _, videoSvc := newStack(url)

	_, err := videoSvc.GetVideoAnalyses(context.Background(), "u1", 10, 0)
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || !apiErr.IsNetwork() {
		t.Fatalf("expected network error, got %v", err)
	}
	if got := Message(err, "fallback"); got != apiErr.Detail || got == apiErr.Message {
		t.Fatalf("expected transport detail %q, got %q", apiErr.Detail, got)
	}
}
