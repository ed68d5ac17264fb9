package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "github.com/linguala/linguala/internal/auth"
	"github.com/linguala/linguala/internal/cache"
	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/http/router"
	"github.com/linguala/linguala/internal/idp"
	"github.com/linguala/linguala/internal/idp/dev"
	"github.com/linguala/linguala/internal/jwt"
	lessonssvc "github.com/linguala/linguala/internal/lessons"
	reconcilesvc "github.com/linguala/linguala/internal/reconcile"
	"github.com/linguala/linguala/internal/sessionlog"
	"github.com/linguala/linguala/internal/store/core"
	"github.com/linguala/linguala/internal/store/memory"
	syncsvc "github.com/linguala/linguala/internal/sync"
	userssvc "github.com/linguala/linguala/internal/users"
)

type fakeSocial struct {
	identity idp.SocialIdentity
}

func (f *fakeSocial) ProviderID() string { return f.identity.ProviderID }

func (f *fakeSocial) AuthURL(_ context.Context, state, _ string) (string, error) {
	return "https://idp.example/authorize?state=" + state, nil
}

func (f *fakeSocial) Exchange(context.Context, string, string) (*idp.SocialIdentity, error) {
	out := f.identity
	return &out, nil
}

type api struct {
	srv      *httptest.Server
	repo     core.Repository
	recorder *sessionlog.Recorder
}

func newAPI(t *testing.T) *api {
	t.Helper()

	accounts := dev.New()
	google := &fakeSocial{identity: idp.SocialIdentity{
		ProviderID:  types.ProviderGoogle,
		Subject:     "g-ana",
		Email:       "ana@example.com",
		DisplayName: "Ana García",
	}}
	c := cache.NewMemory(time.Minute)
	gw := idp.New(idp.Deps{
		Accounts: accounts,
		Clients:  map[string]idp.SocialClient{types.ProviderGoogle: google},
		Cache:    c,
		State: &idp.StateSigner{
			Secret: []byte("test-secret-0123456789abcdef0123"),
			Issuer: "linguala-test",
			TTL:    time.Minute,
		},
	})

	repo := memory.New()
	sync := syncsvc.New(repo)
	recorder := sessionlog.New(repo, time.Second)
	issuer := jwt.NewIssuer("linguala-test", []byte("session-secret-0123456789abcdef"))
	rec := reconcilesvc.New(reconcilesvc.Deps{
		Gateway:  gw,
		Sync:     sync,
		Recorder: recorder,
		Cache:    c,
	})
	auth := authsvc.New(authsvc.Deps{
		Gateway:   gw,
		Sync:      sync,
		Recorder:  recorder,
		Reconcile: rec,
		Issuer:    issuer,
		Repo:      repo,
	})

	h := router.New(router.Deps{
		Auth:      auth,
		Reconcile: rec,
		Lessons:   lessonssvc.New(repo),
		Users:     userssvc.New(repo),
		Recorder:  recorder,
		Issuer:    issuer,
		Repo:      repo,
		Cache:     c,
		Version:   "test",
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &api{srv: srv, repo: repo, recorder: recorder}
}

func (a *api) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (a *api) register(t *testing.T, email, password string) (token, uid string) {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": email, "password": password, "first_name": "Ana", "last_name": "García",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, body = %v", resp.StatusCode, body)
	}
	user := body["user"].(map[string]any)
	return body["token"].(string), user["uid"].(string)
}

func TestRegisterAndLogin(t *testing.T) {
	a := newAPI(t)

	token, _ := a.register(t, "ana@example.com", "secret123")
	if token == "" {
		t.Fatal("register no devolvió token")
	}

	resp, body := a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body = %v", resp.StatusCode, body)
	}
	if body["token_type"] != "Bearer" || body["provider"] != types.ProviderPassword {
		t.Errorf("body = %v", body)
	}
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", resp.Header.Get("Cache-Control"))
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	a := newAPI(t)
	a.register(t, "ana@example.com", "secret123")

	resp, body := a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "incorrecta",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["code"] != "INVALID_CREDENTIALS" {
		t.Errorf("code = %v", body["code"])
	}
}

func TestMeRequiresToken(t *testing.T) {
	a := newAPI(t)

	resp, body := a.do(t, http.MethodGet, "/v1/auth/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["code"] != "TOKEN_MISSING" {
		t.Errorf("code = %v", body["code"])
	}

	token, uid := a.register(t, "ana@example.com", "secret123")
	resp, body = a.do(t, http.MethodGet, "/v1/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["uid"] != uid {
		t.Errorf("uid = %v, want %v", body["uid"], uid)
	}
}

func TestSocialConflictAndResolveOverHTTP(t *testing.T) {
	a := newAPI(t)
	a.register(t, "ana@example.com", "secret123")

	// Paso 1: iniciar el flujo federado.
	resp, body := a.do(t, http.MethodGet, "/v1/auth/social/google/start", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d, body = %v", resp.StatusCode, body)
	}
	state := body["state"].(string)

	// Paso 2: el callback choca con la cuenta password existente.
	resp, body = a.do(t, http.MethodGet, "/v1/auth/social/callback?state="+state+"&code=xyz", "", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("callback status = %d, body = %v", resp.StatusCode, body)
	}
	if body["code"] != "ACCOUNT_CONFLICT" {
		t.Fatalf("code = %v", body["code"])
	}
	flowID := body["flow_id"].(string)
	methods := body["methods"].([]any)
	if len(methods) != 1 || methods[0] != types.ProviderPassword {
		t.Errorf("methods = %v", methods)
	}

	// Paso 3: password incorrecta deja el flujo vivo.
	resp, body = a.do(t, http.MethodPost, "/v1/reconcile/flows/"+flowID+"/resolve", "", map[string]string{"password": "incorrecta"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("resolve status = %d, body = %v", resp.StatusCode, body)
	}
	resp, _ = a.do(t, http.MethodGet, "/v1/reconcile/flows/"+flowID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("el flujo debe seguir vivo, status = %d", resp.StatusCode)
	}

	// Paso 4: resolución correcta emite sesión con ambos métodos.
	resp, body = a.do(t, http.MethodPost, "/v1/reconcile/flows/"+flowID+"/resolve", "", map[string]string{"password": "secret123"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve status = %d, body = %v", resp.StatusCode, body)
	}
	user := body["user"].(map[string]any)
	providers := user["providers"].([]any)
	if len(providers) != 2 {
		t.Errorf("providers = %v", providers)
	}

	// El flujo se consumió.
	resp, _ = a.do(t, http.MethodGet, "/v1/reconcile/flows/"+flowID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("flujo consumido, status = %d", resp.StatusCode)
	}
}

func TestSocialSignInNewUser(t *testing.T) {
	a := newAPI(t)

	_, body := a.do(t, http.MethodGet, "/v1/auth/social/google/start", "", nil)
	state := body["state"].(string)

	resp, body := a.do(t, http.MethodGet, "/v1/auth/social/callback?state="+state+"&code=xyz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["is_new_user"] != true || body["provider"] != types.ProviderGoogle {
		t.Errorf("body = %v", body)
	}
}

func TestCallbackProviderError(t *testing.T) {
	a := newAPI(t)

	resp, body := a.do(t, http.MethodGet, "/v1/auth/social/callback?error=access_denied", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["code"] != "ACCESS_CANCELLED" {
		t.Errorf("code = %v", body["code"])
	}
}

func TestLessonsCRUD(t *testing.T) {
	a := newAPI(t)
	token, _ := a.register(t, "ana@example.com", "secret123")

	// Sin token no hay catálogo.
	resp, _ := a.do(t, http.MethodGet, "/v1/lessons/", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status sin token = %d", resp.StatusCode)
	}

	resp, body := a.do(t, http.MethodPost, "/v1/lessons/", token, map[string]string{
		"title": "Saludos básicos", "language": "ingles", "level": types.LevelBeginner,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", resp.StatusCode, body)
	}
	if body["status"] != types.LessonPending {
		t.Errorf("status inicial = %v", body["status"])
	}
	id := body["id"].(string)

	resp, body = a.do(t, http.MethodPost, "/v1/lessons/"+id+"/complete", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d", resp.StatusCode)
	}
	if body["status"] != types.LessonCompleted {
		t.Errorf("status = %v", body["status"])
	}

	// Idioma fuera del catálogo.
	resp, body = a.do(t, http.MethodPost, "/v1/lessons/", token, map[string]string{
		"title": "Klingon I", "language": "klingon", "level": types.LevelBeginner,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
}

func TestAdminGuard(t *testing.T) {
	a := newAPI(t)
	token, uid := a.register(t, "ana@example.com", "secret123")

	resp, body := a.do(t, http.MethodGet, "/v1/admin/users/", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}

	// Promover a admin y reloguear: el rol viaja en el token.
	admin := types.RoleAdmin
	if _, err := a.repo.UpdateUser(context.Background(), uid, core.UserUpdate{Role: &admin}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	_, body = a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret123",
	})
	adminToken := body["token"].(string)

	resp, body = a.do(t, http.MethodGet, "/v1/admin/users/", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if int(body["total"].(float64)) != 1 {
		t.Errorf("total = %v", body["total"])
	}
}

func TestSessionHistoryOwnEvents(t *testing.T) {
	a := newAPI(t)
	token, uid := a.register(t, "ana@example.com", "secret123")

	if err := a.recorder.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	resp, body := a.do(t, http.MethodGet, "/v1/sessions/history", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	events := body["events"].([]any)
	if len(events) != 1 {
		t.Fatalf("events = %v", events)
	}
	ev := events[0].(map[string]any)
	if ev["user_id"] != uid || ev["provider"] != types.ProviderPassword {
		t.Errorf("event = %v", ev)
	}
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)

	resp, body := a.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}

	resp, body = a.do(t, http.MethodGet, "/readyz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status = %d, body = %v", resp.StatusCode, body)
	}
}
