package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linguala/linguala/internal/cache"
	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/idp"
	"github.com/linguala/linguala/internal/idp/dev"
	"github.com/linguala/linguala/internal/sessionlog"
	"github.com/linguala/linguala/internal/store/core"
	"github.com/linguala/linguala/internal/store/memory"
	syncsvc "github.com/linguala/linguala/internal/sync"
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

type countingNotifier struct {
	calls atomic.Int32
}

func (n *countingNotifier) NotifyLinked(context.Context, string, string, string) error {
	n.calls.Add(1)
	return nil
}

// harness arma el camino completo: cuenta password existente y un
// intento de acceso con Google sobre el mismo email.
type harness struct {
	gw       idp.Gateway
	svc      *Service
	recorder *sessionlog.Recorder
	repo     core.Repository
	notifier *countingNotifier
	uid      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	accounts := dev.New()
	google := &fakeSocial{identity: idp.SocialIdentity{
		ProviderID:  types.ProviderGoogle,
		Subject:     "g-ana",
		Email:       "ana@example.com",
		DisplayName: "Ana G",
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
	notifier := &countingNotifier{}
	svc := New(Deps{
		Gateway:  gw,
		Sync:     sync,
		Recorder: recorder,
		Cache:    c,
		Notifier: notifier,
	})

	res, err := gw.SignUp(context.Background(), "ana@example.com", "secret123", "Ana", "García")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	return &harness{gw: gw, svc: svc, recorder: recorder, repo: repo, notifier: notifier, uid: res.Profile.UID}
}

// conflict dispara el acceso con Google y devuelve el flujo abierto.
func (h *harness) conflict(t *testing.T) *Flow {
	t.Helper()
	ctx := context.Background()

	start, err := h.gw.StartProviderFlow(ctx, types.ProviderGoogle, idp.ModeSignIn, "")
	if err != nil {
		t.Fatalf("StartProviderFlow: %v", err)
	}
	_, err = h.gw.CompleteProviderFlow(ctx, start.State, "code")
	if !idp.IsKind(err, idp.KindAccountConflict) {
		t.Fatalf("kind = %v, want account_conflict", idp.KindOf(err))
	}
	f, err := h.svc.OnConflict(ctx, err, "test-agent")
	if err != nil {
		t.Fatalf("OnConflict: %v", err)
	}
	return f
}

func TestConflictOpensFlow(t *testing.T) {
	h := newHarness(t)
	f := h.conflict(t)

	if f.State != StateAwaitingReauth {
		t.Errorf("state = %q", f.State)
	}
	if f.Email != "ana@example.com" || f.Provider != types.ProviderGoogle {
		t.Errorf("flow = %+v", f)
	}
	if len(f.Methods) != 1 || f.Methods[0] != types.ProviderPassword {
		t.Errorf("methods = %v", f.Methods)
	}

	got, err := h.svc.Get(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != f.ID {
		t.Errorf("Get devolvió otro flujo: %+v", got)
	}
}

func TestOnConflictRejectsOtherErrors(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.OnConflict(context.Background(), idp.E(idp.KindNetwork, "boom"), "")
	if !errors.Is(err, ErrNotAConflict) {
		t.Fatalf("err = %v, want ErrNotAConflict", err)
	}
}

func TestResolveWithPassword(t *testing.T) {
	h := newHarness(t)
	f := h.conflict(t)
	ctx := context.Background()

	res, err := h.svc.ResolveWithPassword(ctx, f.ID, "secret123")
	if err != nil {
		t.Fatalf("ResolveWithPassword: %v", err)
	}
	if res.LinkedProvider != types.ProviderGoogle {
		t.Errorf("linkedProvider = %q", res.LinkedProvider)
	}
	if res.UserID != h.uid {
		t.Errorf("userID = %q, want %q", res.UserID, h.uid)
	}
	if len(res.Methods) != 2 {
		t.Errorf("methods = %v, want password y google", res.Methods)
	}

	// El flujo se consumió.
	if _, err := h.svc.Get(ctx, f.ID); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("Get tras resolver: %v, want ErrFlowNotFound", err)
	}

	// El perfil quedó con ambos providers.
	u, err := h.repo.GetUser(ctx, h.uid)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !u.HasProvider(types.ProviderPassword) || !u.HasProvider(types.ProviderGoogle) {
		t.Errorf("providers = %v", u.Providers)
	}

	// Historial: un login y una vinculación.
	if err := h.recorder.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	events, err := h.recorder.History(ctx, core.SessionEventFilter{UserID: h.uid})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	var logins, links int
	for _, ev := range events {
		if ev.IsLinkAction {
			links++
		} else {
			logins++
		}
	}
	if logins != 1 || links != 1 {
		t.Errorf("logins = %d, links = %d, want 1 y 1", logins, links)
	}
}

func TestResolveWrongPasswordKeepsFlow(t *testing.T) {
	h := newHarness(t)
	f := h.conflict(t)
	ctx := context.Background()

	_, err := h.svc.ResolveWithPassword(ctx, f.ID, "incorrecta")
	if !idp.IsKind(err, idp.KindInvalidCredential) {
		t.Fatalf("kind = %v, want invalid_credential", idp.KindOf(err))
	}

	// El flujo sigue vivo y admite reintento.
	got, err := h.svc.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", got.Attempts)
	}
	if _, err := h.svc.ResolveWithPassword(ctx, f.ID, "secret123"); err != nil {
		t.Fatalf("reintento correcto: %v", err)
	}
}

func TestResolveExhaustsAttempts(t *testing.T) {
	h := newHarness(t)
	f := h.conflict(t)
	ctx := context.Background()

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		_, lastErr = h.svc.ResolveWithPassword(ctx, f.ID, "incorrecta")
	}
	if !errors.Is(lastErr, ErrTooManyAttempts) {
		t.Fatalf("err = %v, want ErrTooManyAttempts", lastErr)
	}
	if _, err := h.svc.Get(ctx, f.ID); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("el flujo debe descartarse al agotar intentos, got %v", err)
	}
}

func TestAbandonLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	f := h.conflict(t)
	ctx := context.Background()

	if err := h.svc.Abandon(ctx, f.ID); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if _, err := h.svc.Get(ctx, f.ID); !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("Get tras abandonar: %v", err)
	}

	// Ni el perfil ni el historial registran nada. La cuenta vive solo
	// en el identity provider; sin sync previo no debe existir documento.
	u, err := h.repo.GetUser(ctx, h.uid)
	switch {
	case errors.Is(err, core.ErrNotFound):
		// sin perfil, sin rastro
	case err != nil:
		t.Fatalf("GetUser: %v", err)
	case u.HasProvider(types.ProviderGoogle):
		t.Errorf("abandonar no debe vincular: %v", u.Providers)
	}
	events, err := h.recorder.History(ctx, core.SessionEventFilter{UserID: h.uid})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("abandonar no debe dejar eventos: %+v", events)
	}
}

func TestResolveUnknownFlow(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ResolveWithPassword(context.Background(), "no-existe", "x")
	if !errors.Is(err, ErrFlowNotFound) {
		t.Fatalf("err = %v, want ErrFlowNotFound", err)
	}
}

func TestNotifierCalledOnResolve(t *testing.T) {
	h := newHarness(t)
	f := h.conflict(t)

	if _, err := h.svc.ResolveWithPassword(context.Background(), f.ID, "secret123"); err != nil {
		t.Fatalf("ResolveWithPassword: %v", err)
	}
	// El aviso es asíncrono.
	deadline := time.Now().Add(2 * time.Second)
	for h.notifier.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.notifier.calls.Load() != 1 {
		t.Errorf("notifier calls = %d, want 1", h.notifier.calls.Load())
	}
}
