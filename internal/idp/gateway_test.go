package idp_test

import (
	"context"
	"testing"
	"time"

	"github.com/linguala/linguala/internal/cache"
	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/idp"
	"github.com/linguala/linguala/internal/idp/dev"
)

// fakeSocial simula un provider federado que siempre devuelve la misma
// identidad tras el canje.
type fakeSocial struct {
	providerID string
	identity   idp.SocialIdentity
}

func (f *fakeSocial) ProviderID() string { return f.providerID }

func (f *fakeSocial) AuthURL(_ context.Context, state, _ string) (string, error) {
	return "https://idp.example/authorize?state=" + state, nil
}

func (f *fakeSocial) Exchange(_ context.Context, _, _ string) (*idp.SocialIdentity, error) {
	out := f.identity
	return &out, nil
}

func newGateway(t *testing.T, accounts idp.AccountAPI, clients map[string]idp.SocialClient) idp.Gateway {
	t.Helper()
	return idp.New(idp.Deps{
		Accounts: accounts,
		Clients:  clients,
		Cache:    cache.NewMemory(time.Minute),
		State: &idp.StateSigner{
			Secret: []byte("test-secret-0123456789abcdef0123"),
			Issuer: "linguala-test",
			TTL:    time.Minute,
		},
	})
}

func TestSignInWithPassword(t *testing.T) {
	accounts := dev.New()
	gw := newGateway(t, accounts, nil)
	ctx := context.Background()

	if _, err := gw.SignUp(ctx, "ana@example.com", "secret123", "Ana", "García"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	res, err := gw.SignInWithPassword(ctx, "Ana@Example.com", "secret123")
	if err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}
	if res.Profile.Email != "ana@example.com" {
		t.Errorf("email = %q, want normalizado", res.Profile.Email)
	}
	if res.Profile.DisplayName != "Ana García" {
		t.Errorf("displayName = %q", res.Profile.DisplayName)
	}
	if res.IsNewUser {
		t.Error("IsNewUser debe ser false en sign-in")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	accounts := dev.New()
	gw := newGateway(t, accounts, nil)
	ctx := context.Background()

	if _, err := gw.SignUp(ctx, "ana@example.com", "secret123", "Ana", ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	_, err := gw.SignInWithPassword(ctx, "ana@example.com", "nope")
	if !idp.IsKind(err, idp.KindInvalidCredential) {
		t.Fatalf("kind = %v, want invalid_credential", idp.KindOf(err))
	}
	_, err = gw.SignInWithPassword(ctx, "nadie@example.com", "nope")
	if !idp.IsKind(err, idp.KindInvalidCredential) {
		t.Fatalf("kind = %v, want invalid_credential para email desconocido", idp.KindOf(err))
	}
}

func TestSignInValidation(t *testing.T) {
	gw := newGateway(t, dev.New(), nil)
	ctx := context.Background()

	if _, err := gw.SignInWithPassword(ctx, "no-es-email", "x"); !idp.IsKind(err, idp.KindValidation) {
		t.Fatalf("kind = %v, want validation", idp.KindOf(err))
	}
	if _, err := gw.SignInWithPassword(ctx, "a@example.com", ""); !idp.IsKind(err, idp.KindValidation) {
		t.Fatalf("kind = %v, want validation para password vacío", idp.KindOf(err))
	}
}

func TestSignUpDuplicateListsMethods(t *testing.T) {
	accounts := dev.New()
	gw := newGateway(t, accounts, nil)
	ctx := context.Background()

	if _, err := gw.SignUp(ctx, "ana@example.com", "secret123", "Ana", ""); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, err := gw.SignUp(ctx, "ana@example.com", "otra456", "Ana", "")
	if !idp.IsKind(err, idp.KindAccountConflict) {
		t.Fatalf("kind = %v, want account_conflict", idp.KindOf(err))
	}
	e := idp.AsError(err)
	if len(e.Methods) != 1 || e.Methods[0] != types.ProviderPassword {
		t.Errorf("methods = %v, want [password]", e.Methods)
	}
}

func TestProviderFlowNewUser(t *testing.T) {
	accounts := dev.New()
	google := &fakeSocial{
		providerID: types.ProviderGoogle,
		identity: idp.SocialIdentity{
			ProviderID:  types.ProviderGoogle,
			Subject:     "g-sub-1",
			Email:       "leo@example.com",
			DisplayName: "Leo Pérez",
			PhotoURL:    "https://photos.example/leo.png",
		},
	}
	gw := newGateway(t, accounts, map[string]idp.SocialClient{types.ProviderGoogle: google})
	ctx := context.Background()

	start, err := gw.StartProviderFlow(ctx, types.ProviderGoogle, idp.ModeSignIn, "")
	if err != nil {
		t.Fatalf("StartProviderFlow: %v", err)
	}
	if start.AuthURL == "" || start.State == "" || start.FlowID == "" {
		t.Fatalf("FlowStart incompleto: %+v", start)
	}

	res, err := gw.CompleteProviderFlow(ctx, start.State, "auth-code")
	if err != nil {
		t.Fatalf("CompleteProviderFlow: %v", err)
	}
	if !res.IsNewUser {
		t.Error("primer acceso federado debe crear la cuenta")
	}
	if res.Profile.ProviderID != types.ProviderGoogle {
		t.Errorf("providerID = %q", res.Profile.ProviderID)
	}
	if res.IsLink {
		t.Error("IsLink debe ser false en modo signin")
	}
}

func TestProviderFlowReplayRejected(t *testing.T) {
	accounts := dev.New()
	google := &fakeSocial{
		providerID: types.ProviderGoogle,
		identity:   idp.SocialIdentity{ProviderID: types.ProviderGoogle, Subject: "g-1", Email: "leo@example.com"},
	}
	gw := newGateway(t, accounts, map[string]idp.SocialClient{types.ProviderGoogle: google})
	ctx := context.Background()

	start, err := gw.StartProviderFlow(ctx, types.ProviderGoogle, idp.ModeSignIn, "")
	if err != nil {
		t.Fatalf("StartProviderFlow: %v", err)
	}
	if _, err := gw.CompleteProviderFlow(ctx, start.State, "code"); err != nil {
		t.Fatalf("primer callback: %v", err)
	}
	_, err = gw.CompleteProviderFlow(ctx, start.State, "code")
	if !idp.IsKind(err, idp.KindValidation) {
		t.Fatalf("callback rejugado: kind = %v, want validation", idp.KindOf(err))
	}
}

func TestUnknownProviderRejected(t *testing.T) {
	gw := newGateway(t, dev.New(), nil)
	_, err := gw.StartProviderFlow(context.Background(), "twitter.com", idp.ModeSignIn, "")
	if !idp.IsKind(err, idp.KindValidation) {
		t.Fatalf("kind = %v, want validation", idp.KindOf(err))
	}
}

// TestConflictAndLink cubre el ciclo completo de reconciliación: acceso
// federado sobre un email ya registrado con password, captura de la
// credencial pendiente, vinculación y reuso imposible.
func TestConflictAndLink(t *testing.T) {
	accounts := dev.New()
	google := &fakeSocial{
		providerID: types.ProviderGoogle,
		identity: idp.SocialIdentity{
			ProviderID:  types.ProviderGoogle,
			Subject:     "g-ana",
			Email:       "ana@example.com",
			DisplayName: "Ana G",
			PhotoURL:    "https://photos.example/ana.png",
		},
	}
	gw := newGateway(t, accounts, map[string]idp.SocialClient{types.ProviderGoogle: google})
	ctx := context.Background()

	signup, err := gw.SignUp(ctx, "ana@example.com", "secret123", "Ana", "")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	uid := signup.Profile.UID

	// Paso 1: el acceso con Google choca con la cuenta password.
	start, err := gw.StartProviderFlow(ctx, types.ProviderGoogle, idp.ModeSignIn, "")
	if err != nil {
		t.Fatalf("StartProviderFlow: %v", err)
	}
	_, err = gw.CompleteProviderFlow(ctx, start.State, "code")
	if !idp.IsKind(err, idp.KindAccountConflict) {
		t.Fatalf("kind = %v, want account_conflict", idp.KindOf(err))
	}
	conflict := idp.AsError(err)
	if conflict.CredentialID == "" {
		t.Fatal("el conflicto debe capturar una credencial pendiente")
	}
	if len(conflict.Methods) != 1 || conflict.Methods[0] != types.ProviderPassword {
		t.Errorf("methods = %v, want [password]", conflict.Methods)
	}

	// Paso 2: tras reautenticar con password, se vincula la pendiente.
	res, err := gw.LinkCredential(ctx, uid, conflict.CredentialID)
	if err != nil {
		t.Fatalf("LinkCredential: %v", err)
	}
	if !res.IsLink {
		t.Error("IsLink debe ser true tras vincular")
	}
	if res.Profile.UID != uid {
		t.Errorf("uid = %q, want %q", res.Profile.UID, uid)
	}

	methods, err := gw.FetchSignInMethods(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("FetchSignInMethods: %v", err)
	}
	if len(methods) != 2 {
		t.Errorf("methods = %v, want password y google", methods)
	}

	// Paso 3: la credencial es de un solo uso.
	_, err = gw.LinkCredential(ctx, uid, conflict.CredentialID)
	if !idp.IsKind(err, idp.KindValidation) {
		t.Fatalf("reuso de credencial: kind = %v, want validation", idp.KindOf(err))
	}

	// Paso 4: el siguiente acceso con Google entra directo a la misma
	// cuenta.
	start2, err := gw.StartProviderFlow(ctx, types.ProviderGoogle, idp.ModeSignIn, "")
	if err != nil {
		t.Fatalf("StartProviderFlow: %v", err)
	}
	res2, err := gw.CompleteProviderFlow(ctx, start2.State, "code")
	if err != nil {
		t.Fatalf("CompleteProviderFlow tras vincular: %v", err)
	}
	if res2.Profile.UID != uid {
		t.Errorf("uid = %q, want %q", res2.Profile.UID, uid)
	}
	if res2.IsNewUser {
		t.Error("no debe crear cuenta nueva tras vincular")
	}
}

func TestLinkModeAlreadyLinked(t *testing.T) {
	accounts := dev.New()
	google := &fakeSocial{
		providerID: types.ProviderGoogle,
		identity:   idp.SocialIdentity{ProviderID: types.ProviderGoogle, Subject: "g-1", Email: "leo@example.com"},
	}
	gw := newGateway(t, accounts, map[string]idp.SocialClient{types.ProviderGoogle: google})
	ctx := context.Background()

	// Primer flujo crea la cuenta con Google.
	start, err := gw.StartProviderFlow(ctx, types.ProviderGoogle, idp.ModeSignIn, "")
	if err != nil {
		t.Fatalf("StartProviderFlow: %v", err)
	}
	first, err := gw.CompleteProviderFlow(ctx, start.State, "code")
	if err != nil {
		t.Fatalf("CompleteProviderFlow: %v", err)
	}

	// Vincular el mismo provider otra vez se señala como already_linked;
	// la capa de auth lo consume como éxito no-op, nunca como fallo.
	link, err := gw.StartProviderFlow(ctx, types.ProviderGoogle, idp.ModeLink, first.Profile.UID)
	if err != nil {
		t.Fatalf("StartProviderFlow(link): %v", err)
	}
	_, err = gw.CompleteProviderFlow(ctx, link.State, "code")
	if !idp.IsKind(err, idp.KindAlreadyLinked) {
		t.Fatalf("kind = %v, want already_linked", idp.KindOf(err))
	}
}

func TestUnlinkLastMethodRejected(t *testing.T) {
	accounts := dev.New()
	gw := newGateway(t, accounts, nil)
	ctx := context.Background()

	res, err := gw.SignUp(ctx, "ana@example.com", "secret123", "Ana", "")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	err = gw.Unlink(ctx, res.Profile.UID, types.ProviderPassword)
	if !idp.IsKind(err, idp.KindValidation) {
		t.Fatalf("kind = %v, want validation al quitar el último método", idp.KindOf(err))
	}
}

func TestFetchSignInMethodsUnknownEmail(t *testing.T) {
	gw := newGateway(t, dev.New(), nil)
	methods, err := gw.FetchSignInMethods(context.Background(), "nadie@example.com")
	if err != nil {
		t.Fatalf("FetchSignInMethods: %v", err)
	}
	if len(methods) != 0 {
		t.Errorf("methods = %v, want vacío", methods)
	}
}
