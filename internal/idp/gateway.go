package idp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/linguala/linguala/internal/cache"
	"github.com/linguala/linguala/internal/observability/logger"
	"github.com/linguala/linguala/internal/validation"
)

// Prefijos de keys en cache.
const (
	credKeyPrefix = "idp:cred:"
	flowKeyPrefix = "idp:flow:"
)

// Deps contiene las dependencias del gateway.
type Deps struct {
	Accounts AccountAPI
	// Clients indexa los clientes federados por provider ID.
	Clients map[string]SocialClient
	Cache   cache.Client
	State   *StateSigner

	// CredentialTTL limita la vida de una credencial pendiente.
	// Default: 10 minutos.
	CredentialTTL time.Duration
	// FlowTTL limita la vida de un flujo federado en curso.
	// Default: 15 minutos.
	FlowTTL time.Duration
}

type gateway struct {
	accounts AccountAPI
	clients  map[string]SocialClient
	cache    cache.Client
	state    *StateSigner
	credTTL  time.Duration
	flowTTL  time.Duration
}

// New crea el Gateway.
func New(d Deps) Gateway {
	if d.CredentialTTL <= 0 {
		d.CredentialTTL = 10 * time.Minute
	}
	if d.FlowTTL <= 0 {
		d.FlowTTL = 15 * time.Minute
	}
	return &gateway{
		accounts: d.Accounts,
		clients:  d.Clients,
		cache:    d.Cache,
		state:    d.State,
		credTTL:  d.CredentialTTL,
		flowTTL:  d.FlowTTL,
	}
}

// flowRecord es el estado servidor de un flujo federado en curso.
type flowRecord struct {
	FlowID   string    `json:"flowId"`
	Provider string    `json:"provider"`
	Mode     string    `json:"mode"`
	UID      string    `json:"uid,omitempty"`
	Nonce    string    `json:"nonce"`
	Started  time.Time `json:"started"`
}

func (g *gateway) SignInWithPassword(ctx context.Context, email, password string) (*Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("idp.gateway"), logger.Op("SignInWithPassword"))

	// Paso 1: validar input antes de tocar la red.
	email = validation.NormalizeEmail(email)
	if !validation.ValidEmail(email) {
		return nil, &Error{Kind: KindValidation, Detail: "email inválido"}
	}
	if password == "" {
		return nil, &Error{Kind: KindValidation, Detail: "password requerido"}
	}

	// Paso 2: autenticar contra el backend de cuentas.
	profile, err := g.accounts.SignIn(ctx, email, password)
	if err != nil {
		nerr := normalize("password", email, err)
		if nerr.Kind == KindInvalidCredential {
			log.Warn("credencial inválida", logger.Email(email))
		} else {
			log.Error("sign-in falló", logger.Email(email), logger.Err(err))
		}
		return nil, nerr
	}

	log.Info("acceso con password", logger.UserID(profile.UID), logger.Email(email))
	return &Result{Profile: *profile}, nil
}

func (g *gateway) SignUp(ctx context.Context, email, password, firstName, lastName string) (*Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("idp.gateway"), logger.Op("SignUp"))

	email = validation.NormalizeEmail(email)
	if !validation.ValidEmail(email) {
		return nil, &Error{Kind: KindValidation, Detail: "email inválido"}
	}
	if len(password) < 6 {
		return nil, &Error{Kind: KindValidation, Detail: "password demasiado corto"}
	}

	display := firstName
	if lastName != "" {
		if display != "" {
			display += " "
		}
		display += lastName
	}

	profile, err := g.accounts.SignUp(ctx, email, password, display)
	if err != nil {
		nerr := normalize("password", email, err)
		// En registro, un EMAIL_EXISTS se enriquece con los métodos ya
		// registrados para guiar la reconciliación.
		if nerr.Kind == KindAccountConflict {
			if methods, merr := g.accounts.SignInMethods(ctx, email); merr == nil {
				nerr.Methods = methods
			}
		}
		log.Warn("registro falló", logger.Email(email), logger.Err(err))
		return nil, nerr
	}

	log.Info("cuenta creada", logger.UserID(profile.UID), logger.Email(email))
	return &Result{Profile: *profile, IsNewUser: true}, nil
}

func (g *gateway) StartProviderFlow(ctx context.Context, providerID string, mode FlowMode, uid string) (*FlowStart, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("idp.gateway"), logger.Op("StartProviderFlow"))

	client, ok := g.clients[providerID]
	if !ok {
		return nil, &Error{Kind: KindValidation, Provider: providerID, Detail: "provider no configurado"}
	}
	if mode == ModeLink && uid == "" {
		return nil, &Error{Kind: KindValidation, Provider: providerID, Detail: "vinculación requiere cuenta autenticada"}
	}

	flowID := uuid.NewString()
	nonce, err := randomToken(16)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Provider: providerID, cause: err}
	}

	state, err := g.state.Sign(StateClaims{
		FlowID:   flowID,
		Provider: providerID,
		Mode:     string(mode),
		UID:      uid,
		Nonce:    nonce,
	})
	if err != nil {
		log.Error("no se pudo firmar el state", logger.Err(err))
		return nil, &Error{Kind: KindNetwork, Provider: providerID, cause: err}
	}

	authURL, err := client.AuthURL(ctx, state, nonce)
	if err != nil {
		log.Error("no se pudo armar la auth URL", logger.Provider(providerID), logger.Err(err))
		return nil, &Error{Kind: KindNetwork, Provider: providerID, cause: err}
	}

	rec := flowRecord{
		FlowID:   flowID,
		Provider: providerID,
		Mode:     string(mode),
		UID:      uid,
		Nonce:    nonce,
		Started:  time.Now().UTC(),
	}
	raw, _ := json.Marshal(rec)
	if err := g.cache.Set(ctx, flowKeyPrefix+flowID, raw, g.flowTTL); err != nil {
		log.Error("no se pudo guardar el flujo", logger.FlowID(flowID), logger.Err(err))
		return nil, &Error{Kind: KindNetwork, Provider: providerID, cause: err}
	}

	log.Info("flujo federado iniciado",
		logger.Provider(providerID),
		logger.FlowID(flowID),
		logger.IsLink(mode == ModeLink),
	)
	return &FlowStart{FlowID: flowID, AuthURL: authURL, State: state}, nil
}

func (g *gateway) CompleteProviderFlow(ctx context.Context, state, code string) (*Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("idp.gateway"), logger.Op("CompleteProviderFlow"))

	// Paso 1: validar el state firmado.
	claims, err := g.state.Parse(state)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Detail: "state inválido", cause: err}
	}

	// Paso 2: el flujo debe existir y se consume una sola vez. Un
	// callback rejugado no encuentra flujo.
	raw, err := g.cache.GetDel(ctx, flowKeyPrefix+claims.FlowID)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, &Error{Kind: KindValidation, Provider: claims.Provider, Detail: "flujo expirado o ya consumido"}
		}
		return nil, &Error{Kind: KindNetwork, Provider: claims.Provider, cause: err}
	}
	var rec flowRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &Error{Kind: KindValidation, Provider: claims.Provider, Detail: "flujo corrupto", cause: err}
	}
	if rec.Provider != claims.Provider || rec.Nonce != claims.Nonce {
		return nil, &Error{Kind: KindValidation, Provider: claims.Provider, Detail: "state no corresponde al flujo"}
	}

	client, ok := g.clients[rec.Provider]
	if !ok {
		return nil, &Error{Kind: KindValidation, Provider: rec.Provider, Detail: "provider no configurado"}
	}

	// Paso 3: canjear el code con el provider externo.
	ident, err := client.Exchange(ctx, code, rec.Nonce)
	if err != nil {
		log.Error("canje con el provider falló", logger.Provider(rec.Provider), logger.Err(err))
		return nil, &Error{Kind: KindNetwork, Provider: rec.Provider, cause: err}
	}
	ident.Email = validation.NormalizeEmail(ident.Email)

	isLink := rec.Mode == string(ModeLink)
	assertion := IDPAssertion{
		ProviderID:  ident.ProviderID,
		Subject:     ident.Subject,
		AccessToken: ident.AccessToken,
		IDToken:     ident.IDToken,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
		PhotoURL:    ident.PhotoURL,
		Username:    ident.Username,
	}
	if isLink {
		assertion.LinkUID = rec.UID
	}

	// Paso 4: canjear la aserción por la cuenta gestionada.
	profile, isNew, err := g.accounts.SignInWithIDP(ctx, assertion)
	if err != nil {
		nerr := normalize(rec.Provider, ident.Email, err)
		switch nerr.Kind {
		case KindAccountConflict:
			// El email ya existe con otro método: capturar la
			// credencial como pendiente de un solo uso y reportar
			// los métodos con los que sí se puede entrar.
			credID, cerr := g.storePending(ctx, ident)
			if cerr != nil {
				log.Error("no se pudo guardar la credencial pendiente", logger.Err(cerr))
				return nil, &Error{Kind: KindNetwork, Provider: rec.Provider, cause: cerr}
			}
			nerr.CredentialID = credID
			if methods, merr := g.accounts.SignInMethods(ctx, ident.Email); merr == nil {
				nerr.Methods = methods
			}
			log.Warn("conflicto de cuenta detectado",
				logger.Provider(rec.Provider),
				logger.Email(ident.Email),
				logger.Count(len(nerr.Methods)),
			)
		case KindAlreadyLinked:
			log.Info("provider ya vinculado, no-op", logger.Provider(rec.Provider), logger.Email(ident.Email))
		default:
			log.Error("canje de aserción falló", logger.Provider(rec.Provider), logger.Err(err))
		}
		return nil, nerr
	}

	log.Info("flujo federado completado",
		logger.Provider(rec.Provider),
		logger.UserID(profile.UID),
		logger.IsLink(isLink),
		logger.Bool("is_new_user", isNew),
	)
	return &Result{Profile: *profile, IsNewUser: isNew, IsLink: isLink}, nil
}

func (g *gateway) LinkCredential(ctx context.Context, uid, credentialID string) (*Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("idp.gateway"), logger.Op("LinkCredential"))

	if uid == "" || credentialID == "" {
		return nil, &Error{Kind: KindValidation, Detail: "uid y credentialId requeridos"}
	}

	// GetDel garantiza un solo uso: el segundo intento no encuentra
	// nada y el flujo debe recomenzar desde el provider.
	raw, err := g.cache.GetDel(ctx, credKeyPrefix+credentialID)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, &Error{Kind: KindValidation, Detail: "credencial pendiente expirada o ya usada"}
		}
		return nil, &Error{Kind: KindNetwork, cause: err}
	}
	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, &Error{Kind: KindValidation, Detail: "credencial corrupta", cause: err}
	}

	assertion := IDPAssertion{
		ProviderID:  cred.ProviderID,
		Subject:     cred.Subject,
		AccessToken: cred.AccessToken,
		IDToken:     cred.IDToken,
		Email:       cred.Email,
		DisplayName: cred.Profile.DisplayName,
		PhotoURL:    cred.Profile.PhotoURL,
		Username:    cred.Profile.Username,
		LinkUID:     uid,
	}
	profile, _, err := g.accounts.SignInWithIDP(ctx, assertion)
	if err != nil {
		nerr := normalize(cred.ProviderID, cred.Email, err)
		log.Error("vinculación falló", logger.Provider(cred.ProviderID), logger.UserID(uid), logger.Err(err))
		return nil, nerr
	}

	log.Info("credencial vinculada",
		logger.Provider(cred.ProviderID),
		logger.UserID(profile.UID),
		logger.IsLink(true),
	)
	return &Result{Profile: *profile, IsLink: true}, nil
}

func (g *gateway) FetchSignInMethods(ctx context.Context, email string) ([]string, error) {
	email = validation.NormalizeEmail(email)
	if !validation.ValidEmail(email) {
		return nil, &Error{Kind: KindValidation, Detail: "email inválido"}
	}
	methods, err := g.accounts.SignInMethods(ctx, email)
	if err != nil {
		return nil, normalize("", email, err)
	}
	if methods == nil {
		methods = []string{}
	}
	return methods, nil
}

func (g *gateway) Unlink(ctx context.Context, uid, providerID string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("idp.gateway"), logger.Op("Unlink"))

	if uid == "" || providerID == "" {
		return &Error{Kind: KindValidation, Detail: "uid y provider requeridos"}
	}
	profile, err := g.accounts.Unlink(ctx, uid, providerID)
	if err != nil {
		return normalize(providerID, "", err)
	}
	log.Info("provider desvinculado", logger.Provider(providerID), logger.UserID(profile.UID))
	return nil
}

// storePending guarda la identidad federada como credencial pendiente de
// un solo uso y devuelve su ID.
func (g *gateway) storePending(ctx context.Context, ident *SocialIdentity) (string, error) {
	cred := Credential{
		ID:          uuid.NewString(),
		ProviderID:  ident.ProviderID,
		Subject:     ident.Subject,
		Email:       ident.Email,
		AccessToken: ident.AccessToken,
		IDToken:     ident.IDToken,
		Profile: Profile{
			Email:       ident.Email,
			DisplayName: ident.DisplayName,
			PhotoURL:    ident.PhotoURL,
			ProviderID:  ident.ProviderID,
			Username:    ident.Username,
		},
		IssuedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(cred)
	if err != nil {
		return "", err
	}
	if err := g.cache.Set(ctx, credKeyPrefix+cred.ID, raw, g.credTTL); err != nil {
		return "", err
	}
	return cred.ID, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
