// Package auth orquesta el ciclo completo de autenticación para la capa
// HTTP: gateway de identidad, sync de perfil, historial de sesiones,
// reconciliación de conflictos y emisión del token de sesión.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/idp"
	"github.com/linguala/linguala/internal/jwt"
	"github.com/linguala/linguala/internal/metrics"
	"github.com/linguala/linguala/internal/observability/logger"
	"github.com/linguala/linguala/internal/reconcile"
	"github.com/linguala/linguala/internal/security/password"
	"github.com/linguala/linguala/internal/sessionlog"
	"github.com/linguala/linguala/internal/store/core"
	syncsvc "github.com/linguala/linguala/internal/sync"
)

// ErrAccountDisabled bloquea el acceso de cuentas deshabilitadas por un
// administrador. El identity provider puede aceptar la credencial; el
// estado de la aplicación manda.
var ErrAccountDisabled = errors.New("auth: cuenta deshabilitada")

// ErrWeakPassword rechaza el registro antes de llegar al identity
// provider. El detalle lleva los motivos separados por coma.
var ErrWeakPassword = errors.New("auth: contraseña débil")

// signupPolicy es el mínimo aceptado al crear cuentas password.
var signupPolicy = password.Policy{MinLength: 8, RequireLower: true, RequireDigit: true}

// Session es una sesión recién emitida.
type Session struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
	Provider  string
	IsNewUser bool
	User      *types.UserIdentity
}

// CallbackOutcome es el desenlace de un callback federado. Exactamente
// uno de los tres campos viene poblado.
type CallbackOutcome struct {
	// Session: el acceso federado terminó en sesión.
	Session *Session
	// Linked: el flujo era de vinculación y el provider quedó agregado.
	Linked *types.UserIdentity
	// LinkedProvider acompaña a Linked con el método recién agregado.
	LinkedProvider string
	// Conflict: el email ya tiene cuenta con otros métodos; el usuario
	// debe reautenticarse para vincular.
	Conflict *reconcile.Flow
}

// Deps contiene las dependencias del orquestador.
type Deps struct {
	Gateway   idp.Gateway
	Sync      *syncsvc.Service
	Recorder  *sessionlog.Recorder
	Reconcile *reconcile.Service
	Issuer    *jwt.Issuer
	Repo      core.Repository
}

// Service implementa los casos de uso de autenticación.
type Service struct {
	gw        idp.Gateway
	sync      *syncsvc.Service
	recorder  *sessionlog.Recorder
	reconcile *reconcile.Service
	issuer    *jwt.Issuer
	repo      core.Repository
}

// New crea el Service.
func New(d Deps) *Service {
	return &Service{
		gw:        d.Gateway,
		sync:      d.Sync,
		recorder:  d.Recorder,
		reconcile: d.Reconcile,
		issuer:    d.Issuer,
		repo:      d.Repo,
	}
}

// LoginPassword autentica email+password y emite la sesión.
func (s *Service) LoginPassword(ctx context.Context, email, password, userAgent string) (*Session, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("LoginPassword"))

	res, err := s.gw.SignInWithPassword(ctx, email, password)
	if err != nil {
		metrics.LoginFailures.WithLabelValues(string(idp.KindOf(err))).Inc()
		return nil, err
	}
	sess, err := s.finishLogin(ctx, res, userAgent)
	if err != nil {
		return nil, err
	}
	log.Info("acceso con password", logger.UserID(sess.User.UID), logger.Email(sess.User.Email))
	return sess, nil
}

// Register crea la cuenta password y emite la primera sesión.
func (s *Service) Register(ctx context.Context, email, pass, firstName, lastName, userAgent string) (*Session, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("Register"))

	if ok, reasons := signupPolicy.Validate(pass); !ok {
		metrics.LoginFailures.WithLabelValues("weak_password").Inc()
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(reasons, ","))
	}

	res, err := s.gw.SignUp(ctx, email, pass, firstName, lastName)
	if err != nil {
		metrics.LoginFailures.WithLabelValues(string(idp.KindOf(err))).Inc()
		return nil, err
	}
	sess, err := s.finishLogin(ctx, res, userAgent)
	if err != nil {
		return nil, err
	}
	log.Info("cuenta registrada", logger.UserID(sess.User.UID), logger.Email(sess.User.Email))
	return sess, nil
}

// StartSocial inicia un flujo federado. En modo link, uid es la cuenta
// autenticada que quiere agregar el método.
func (s *Service) StartSocial(ctx context.Context, providerID string, mode idp.FlowMode, uid string) (*idp.FlowStart, error) {
	return s.gw.StartProviderFlow(ctx, providerID, mode, uid)
}

// CompleteSocial consume el callback OAuth. Un conflicto de cuenta no es
// un error terminal: abre un flujo de reconciliación y lo devuelve.
func (s *Service) CompleteSocial(ctx context.Context, state, code, userAgent string) (*CallbackOutcome, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("CompleteSocial"))

	res, err := s.gw.CompleteProviderFlow(ctx, state, code)
	if err != nil {
		if e := idp.AsError(err); e != nil && e.Kind == idp.KindAlreadyLinked {
			// Éxito no-op: el método ya estaba en la cuenta. Sin
			// evento de sesión y sin refresh de lastLogin.
			user, gerr := s.repo.GetUserByEmail(ctx, e.Email)
			if gerr != nil {
				return nil, gerr
			}
			log.Info("provider ya vinculado, no-op",
				logger.UserID(user.UID),
				logger.Provider(e.Provider),
			)
			return &CallbackOutcome{Linked: user, LinkedProvider: e.Provider}, nil
		}
		if idp.IsKind(err, idp.KindAccountConflict) {
			metrics.ConflictsDetected.Inc()
			flow, ferr := s.reconcile.OnConflict(ctx, err, userAgent)
			if ferr != nil {
				return nil, ferr
			}
			return &CallbackOutcome{Conflict: flow}, nil
		}
		metrics.LoginFailures.WithLabelValues(string(idp.KindOf(err))).Inc()
		return nil, err
	}

	if res.IsLink {
		user, err := s.sync.AddProvider(ctx, res.Profile.UID, res.Profile.ProviderID)
		if err != nil {
			return nil, err
		}
		s.recorder.Record(ctx, sessionlog.Entry{
			UserID:       user.UID,
			Email:        user.Email,
			DisplayName:  user.DisplayName,
			PhotoURL:     user.PhotoURL,
			Provider:     res.Profile.ProviderID,
			UserAgent:    userAgent,
			IsLinkAction: true,
		})
		metrics.LinksCompleted.WithLabelValues(res.Profile.ProviderID).Inc()
		log.Info("provider vinculado", logger.UserID(user.UID), logger.Provider(res.Profile.ProviderID))
		return &CallbackOutcome{Linked: user, LinkedProvider: res.Profile.ProviderID}, nil
	}

	sess, err := s.finishLogin(ctx, res, userAgent)
	if err != nil {
		return nil, err
	}
	log.Info("acceso federado",
		logger.UserID(sess.User.UID),
		logger.Provider(res.Profile.ProviderID),
		logger.Bool("new_user", res.IsNewUser),
	)
	return &CallbackOutcome{Session: sess}, nil
}

// ResolveConflict reautentica con password, vincula la credencial
// pendiente del flujo y emite la sesión resultante.
func (s *Service) ResolveConflict(ctx context.Context, flowID, password string) (*Session, error) {
	resolution, err := s.reconcile.ResolveWithPassword(ctx, flowID, password)
	if err != nil {
		return nil, err
	}
	metrics.ConflictsResolved.Inc()

	// El perfil ya quedó sincronizado durante la resolución; el store es
	// la fuente del rol y el estado para el token.
	user, err := s.repo.GetUser(ctx, resolution.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsDisabled() {
		return nil, ErrAccountDisabled
	}
	return s.issue(user, types.ProviderPassword, false)
}

// Methods lista los métodos de acceso registrados para un email.
func (s *Service) Methods(ctx context.Context, email string) ([]string, error) {
	return s.gw.FetchSignInMethods(ctx, email)
}

// Unlink quita un provider de la cuenta y refleja el cambio en el perfil.
func (s *Service) Unlink(ctx context.Context, uid, providerID string) (*types.UserIdentity, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("Unlink"))

	if err := s.gw.Unlink(ctx, uid, providerID); err != nil {
		return nil, err
	}
	user, err := s.sync.RemoveProvider(ctx, uid, providerID)
	if err != nil {
		return nil, err
	}
	log.Info("provider desvinculado", logger.UserID(uid), logger.Provider(providerID))
	return user, nil
}

// finishLogin sincroniza el perfil, aplica el estado administrativo,
// registra el evento y emite el token.
//
// Un store caído no invalida el acceso: el identity provider ya
// autenticó. En ese caso se emite la sesión con la identidad del
// gateway (rol por defecto) y el sync queda para el próximo acceso.
func (s *Service) finishLogin(ctx context.Context, res *idp.Result, userAgent string) (*Session, error) {
	start := time.Now()
	user, err := s.sync.SyncProfile(ctx, res.Profile)
	switch {
	case err == nil:
		metrics.SyncLatency.Observe(float64(time.Since(start).Milliseconds()))
	case errors.Is(err, core.ErrUnavailable):
		logger.From(ctx).Warn("store no disponible post-auth, acceso degradado",
			logger.UserID(res.Profile.UID),
			logger.Provider(res.Profile.ProviderID),
			logger.Err(err),
		)
		metrics.SyncFailures.Inc()
		user = syncsvc.IdentityFrom(res.Profile)
	default:
		return nil, err
	}

	if user.IsDisabled() {
		metrics.LoginFailures.WithLabelValues("disabled").Inc()
		return nil, ErrAccountDisabled
	}

	s.recorder.Record(ctx, sessionlog.Entry{
		UserID:      user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		Provider:    res.Profile.ProviderID,
		UserAgent:   userAgent,
	})
	metrics.Logins.WithLabelValues(res.Profile.ProviderID).Inc()

	return s.issue(user, res.Profile.ProviderID, res.IsNewUser)
}

func (s *Service) issue(user *types.UserIdentity, provider string, isNew bool) (*Session, error) {
	token, jti, exp, err := s.issuer.Sign(user, provider)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		JTI:       jti,
		ExpiresAt: exp,
		Provider:  provider,
		IsNewUser: isNew,
		User:      user,
	}, nil
}
