// Package reconcile orquesta la resolución de conflictos de identidad:
// un acceso federado que choca con una cuenta existente se convierte en
// un flujo de reautenticación y vinculación, nunca en una cuenta
// duplicada ni en un merge automático.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/linguala/linguala/internal/cache"
	"github.com/linguala/linguala/internal/idp"
	"github.com/linguala/linguala/internal/observability/logger"
	"github.com/linguala/linguala/internal/sessionlog"
	syncsvc "github.com/linguala/linguala/internal/sync"
)

// State es el estado del flujo de reconciliación.
type State string

const (
	// StateAwaitingReauth: el conflicto fue detectado y el usuario debe
	// probar que es dueño de la cuenta con un método ya registrado.
	StateAwaitingReauth State = "awaiting_reauth"
	// StateResolved: la credencial pendiente quedó vinculada.
	StateResolved State = "resolved"
	// StateAbandoned: el usuario desistió; la credencial pendiente
	// expira sola en el cache.
	StateAbandoned State = "abandoned"
)

// Flow es un conflicto en curso. Vive en cache hasta resolverse,
// abandonarse o expirar.
type Flow struct {
	ID           string    `json:"id"`
	State        State     `json:"state"`
	Email        string    `json:"email"`
	Provider     string    `json:"provider"`
	CredentialID string    `json:"credentialId"`
	Methods      []string  `json:"methods"`
	UserAgent    string    `json:"userAgent,omitempty"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Resolution es el desenlace exitoso de un flujo.
type Resolution struct {
	UserID         string
	Email          string
	DisplayName    string
	PhotoURL       string
	LinkedProvider string
	Methods        []string
}

// Errores del resolver.
var (
	ErrFlowNotFound    = errors.New("reconcile: flujo no encontrado o expirado")
	ErrFlowState       = errors.New("reconcile: el flujo no admite esta operación")
	ErrNotAConflict    = errors.New("reconcile: el error no es un conflicto de cuenta")
	ErrTooManyAttempts = errors.New("reconcile: demasiados intentos de reautenticación")
)

const flowKeyPrefix = "reconcile:flow:"

// maxAttempts limita los reintentos de password antes de abandonar.
const maxAttempts = 5

// Notifier avisa al dueño de la cuenta que se vinculó un método nuevo.
type Notifier interface {
	NotifyLinked(ctx context.Context, email, displayName, providerID string) error
}

// Deps contiene las dependencias del resolver.
type Deps struct {
	Gateway  idp.Gateway
	Sync     *syncsvc.Service
	Recorder *sessionlog.Recorder
	Cache    cache.Client
	Notifier Notifier // opcional

	// FlowTTL limita la vida de un conflicto sin resolver. Default: 10
	// minutos, igual que la credencial pendiente.
	FlowTTL time.Duration
}

// Service implementa la máquina de estados de reconciliación.
type Service struct {
	gw       idp.Gateway
	sync     *syncsvc.Service
	recorder *sessionlog.Recorder
	cache    cache.Client
	notifier Notifier
	ttl      time.Duration
}

// New crea el Service.
func New(d Deps) *Service {
	if d.FlowTTL <= 0 {
		d.FlowTTL = 10 * time.Minute
	}
	return &Service{
		gw:       d.Gateway,
		sync:     d.Sync,
		recorder: d.Recorder,
		cache:    d.Cache,
		notifier: d.Notifier,
		ttl:      d.FlowTTL,
	}
}

// OnConflict abre un flujo a partir de un error account_conflict del
// gateway. El flujo guía al usuario: "entra con uno de estos métodos
// para vincular el nuevo".
func (s *Service) OnConflict(ctx context.Context, conflictErr error, userAgent string) (*Flow, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("reconcile"), logger.Op("OnConflict"))

	e := idp.AsError(conflictErr)
	if e == nil || e.Kind != idp.KindAccountConflict || e.CredentialID == "" {
		return nil, ErrNotAConflict
	}

	f := &Flow{
		ID:           uuid.NewString(),
		State:        StateAwaitingReauth,
		Email:        e.Email,
		Provider:     e.Provider,
		CredentialID: e.CredentialID,
		Methods:      e.Methods,
		UserAgent:    userAgent,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.save(ctx, f); err != nil {
		return nil, err
	}

	log.Info("flujo de reconciliación abierto",
		logger.FlowID(f.ID),
		logger.Email(f.Email),
		logger.Provider(f.Provider),
		logger.Count(len(f.Methods)),
	)
	return f, nil
}

// Get devuelve el flujo para la UI.
func (s *Service) Get(ctx context.Context, flowID string) (*Flow, error) {
	return s.load(ctx, flowID)
}

// ResolveWithPassword reautentica con password y, si es correcta,
// vincula la credencial pendiente. Un password incorrecto no destruye el
// flujo hasta agotar los intentos.
func (s *Service) ResolveWithPassword(ctx context.Context, flowID, password string) (*Resolution, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("reconcile"), logger.Op("ResolveWithPassword"))

	f, err := s.load(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if f.State != StateAwaitingReauth {
		return nil, ErrFlowState
	}

	// Paso 1: reautenticación.
	signin, err := s.gw.SignInWithPassword(ctx, f.Email, password)
	if err != nil {
		if idp.IsKind(err, idp.KindInvalidCredential) {
			f.Attempts++
			if f.Attempts >= maxAttempts {
				s.discard(ctx, f)
				log.Warn("flujo abandonado por intentos agotados", logger.FlowID(f.ID), logger.Email(f.Email))
				return nil, ErrTooManyAttempts
			}
			if serr := s.save(ctx, f); serr != nil {
				return nil, serr
			}
		}
		return nil, err
	}

	// La reautenticación es un acceso real: se sincroniza y se
	// registra como tal.
	user, err := s.sync.SyncProfile(ctx, signin.Profile)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, sessionlog.Entry{
		UserID:      user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		Provider:    signin.Profile.ProviderID,
		UserAgent:   f.UserAgent,
	})

	// Paso 2: vincular la credencial pendiente (un solo uso).
	linked, err := s.gw.LinkCredential(ctx, user.UID, f.CredentialID)
	if err != nil {
		// Credencial expirada o consumida: el flujo ya no puede
		// resolverse, hay que recomenzar desde el provider.
		if idp.IsKind(err, idp.KindValidation) {
			s.discard(ctx, f)
			return nil, errors.Join(ErrFlowNotFound, err)
		}
		return nil, err
	}

	user, err = s.sync.AddProvider(ctx, user.UID, linked.Profile.ProviderID)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, sessionlog.Entry{
		UserID:       user.UID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PhotoURL:     user.PhotoURL,
		Provider:     linked.Profile.ProviderID,
		UserAgent:    f.UserAgent,
		IsLinkAction: true,
	})

	s.discard(ctx, f)
	s.notify(ctx, user.Email, user.DisplayName, linked.Profile.ProviderID)

	log.Info("conflicto resuelto",
		logger.FlowID(f.ID),
		logger.UserID(user.UID),
		logger.Provider(linked.Profile.ProviderID),
	)
	return &Resolution{
		UserID:         user.UID,
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		PhotoURL:       user.PhotoURL,
		LinkedProvider: linked.Profile.ProviderID,
		Methods:        user.Providers,
	}, nil
}

// Abandon cierra el flujo sin vincular. La credencial pendiente expira
// sola; no queda rastro en el perfil ni en el historial.
func (s *Service) Abandon(ctx context.Context, flowID string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("reconcile"), logger.Op("Abandon"))

	f, err := s.load(ctx, flowID)
	if err != nil {
		return err
	}
	s.discard(ctx, f)
	log.Info("flujo de reconciliación abandonado", logger.FlowID(f.ID), logger.Email(f.Email))
	return nil
}

func (s *Service) save(ctx context.Context, f *Flow) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, flowKeyPrefix+f.ID, raw, s.ttl)
}

func (s *Service) load(ctx context.Context, flowID string) (*Flow, error) {
	raw, err := s.cache.Get(ctx, flowKeyPrefix+flowID)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrFlowNotFound
		}
		return nil, err
	}
	var f Flow
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, ErrFlowNotFound
	}
	return &f, nil
}

func (s *Service) discard(ctx context.Context, f *Flow) {
	_ = s.cache.Delete(ctx, flowKeyPrefix+f.ID)
}

func (s *Service) notify(ctx context.Context, email, displayName, providerID string) {
	if s.notifier == nil {
		return
	}
	// Best-effort: el email de aviso nunca bloquea la resolución.
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyLinked(nctx, email, displayName, providerID); err != nil {
			logger.From(nctx).Warn("no se pudo enviar el aviso de vinculación",
				logger.Component("reconcile"),
				logger.Email(email),
				logger.Err(err),
			)
		}
	}()
}
