// Package sync proyecta el resultado de cada autenticación sobre el
// perfil persistido en el document store. Es la única vía de escritura
// del perfil fuera del CRUD administrativo.
package sync

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/idp"
	"github.com/linguala/linguala/internal/observability/logger"
	"github.com/linguala/linguala/internal/store/core"
)

// Service sincroniza perfiles tras autenticación.
type Service struct {
	repo core.Repository
	sf   singleflight.Group
}

// New crea el Service.
func New(repo core.Repository) *Service {
	return &Service{repo: repo}
}

// IdentityFrom proyecta el perfil del gateway a una identidad con los
// defaults de una cuenta nueva (rol usuario, estado activo). Es también
// la identidad degradada cuando el store no responde post-auth.
func IdentityFrom(p idp.Profile) *types.UserIdentity {
	first, last := splitName(p.DisplayName)
	now := time.Now().UTC()
	return &types.UserIdentity{
		UID:            p.UID,
		Email:          p.Email,
		DisplayName:    p.DisplayName,
		FirstName:      first,
		LastName:       last,
		PhotoURL:       p.PhotoURL,
		GitHubUsername: p.Username,
		Providers:      []string{p.ProviderID},
		Role:           types.RoleUser,
		Status:         types.StatusActive,
		CreatedAt:      now,
		LastLogin:      now,
	}
}

// SyncProfile hace upsert del perfil tras un acceso exitoso. Dos accesos
// concurrentes del mismo uid+provider se deduplican en uno solo; el
// resultado persistido es idéntico en cualquier orden de llegada.
func (s *Service) SyncProfile(ctx context.Context, p idp.Profile) (*types.UserIdentity, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("sync"), logger.Op("SyncProfile"))

	u := IdentityFrom(p)

	key := p.UID + "|" + p.ProviderID
	v, err, shared := s.sf.Do(key, func() (any, error) {
		return s.repo.UpsertOnLogin(ctx, u, p.ProviderID)
	})
	if err != nil {
		log.Error("sync de perfil falló",
			logger.UserID(p.UID),
			logger.Provider(p.ProviderID),
			logger.Err(err),
		)
		return nil, err
	}
	if shared {
		log.Debug("sync deduplicado", logger.UserID(p.UID), logger.Provider(p.ProviderID))
	}

	out := v.(*types.UserIdentity)
	log.Info("perfil sincronizado",
		logger.UserID(out.UID),
		logger.Provider(p.ProviderID),
		logger.Count(len(out.Providers)),
	)
	return out, nil
}

// AddProvider registra una vinculación en el perfil. No refresca
// lastLogin: vincular no es iniciar sesión.
func (s *Service) AddProvider(ctx context.Context, uid, providerID string) (*types.UserIdentity, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("sync"), logger.Op("AddProvider"))

	out, err := s.repo.AddProvider(ctx, uid, providerID)
	if err != nil {
		log.Error("vinculación en perfil falló",
			logger.UserID(uid),
			logger.Provider(providerID),
			logger.Err(err),
		)
		return nil, err
	}
	log.Info("provider agregado al perfil",
		logger.UserID(uid),
		logger.Provider(providerID),
		logger.Count(len(out.Providers)),
	)
	return out, nil
}

// RemoveProvider registra una desvinculación en el perfil.
func (s *Service) RemoveProvider(ctx context.Context, uid, providerID string) (*types.UserIdentity, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("sync"), logger.Op("RemoveProvider"))

	out, err := s.repo.RemoveProvider(ctx, uid, providerID)
	if err != nil {
		log.Error("desvinculación en perfil falló",
			logger.UserID(uid),
			logger.Provider(providerID),
			logger.Err(err),
		)
		return nil, err
	}
	log.Info("provider quitado del perfil",
		logger.UserID(uid),
		logger.Provider(providerID),
		logger.Count(len(out.Providers)),
	)
	return out, nil
}

// splitName separa un display name en nombre y apellido. La primera
// palabra es el nombre; el resto, apellido.
func splitName(display string) (first, last string) {
	display = strings.TrimSpace(display)
	if display == "" {
		return "", ""
	}
	parts := strings.Fields(display)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
