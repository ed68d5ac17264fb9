// Package users implementa el CRUD administrativo de perfiles. El camino
// normal de escritura de perfiles es el sincronizador post-login; este
// servicio existe para la administración: altas manuales, cambios de rol
// y deshabilitación de cuentas.
package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/observability/logger"
	"github.com/linguala/linguala/internal/store/core"
	"github.com/linguala/linguala/internal/validation"
)

// Errores de validación del servicio.
var (
	ErrInvalidEmail  = errors.New("users: email inválido")
	ErrInvalidRole   = errors.New("users: rol inválido")
	ErrInvalidStatus = errors.New("users: estado inválido")
)

// CreateInput son los campos de un alta administrativa.
type CreateInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
}

// UpdateInput son los campos editables por administración. nil = sin
// cambio. Providers nunca se edita por esta vía.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *string
	Status    *string
}

// Service es el CRUD administrativo sobre el document store.
type Service struct {
	repo core.Repository
}

// New crea el Service.
func New(repo core.Repository) *Service {
	return &Service{repo: repo}
}

func validRole(r string) bool {
	return r == types.RoleUser || r == types.RoleAdmin
}

func validStatus(s string) bool {
	return s == types.StatusActive || s == types.StatusDisabled
}

// Create da de alta un perfil sin credenciales. La cuenta no puede
// iniciar sesión hasta que el dueño registre un método; el perfil existe
// para asignar rol y estado por adelantado.
func (s *Service) Create(ctx context.Context, in CreateInput) (*types.UserIdentity, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("Create"))

	email := validation.NormalizeEmail(in.Email)
	if !validation.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	role := in.Role
	if role == "" {
		role = types.RoleUser
	}
	if !validRole(role) {
		return nil, ErrInvalidRole
	}

	u := &types.UserIdentity{
		UID:       uuid.NewString(),
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
		Status:    types.StatusActive,
		Providers: []string{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		log.Error("alta de usuario falló", logger.Email(email), logger.Err(err))
		return nil, err
	}
	log.Info("usuario creado", logger.UserID(u.UID), logger.Email(email))
	return u, nil
}

// Get devuelve un perfil por uid.
func (s *Service) Get(ctx context.Context, uid string) (*types.UserIdentity, error) {
	return s.repo.GetUser(ctx, uid)
}

// GetByEmail devuelve un perfil por email normalizado.
func (s *Service) GetByEmail(ctx context.Context, email string) (*types.UserIdentity, error) {
	email = validation.NormalizeEmail(email)
	if !validation.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	return s.repo.GetUserByEmail(ctx, email)
}

// List devuelve todos los perfiles.
func (s *Service) List(ctx context.Context) ([]types.UserIdentity, error) {
	return s.repo.ListUsers(ctx)
}

// Update aplica cambios administrativos parciales.
func (s *Service) Update(ctx context.Context, uid string, in UpdateInput) (*types.UserIdentity, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("Update"))

	if in.Email != nil {
		e := validation.NormalizeEmail(*in.Email)
		if !validation.ValidEmail(e) {
			return nil, ErrInvalidEmail
		}
		in.Email = &e
	}
	if in.Role != nil && !validRole(*in.Role) {
		return nil, ErrInvalidRole
	}
	if in.Status != nil && !validStatus(*in.Status) {
		return nil, ErrInvalidStatus
	}

	u, err := s.repo.UpdateUser(ctx, uid, core.UserUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Role:      in.Role,
		Status:    in.Status,
	})
	if err != nil {
		return nil, err
	}
	log.Info("usuario actualizado", logger.UserID(uid))
	return u, nil
}

// Disable deshabilita la cuenta. Un perfil deshabilitado conserva sus
// providers pero el login queda bloqueado.
func (s *Service) Disable(ctx context.Context, uid string) (*types.UserIdentity, error) {
	status := types.StatusDisabled
	return s.Update(ctx, uid, UpdateInput{Status: &status})
}

// Delete elimina el perfil del store.
func (s *Service) Delete(ctx context.Context, uid string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("Delete"))
	if err := s.repo.DeleteUser(ctx, uid); err != nil {
		return err
	}
	log.Info("usuario eliminado", logger.UserID(uid))
	return nil
}
