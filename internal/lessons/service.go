// Package lessons implementa el CRUD del catálogo de lecciones.
package lessons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/observability/logger"
	"github.com/linguala/linguala/internal/store/core"
)

// Errores de validación del servicio.
var (
	ErrTitleRequired   = errors.New("lessons: título requerido")
	ErrInvalidLanguage = errors.New("lessons: idioma fuera del catálogo")
	ErrInvalidLevel    = errors.New("lessons: nivel inválido")
	ErrInvalidStatus   = errors.New("lessons: estado inválido")
)

// CreateInput son los campos para crear una lección.
type CreateInput struct {
	Title       string
	Description string
	Language    string
	Level       string
}

// UpdateInput son los campos editables. nil = sin cambio.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	Language    *string
	Level       *string
}

// Service es el CRUD de lecciones sobre el document store.
type Service struct {
	repo core.Repository
}

// New crea el Service.
func New(repo core.Repository) *Service {
	return &Service{repo: repo}
}

// Create valida y persiste una lección nueva. El estado inicial siempre
// es pendiente.
func (s *Service) Create(ctx context.Context, in CreateInput) (*types.Lesson, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("lessons"), logger.Op("Create"))

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, ErrTitleRequired
	}
	if !types.ValidLanguage(in.Language) {
		return nil, ErrInvalidLanguage
	}
	if !types.ValidLevel(in.Level) {
		return nil, ErrInvalidLevel
	}

	now := time.Now().UTC()
	l := &types.Lesson{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Status:      types.LessonPending,
		Language:    in.Language,
		Level:       in.Level,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateLesson(ctx, l); err != nil {
		log.Error("no se pudo crear la lección", logger.Err(err))
		return nil, err
	}
	log.Info("lección creada", logger.LessonID(l.ID), logger.String("language", l.Language))
	return l, nil
}

// Get devuelve una lección por ID.
func (s *Service) Get(ctx context.Context, id string) (*types.Lesson, error) {
	return s.repo.GetLesson(ctx, id)
}

// List devuelve el catálogo ordenado por fecha de creación descendente.
func (s *Service) List(ctx context.Context) ([]types.Lesson, error) {
	return s.repo.ListLessons(ctx)
}

// Update aplica cambios parciales con validación campo a campo.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*types.Lesson, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("lessons"), logger.Op("Update"))

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, ErrTitleRequired
		}
		in.Title = &t
	}
	if in.Language != nil && !types.ValidLanguage(*in.Language) {
		return nil, ErrInvalidLanguage
	}
	if in.Level != nil && !types.ValidLevel(*in.Level) {
		return nil, ErrInvalidLevel
	}
	if in.Status != nil && !types.ValidLessonStatus(*in.Status) {
		return nil, ErrInvalidStatus
	}

	l, err := s.repo.UpdateLesson(ctx, id, core.LessonUpdate{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Language:    in.Language,
		Level:       in.Level,
	})
	if err != nil {
		return nil, err
	}
	log.Info("lección actualizada", logger.LessonID(id))
	return l, nil
}

// Complete marca la lección como completada.
func (s *Service) Complete(ctx context.Context, id string) (*types.Lesson, error) {
	status := types.LessonCompleted
	return s.Update(ctx, id, UpdateInput{Status: &status})
}

// Delete elimina la lección.
func (s *Service) Delete(ctx context.Context, id string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("lessons"), logger.Op("Delete"))
	if err := s.repo.DeleteLesson(ctx, id); err != nil {
		return err
	}
	log.Info("lección eliminada", logger.LessonID(id))
	return nil
}
