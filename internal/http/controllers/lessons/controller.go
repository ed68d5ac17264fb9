// Package lessons expone el CRUD del catálogo de lecciones.
package lessons

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linguala/linguala/internal/http/dto"
	httperrors "github.com/linguala/linguala/internal/http/errors"
	"github.com/linguala/linguala/internal/http/helpers"
	lessonssvc "github.com/linguala/linguala/internal/lessons"
	"github.com/linguala/linguala/internal/observability/logger"
)

// Controller maneja /v1/lessons.
type Controller struct {
	svc *lessonssvc.Service
}

// New crea el controller.
func New(svc *lessonssvc.Service) *Controller {
	return &Controller{svc: svc}
}

// Register monta las rutas del controller. Toda la superficie requiere
// sesión; el router aplica el middleware.
func (c *Controller) Register(r chi.Router) {
	r.Get("/", c.List)
	r.Post("/", c.Create)
	r.Get("/{id}", c.Get)
	r.Patch("/{id}", c.Update)
	r.Post("/{id}/complete", c.Complete)
	r.Delete("/{id}", c.Delete)
}

// List maneja GET /v1/lessons.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	ls, err := c.svc.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	out := make([]dto.LessonResponse, 0, len(ls))
	for i := range ls {
		out = append(out, dto.NewLessonResponse(&ls[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, dto.LessonListResponse{Lessons: out, Total: len(out)})
}

// Create maneja POST /v1/lessons.
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("lessons.Create"))

	var req dto.LessonCreateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	l, err := c.svc.Create(ctx, lessonssvc.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		Level:       req.Level,
	})
	if err != nil {
		log.Warn("alta de lección rechazada", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.NewLessonResponse(l))
}

// Get maneja GET /v1/lessons/{id}.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	l, err := c.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewLessonResponse(l))
}

// Update maneja PATCH /v1/lessons/{id}.
func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("lessons.Update"))

	var req dto.LessonUpdateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	l, err := c.svc.Update(ctx, chi.URLParam(r, "id"), lessonssvc.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Language:    req.Language,
		Level:       req.Level,
	})
	if err != nil {
		log.Warn("edición de lección rechazada", logger.LessonID(chi.URLParam(r, "id")), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewLessonResponse(l))
}

// Complete maneja POST /v1/lessons/{id}/complete.
func (c *Controller) Complete(w http.ResponseWriter, r *http.Request) {
	l, err := c.svc.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewLessonResponse(l))
}

// Delete maneja DELETE /v1/lessons/{id}.
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
