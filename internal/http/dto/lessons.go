package dto

import (
	"time"

	"github.com/linguala/linguala/internal/domain/types"
)

// LessonCreateRequest da de alta una lección. El estado inicial siempre
// es pendiente; no se acepta en el alta.
type LessonCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Level       string `json:"level"`
}

// LessonUpdateRequest edita una lección. Campos ausentes no cambian.
type LessonUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Language    *string `json:"language,omitempty"`
	Level       *string `json:"level,omitempty"`
}

// LessonResponse es la proyección pública de una lección.
type LessonResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Language    string    `json:"language"`
	Level       string    `json:"level"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewLessonResponse arma la proyección desde el dominio.
func NewLessonResponse(l *types.Lesson) LessonResponse {
	return LessonResponse{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Status:      l.Status,
		Language:    l.Language,
		Level:       l.Level,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// LessonListResponse es la lista completa del catálogo.
type LessonListResponse struct {
	Lessons []LessonResponse `json:"lessons"`
	Total   int              `json:"total"`
}
