package dto

import (
	"time"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/sessionlog"
)

// SessionEventResponse es un registro del historial de accesos.
type SessionEventResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Provider     string    `json:"provider"`
	LoginTime    time.Time `json:"login_time"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IsLinkAction bool      `json:"is_link_action"`
}

// NewSessionEventResponse arma la proyección desde el dominio.
func NewSessionEventResponse(ev *types.SessionEvent) SessionEventResponse {
	return SessionEventResponse{
		ID:           ev.ID,
		UserID:       ev.UserID,
		Email:        ev.Email,
		DisplayName:  ev.DisplayName,
		PhotoURL:     ev.PhotoURL,
		Provider:     ev.Provider,
		LoginTime:    ev.LoginTime,
		UserAgent:    ev.UserAgent,
		IsLinkAction: ev.IsLinkAction,
	}
}

// SessionHistoryResponse es el historial filtrado.
type SessionHistoryResponse struct {
	Events []SessionEventResponse `json:"events"`
	Total  int                    `json:"total"`
}

// SessionStatsResponse es el resumen de actividad de un usuario.
type SessionStatsResponse struct {
	UserID string           `json:"user_id"`
	Stats  sessionlog.Stats `json:"stats"`
}
