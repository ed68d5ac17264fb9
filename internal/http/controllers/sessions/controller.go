// Package sessions expone el historial de accesos y su resumen. Un
// usuario solo ve su propia actividad; un admin puede consultar la de
// cualquiera.
package sessions

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/http/dto"
	httperrors "github.com/linguala/linguala/internal/http/errors"
	"github.com/linguala/linguala/internal/http/helpers"
	"github.com/linguala/linguala/internal/http/middlewares"
	"github.com/linguala/linguala/internal/sessionlog"
	"github.com/linguala/linguala/internal/store/core"
)

// Controller maneja /v1/sessions. El router aplica sesión a toda la
// superficie.
type Controller struct {
	recorder *sessionlog.Recorder
}

// New crea el controller.
func New(recorder *sessionlog.Recorder) *Controller {
	return &Controller{recorder: recorder}
}

// Register monta las rutas del controller.
func (c *Controller) Register(r chi.Router) {
	r.Get("/history", c.History)
	r.Get("/stats", c.Stats)
}

// History maneja GET /v1/sessions/history.
// Query params: user_id (solo admin), provider, only_links, limit.
func (c *Controller) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := middlewares.GetSession(ctx)
	if sess == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	q := r.URL.Query()
	filter := core.SessionEventFilter{
		UserID:    sess.UID,
		Provider:  q.Get("provider"),
		OnlyLinks: q.Get("only_links") == "true",
	}
	// Solo un admin puede mirar la actividad de otros (o de todos).
	if sess.Role == types.RoleAdmin {
		filter.UserID = q.Get("user_id")
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("limit debe ser un entero positivo"))
			return
		}
		filter.Limit = n
	}

	events, err := c.recorder.History(ctx, filter)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	out := make([]dto.SessionEventResponse, 0, len(events))
	for i := range events {
		out = append(out, dto.NewSessionEventResponse(&events[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SessionHistoryResponse{Events: out, Total: len(out)})
}

// Stats maneja GET /v1/sessions/stats?user_id=...
func (c *Controller) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := middlewares.GetSession(ctx)
	if sess == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	userID := sess.UID
	if requested := r.URL.Query().Get("user_id"); requested != "" && requested != sess.UID {
		if sess.Role != types.RoleAdmin {
			httperrors.WriteError(w, httperrors.ErrForbidden)
			return
		}
		userID = requested
	}

	stats, err := c.recorder.StatsFor(ctx, userID)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SessionStatsResponse{UserID: userID, Stats: *stats})
}
