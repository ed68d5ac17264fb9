// Package sessionlog registra eventos de acceso y vinculación en la
// colección append-only "session_logs". La escritura es fire-and-forget:
// un fallo del store nunca bloquea ni invalida una autenticación que ya
// ocurrió.
package sessionlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/observability/logger"
	"github.com/linguala/linguala/internal/store/core"
)

// Entry es lo que el caller aporta; ID y loginTime los pone el recorder.
type Entry struct {
	UserID       string
	Email        string
	DisplayName  string
	PhotoURL     string
	Provider     string
	UserAgent    string
	IsLinkAction bool
}

// Stats es el resumen de actividad de un usuario.
type Stats struct {
	Total      int            `json:"total"`
	Links      int            `json:"links"`
	ByProvider map[string]int `json:"byProvider"`
	LastLogin  time.Time      `json:"lastLogin"`
}

// Recorder escribe y consulta el historial de sesiones.
type Recorder struct {
	repo    core.Repository
	timeout time.Duration
	wg      sync.WaitGroup
}

// New crea el Recorder. timeout limita cada escritura asíncrona; 0 usa
// 5 segundos.
func New(repo core.Repository, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{repo: repo, timeout: timeout}
}

// Record encola el evento y retorna de inmediato. El contexto del
// request puede cancelarse sin perder la escritura.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	ev := &types.SessionEvent{
		ID:           uuid.NewString(),
		UserID:       e.UserID,
		Email:        e.Email,
		DisplayName:  e.DisplayName,
		PhotoURL:     e.PhotoURL,
		Provider:     e.Provider,
		LoginTime:    time.Now().UTC(),
		UserAgent:    e.UserAgent,
		IsLinkAction: e.IsLinkAction,
	}

	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("sessionlog"), logger.Op("Record"))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		if err := r.repo.AppendSessionEvent(wctx, ev); err != nil {
			// Best-effort: el evento se pierde, la sesión no.
			log.Warn("no se pudo registrar el evento de sesión",
				logger.UserID(e.UserID),
				logger.Provider(e.Provider),
				logger.IsLink(e.IsLinkAction),
				logger.Err(err),
			)
			return
		}
		log.Debug("evento de sesión registrado",
			logger.UserID(e.UserID),
			logger.Provider(e.Provider),
			logger.IsLink(e.IsLinkAction),
		)
	}()
}

// History consulta el historial con el filtro dado.
func (r *Recorder) History(ctx context.Context, f core.SessionEventFilter) ([]types.SessionEvent, error) {
	return r.repo.ListSessionEvents(ctx, f)
}

// StatsFor agrega la actividad de un usuario.
func (r *Recorder) StatsFor(ctx context.Context, userID string) (*Stats, error) {
	events, err := r.repo.ListSessionEvents(ctx, core.SessionEventFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	st := &Stats{ByProvider: make(map[string]int)}
	for _, ev := range events {
		st.Total++
		if ev.IsLinkAction {
			st.Links++
		}
		st.ByProvider[ev.Provider]++
		if ev.LoginTime.After(st.LastLogin) {
			st.LastLogin = ev.LoginTime
		}
	}
	return st, nil
}

// Flush espera las escrituras pendientes. Para shutdown y tests.
func (r *Recorder) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
