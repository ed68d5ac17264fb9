// Package health expone liveness y readiness.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linguala/linguala/internal/cache"
	"github.com/linguala/linguala/internal/http/helpers"
	"github.com/linguala/linguala/internal/store/core"
)

// Controller maneja /healthz y /readyz.
type Controller struct {
	repo    core.Repository
	cache   cache.Client
	version string
}

// New crea el controller.
func New(repo core.Repository, c cache.Client, version string) *Controller {
	return &Controller{repo: repo, cache: c, version: version}
}

// Register monta las rutas del controller.
func (c *Controller) Register(r chi.Router) {
	r.Get("/healthz", c.Healthz)
	r.Get("/readyz", c.Readyz)
}

type checkResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Checks  map[string]checkResult `json:"checks,omitempty"`
}

// Healthz es liveness puro: el proceso responde.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: c.version})
}

// Readyz verifica las dependencias: document store y cache.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]checkResult{}
	status := http.StatusOK

	if err := c.repo.Ping(ctx); err != nil {
		checks["store"] = checkResult{Status: "down", Error: err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		checks["store"] = checkResult{Status: "up"}
	}

	if err := c.cache.Ping(ctx); err != nil {
		checks["cache"] = checkResult{Status: "down", Error: err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		checks["cache"] = checkResult{Status: "up"}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	helpers.WriteJSON(w, status, healthResponse{Status: overall, Version: c.version, Checks: checks})
}
