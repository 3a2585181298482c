package controllers

import (
	"context"
	"net/http"

	"inkwell/app/errs"

	"github.com/rs/zerolog/log"
)

// Pinger is satisfied by every store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController answers liveness probes and unmatched routes.
type HealthController struct {
	store     Pinger
	driver    string
	responder Responder
}

func NewHealthController(store Pinger, driver string) *HealthController {
	logger := log.With().Str("handlerName", "healthController").Logger()
	return &HealthController{
		store:     store,
		driver:    driver,
		responder: NewResponder(logger),
	}
}

// Root handles GET /
func (hc *HealthController) Root(w http.ResponseWriter, r *http.Request) {
	hc.responder.write(w, http.StatusOK, map[string]string{"message": "Blogging API is running!"})
}

// Health handles GET /api/health
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if err := hc.store.Ping(r.Context()); err != nil {
		hc.responder.WriteError(w, errs.Store("ping", err))
		return
	}
	hc.responder.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"store":  hc.driver,
	})
}

func (hc *HealthController) NotFound(w http.ResponseWriter, r *http.Request) {
	hc.responder.WriteError(w, errs.NotFound("Not found"))
}

func (hc *HealthController) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	hc.responder.write(w, http.StatusMethodNotAllowed, map[string]interface{}{
		"success": false,
		"message": "Method not allowed",
	})
}
