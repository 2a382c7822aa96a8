package http

import (
	"net/http"

	"github.com/go-chi/render"

	"clcconvert/internal/config"
)

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthCheck handles GET /api/health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:  "ok",
		Service: config.AppName,
		Version: config.AppVersion,
	})
}
