package api

import (
	"net/http"
	"time"

	"github.com/brightline/coi-tracker/internal/pkg/httputil"
)

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	DB     string `json:"db"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "healthy",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
		DB:     "up",
	}
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.DB = "down"
		}
	}
	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	httputil.JSON(w, status, resp)
}
