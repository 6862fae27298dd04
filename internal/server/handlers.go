package server

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string         `json:"status"`
	Service string         `json:"service"`
	Backend string         `json:"backend,omitempty"`
	Catalog *CatalogHealth `json:"catalog,omitempty"`
}

// CatalogHealth summarises the loaded reference catalog.
type CatalogHealth struct {
	Regions   int `json:"regions"`
	Offices   int `json:"offices"`
	Purposes  int `json:"purposes"`
	SubGrades int `json:"sub_grades"`
}

// handleHealth reports liveness. Without a catalog the dashboard cannot
// build statements, so the service answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Service: "lcdash",
		Backend: s.backend,
	}

	if s.catalog == nil || len(s.catalog.Regions) == 0 {
		resp.Status = "catalog not loaded"
		s.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Catalog = &CatalogHealth{
		Regions:   len(s.catalog.Regions),
		Offices:   len(s.catalog.Offices),
		Purposes:  len(s.catalog.Purposes),
		SubGrades: len(s.catalog.SubGrades),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
