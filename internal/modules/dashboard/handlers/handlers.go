// Package handlers provides HTTP and websocket handlers for the dashboard.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/internal/modules/dashboard"
	"github.com/aristath/lcdash/internal/modules/query"
	"github.com/aristath/lcdash/internal/utils"
	"github.com/aristath/lcdash/internal/warehouse"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"
	contentTypeXLSX    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler handles dashboard HTTP requests
type Handler struct {
	service     *dashboard.Service
	tokenHeader string
	// originHosts are the cross-site hosts allowed to open the websocket
	originHosts []string
	log         zerolog.Logger
}

// NewHandler creates a new dashboard handler. tokenHeader names the request
// header carrying the viewer's session token.
func NewHandler(service *dashboard.Service, tokenHeader string, log zerolog.Logger) *Handler {
	return &Handler{
		service:     service,
		tokenHeader: tokenHeader,
		log:         log.With().Str("handler", "dashboard").Logger(),
	}
}

// SetAllowedOrigins permits websocket handshakes from the given origins
// (scheme://host[:port]) in addition to same-origin pages.
func (h *Handler) SetAllowedOrigins(origins []string) {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			h.log.Warn().Str("origin", origin).Msg("Ignoring malformed allowed origin")
			continue
		}
		hosts = append(hosts, u.Host)
	}
	h.originHosts = hosts
}

// Response is the envelope of every successful reply.
type Response struct {
	Data     interface{} `json:"data" msgpack:"data"`
	Metadata Metadata    `json:"metadata" msgpack:"metadata"`
}

// Metadata accompanies every reply.
type Metadata struct {
	Timestamp string `json:"timestamp" msgpack:"timestamp"`
	Backend   string `json:"backend" msgpack:"backend"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error" msgpack:"error"`
	Kind  string `json:"kind" msgpack:"kind"`
}

// SessionInfo is returned by GET /api/session.
type SessionInfo struct {
	Greeting string `json:"greeting" msgpack:"greeting"`
	Backend  string `json:"backend" msgpack:"backend"`
}

// HandleOptions handles GET /api/catalog/options
func (h *Handler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	regions := utils.ParseMulti(r.URL.Query()["region"])
	h.write(w, r, http.StatusOK, h.service.Options(regions))
}

// HandleRender handles GET and POST /api/dashboard
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, r, &domain.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	view, err := h.service.Render(r.Context(), h.session(r), sel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.write(w, r, http.StatusOK, view)
}

// HandleSQL handles GET /api/dashboard/sql. It builds the statement
// without contacting the warehouse.
func (h *Handler) HandleSQL(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.writeError(w, r, &domain.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	stmt, err := h.service.Statement(sel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.write(w, r, http.StatusOK, map[string]interface{}{
		"filters": sel,
		"sql":     stmt,
	})
}

// HandleExport handles GET /api/dashboard/export.xlsx
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.writeError(w, r, &domain.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	var buf bytes.Buffer
	if _, err := h.service.Export(r.Context(), h.session(r), sel, &buf); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="loans.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, &buf); err != nil {
		h.log.Error().Err(err).Msg("Failed to write export")
	}
}

// HandleSession handles GET /api/session
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	greeting, err := h.service.Greeting(r.Context(), h.session(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.write(w, r, http.StatusOK, SessionInfo{Greeting: greeting, Backend: h.service.Backend()})
}

func (h *Handler) session(r *http.Request) warehouse.Session {
	return warehouse.Session{Token: r.Header.Get(h.tokenHeader)}
}

// selection reads filters from the body of a POST, or from the query string
// otherwise. Query values may repeat or be comma separated.
func (h *Handler) selection(r *http.Request) (query.FilterSelection, error) {
	var sel query.FilterSelection
	if r.Method != http.MethodPost {
		q := r.URL.Query()
		sel.Region = utils.ParseMulti(q["region"])
		sel.Office = utils.ParseMulti(q["office"])
		sel.Purpose = utils.ParseMulti(q["purpose"])
		sel.SubGrade = utils.ParseMulti(q["sub_grade"])
		return sel, nil
	}

	var err error
	if strings.Contains(r.Header.Get("Content-Type"), contentTypeMsgpack) {
		err = msgpack.NewDecoder(r.Body).Decode(&sel)
	} else {
		err = json.NewDecoder(r.Body).Decode(&sel)
	}
	if errors.Is(err, io.EOF) {
		return query.FilterSelection{}, nil
	}
	return sel, err
}

func wantsMsgpack(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack)
}

// write sends data in the envelope, as msgpack when the client asks for it
// and JSON otherwise.
func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	h.encode(w, r, status, Response{
		Data: data,
		Metadata: Metadata{
			Timestamp: time.Now().Format(time.RFC3339),
			Backend:   h.service.Backend(),
		},
	})
}

func (h *Handler) encode(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	if wantsMsgpack(r) {
		payload, err := msgpack.Marshal(body)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to encode msgpack response")
			http.Error(w, "encoding failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeMsgpack)
		w.WriteHeader(status)
		w.Write(payload)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	h.encode(w, r, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

// StatusFor maps an error onto an HTTP status and a short kind label.
func StatusFor(err error) (int, string) {
	var validation *domain.ValidationError
	var configuration *domain.ConfigurationError
	var execution *domain.QueryExecutionError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &configuration):
		return http.StatusServiceUnavailable, "configuration"
	case errors.As(err, &execution):
		return http.StatusBadGateway, "query"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
