package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"

	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/internal/modules/catalog"
	"github.com/aristath/lcdash/internal/modules/dashboard"
	"github.com/aristath/lcdash/internal/modules/presentation"
	"github.com/aristath/lcdash/internal/modules/query"
	"github.com/aristath/lcdash/internal/warehouse"
)

const tokenHeader = "Posit-Connect-User-Session-Token"

type fakeConnector struct {
	mu       sync.Mutex
	rows     []domain.LoanRecord
	err      error
	name     string
	sessions []warehouse.Session
}

func (f *fakeConnector) Backend() string        { return "fake" }
func (f *fakeConnector) Dialect() query.Dialect { return query.SQLite }

func (f *fakeConnector) Query(ctx context.Context, session warehouse.Session, statement string) ([]domain.LoanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, session)
	return f.rows, f.err
}

func (f *fakeConnector) Identity(ctx context.Context, session warehouse.Session) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, session)
	return f.name, f.err
}

func sampleRows() []domain.LoanRecord {
	return []domain.LoanRecord{{
		MemberID: "7", Region: "West", Grade: "B", SubGrade: "B1", OfficeNo: "945",
		LoanAmount: domain.Num(12000), InterestRate: domain.ParseRate("10.5%"),
		Term: " 36 months", TermMonths: domain.ParseTerm(" 36 months"),
		LoanStatus: domain.StatusCurrent, OutPrincipal: domain.Num(250_000),
	}}
}

func setupRouter(t *testing.T, conn warehouse.Connector) http.Handler {
	t.Helper()
	return setupRouterWithOrigins(t, conn, nil)
}

func setupRouterWithOrigins(t *testing.T, conn warehouse.Connector, origins []string) http.Handler {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	cat, err := catalog.Default()
	require.NoError(t, err)

	svc := dashboard.NewService(cat, conn, dashboard.Options{Theme: presentation.DefaultTheme()}, log)
	h := NewHandler(svc, tokenHeader, log)
	h.SetAllowedOrigins(origins)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
		h.RegisterStreamRoutes(r)
	})
	return r
}

func decodeData(t *testing.T, body *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&response))
	require.Contains(t, response, "data")
	require.Contains(t, response, "metadata")
	return response["data"].(map[string]interface{})
}

func TestHandleRender_Get(t *testing.T) {
	conn := &fakeConnector{rows: sampleRows()}
	router := setupRouter(t, conn)

	req := httptest.NewRequest("GET", "/api/dashboard?region=West,East&sub_grade=B1", nil)
	req.Header.Set(tokenHeader, "session-abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	data := decodeData(t, w.Body)
	assert.NotEmpty(t, data["cycle_id"])
	filters := data["filters"].(map[string]interface{})
	assert.Equal(t, []interface{}{"West", "East"}, filters["region"])
	assert.Equal(t, []interface{}{"B1"}, filters["sub_grade"])
	assert.Len(t, data["metrics"], 3)

	require.Len(t, conn.sessions, 1)
	assert.Equal(t, "session-abc", conn.sessions[0].Token)
}

func TestHandleRender_Post(t *testing.T) {
	router := setupRouter(t, &fakeConnector{rows: sampleRows()})

	body, _ := json.Marshal(query.FilterSelection{Purpose: []string{"Vacation"}})
	req := httptest.NewRequest("POST", "/api/dashboard", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w.Body)
	assert.Equal(t, []interface{}{"Vacation"}, data["filters"].(map[string]interface{})["purpose"])
}

func TestHandleRender_PostEmptyBody(t *testing.T) {
	router := setupRouter(t, &fakeConnector{rows: sampleRows()})

	req := httptest.NewRequest("POST", "/api/dashboard", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleRender_PostMalformedBody(t *testing.T) {
	router := setupRouter(t, &fakeConnector{})

	req := httptest.NewRequest("POST", "/api/dashboard", strings.NewReader("{region:"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRender_Msgpack(t *testing.T) {
	router := setupRouter(t, &fakeConnector{rows: sampleRows()})

	body, err := msgpack.Marshal(query.FilterSelection{Region: []string{"West"}})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/dashboard", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/msgpack")
	req.Header.Set("Accept", "application/msgpack")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/msgpack", w.Header().Get("Content-Type"))

	var response struct {
		Data     dashboard.View `msgpack:"data"`
		Metadata Metadata       `msgpack:"metadata"`
	}
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"West"}, response.Data.Filters.Region)
	assert.Equal(t, "fake", response.Metadata.Backend)
	require.Len(t, response.Data.Table.Rows, 1)
	assert.Equal(t, "7", response.Data.Table.Rows[0][0])
}

func TestHandleRender_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		url      string
		status   int
		kind     string
		contains string
	}{
		{
			name:   "unknown office",
			url:    "/api/dashboard?office=abc",
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:     "missing credentials",
			err:      &domain.ConfigurationError{Backend: "snowflake", Reason: "No Snowflake credentials found"},
			url:      "/api/dashboard",
			status:   http.StatusServiceUnavailable,
			kind:     "configuration",
			contains: "No Snowflake credentials found",
		},
		{
			name:   "warehouse failure",
			err:    &domain.QueryExecutionError{Backend: "fake", Err: errors.New("syntax error")},
			url:    "/api/dashboard",
			status: http.StatusBadGateway,
			kind:   "query",
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			url:    "/api/dashboard",
			status: http.StatusInternalServerError,
			kind:   "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(t, &fakeConnector{err: tt.err})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", tt.url, nil))

			assert.Equal(t, tt.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
			if tt.contains != "" {
				assert.Contains(t, body.Error, tt.contains)
			}
		})
	}
}

func TestHandleSQL(t *testing.T) {
	conn := &fakeConnector{}
	router := setupRouter(t, conn)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/dashboard/sql?office=945", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w.Body)
	assert.Contains(t, data["sql"], "(zip_code IN ('945xx'))")
	assert.Empty(t, conn.sessions, "dry run never reaches the warehouse")
}

func TestHandleExport(t *testing.T) {
	router := setupRouter(t, &fakeConnector{rows: sampleRows()})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/dashboard/export.xlsx", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "loans.xlsx")
	assert.Positive(t, w.Body.Len())
}

func TestHandleSession(t *testing.T) {
	conn := &fakeConnector{name: "Ada"}
	router := setupRouter(t, conn)

	req := httptest.NewRequest("GET", "/api/session", nil)
	req.Header.Set(tokenHeader, "sess")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w.Body)
	assert.Equal(t, "Hello, Ada!", data["greeting"])
	assert.Equal(t, "fake", data["backend"])
	assert.Equal(t, "sess", conn.sessions[0].Token)
}

func TestHandleOptions(t *testing.T) {
	router := setupRouter(t, &fakeConnector{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/catalog/options?region=West", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w.Body)
	offices := data["offices"].([]interface{})
	require.NotEmpty(t, offices)
	for _, o := range offices {
		assert.Equal(t, "West", o.(map[string]interface{})["region"])
	}
	assert.Len(t, data["regions"], 4)
}

func TestStatusFor_Wrapped(t *testing.T) {
	err := errors.Join(errors.New("context"), &domain.ValidationError{Field: "office", Value: "x", Reason: "unknown office"})
	status, kind := StatusFor(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", kind)
}

func TestHandleWebSocket_OrderedReplies(t *testing.T) {
	server := httptest.NewServer(setupRouter(t, &fakeConnector{rows: sampleRows()}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/dashboard/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	regions := []string{"West", "East", "South"}
	for _, region := range regions {
		payload, _ := json.Marshal(query.FilterSelection{Region: []string{region}})
		require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
	}

	for _, region := range regions {
		msgType, data, err := conn.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, websocket.MessageText, msgType)

		var msg struct {
			Type string         `json:"type"`
			Data dashboard.View `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "view", msg.Type)
		assert.Equal(t, []string{region}, msg.Data.Filters.Region)
	}
}

func TestHandleWebSocket_ErrorFrame(t *testing.T) {
	server := httptest.NewServer(setupRouter(t, &fakeConnector{}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/dashboard/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"office":["zzz"]}`)))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg StreamMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, http.StatusBadRequest, msg.Status)
	assert.Equal(t, "validation", msg.Kind)
}

func TestHandleWebSocket_Msgpack(t *testing.T) {
	server := httptest.NewServer(setupRouter(t, &fakeConnector{rows: sampleRows()}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/dashboard/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	payload, err := msgpack.Marshal(query.FilterSelection{SubGrade: []string{"B1"}})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, payload))

	msgType, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageBinary, msgType)

	var msg struct {
		Type string         `msgpack:"type"`
		Data dashboard.View `msgpack:"data"`
	}
	require.NoError(t, msgpack.Unmarshal(data, &msg))
	assert.Equal(t, "view", msg.Type)
	assert.Equal(t, []string{"B1"}, msg.Data.Filters.SubGrade)
}

func TestHandleWebSocket_Origins(t *testing.T) {
	tests := []struct {
		name     string
		allowed  []string
		origin   func(serverURL string) string
		accepted bool
	}{
		{
			name:     "foreign origin refused",
			origin:   func(string) string { return "https://evil.example" },
			accepted: false,
		},
		{
			name:     "same origin accepted",
			origin:   func(serverURL string) string { return serverURL },
			accepted: true,
		},
		{
			name:     "allowed origin accepted",
			allowed:  []string{"https://dash.example.com"},
			origin:   func(string) string { return "https://dash.example.com" },
			accepted: true,
		},
		{
			name:     "other origin still refused with an allowlist",
			allowed:  []string{"https://dash.example.com"},
			origin:   func(string) string { return "https://evil.example" },
			accepted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConnector{rows: sampleRows()}
			server := httptest.NewServer(setupRouterWithOrigins(t, conn, tt.allowed))
			defer server.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			header := http.Header{}
			header.Set("Origin", tt.origin(server.URL))
			header.Set(tokenHeader, "viewer-session")

			url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/dashboard/ws"
			ws, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})

			if !tt.accepted {
				require.Error(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				conn.mu.Lock()
				assert.Empty(t, conn.sessions, "session token must not reach the warehouse")
				conn.mu.Unlock()
				return
			}

			require.NoError(t, err)
			defer ws.Close(websocket.StatusNormalClosure, "")

			require.NoError(t, ws.Write(ctx, websocket.MessageText, []byte(`{}`)))
			_, data, err := ws.Read(ctx)
			require.NoError(t, err)

			var msg StreamMessage
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, "view", msg.Type)
		})
	}
}
