package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nerrad567/rfpanel-core/internal/infrastructure/config"
)

func TestRecoverPanics(t *testing.T) {
	s := &Server{logger: testLogger()}
	h := withRequestID(s.recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler bug")
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/mode", nil))

	assert.Equal(t, w.Code, http.StatusInternalServerError)
	assert.Assert(t, is.Contains(w.Body.String(), "internal server error"))
	assert.Assert(t, w.Header().Get(headerRequestID) != "")
}

func TestCORS_OriginNotAllowed(t *testing.T) {
	s := &Server{cfg: config.APIConfig{CORS: config.CORSConfig{AllowedOrigins: []string{"http://panel.local"}}}}
	h := s.cors(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mode", nil)
	req.Header.Set("Origin", "http://elsewhere.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, w.Header().Get("Access-Control-Allow-Origin"), "")

	req.Header.Set("Origin", "http://panel.local")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, w.Header().Get("Access-Control-Allow-Origin"), "http://panel.local")
	assert.Equal(t, w.Header().Get("Access-Control-Allow-Methods"), defaultCORSMethods)
}

func TestCORS_ConfiguredMethods(t *testing.T) {
	s := &Server{cfg: config.APIConfig{CORS: config.CORSConfig{AllowedMethods: []string{"GET", "POST"}}}}
	h := s.cors(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/mode", nil)
	req.Header.Set("Origin", "http://any.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, w.Code, http.StatusNoContent)
	assert.Equal(t, w.Header().Get("Access-Control-Allow-Methods"), "GET, POST")
}

func TestRequestSizeLimit(t *testing.T) {
	env := newTestEnv(t)
	body := `{"state":"ON","pad":"` + strings.Repeat("x", maxRequestBodySize) + `"}`

	w := env.do(t, http.MethodPost, "/api/v1/buttons/1/L/1/press", body)

	assert.Assert(t, w.Code >= http.StatusBadRequest, "status %d", w.Code)
	assert.Equal(t, len(env.recorder.Commands()), 0)
}
