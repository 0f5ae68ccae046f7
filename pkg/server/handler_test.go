package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mikeboe/ennchan-rag/pkg/app"
	"github.com/mikeboe/ennchan-rag/pkg/tools"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := NewService(context.Background(), nil, &app.Runtime{})
	h := NewHandler(svc, tools.NewRagToolset(svc.Runtime))

	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := serve(newTestRouter(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateJob_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Malformed JSON", `{"question":`},
		{"Missing question", `{"mode":"search"}`},
		{"Blank question", `{"question":"   "}`},
		{"Unknown mode", `{"question":"What caused World War II?","mode":"agentic"}`},
	}

	r := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodPost, "/api/ask", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestJobRoutes_InvalidID(t *testing.T) {
	r := newTestRouter()
	for _, path := range []string{"/api/ask/not-a-uuid", "/api/ask/not-a-uuid/logs"} {
		w := serve(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.JSONEq(t, `{"error":"invalid uuid"}`, w.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: x", ErrInvalidRequest)))
	assert.Equal(t, http.StatusNotFound, statusFor(ErrJobNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
