package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roger-dornelles/pizzeria-project/internal/response"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandler(newTestService(t))
	r := chi.NewRouter()
	r.Post("/auth/login", h.Login)
	return r
}

func TestHandler_Login(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ana@mail.com","password":"secret123"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool        `json:"success"`
		Data    LoginResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(7), body.Data.User.ID)
	assert.NotEmpty(t, body.Data.AccessToken)
}

func TestHandler_LoginFailures(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"malformed", `{`, http.StatusBadRequest, "Dados incorretos"},
		{"missing password", `{"email":"ana@mail.com"}`, http.StatusBadRequest, "Dados incorretos"},
		{"unknown user", `{"email":"x@mail.com","password":"a"}`, http.StatusUnauthorized, "Usuário não autorizado"},
		{"wrong password", `{"email":"ana@mail.com","password":"a"}`, http.StatusUnauthorized, "Senha Invalida."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			var env response.Envelope
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
			assert.Equal(t, tc.msg, env.Error)
		})
	}
}
