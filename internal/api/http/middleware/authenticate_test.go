package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpContext "github.com/dtroode/piggyvault/internal/api/http/context"
	"github.com/dtroode/piggyvault/internal/api/http/handler"
	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/mocks"
	"github.com/dtroode/piggyvault/internal/testutil"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{name: "aead token", header: "Bearer AbC-_09", want: "AbC-_09", wantOK: true},
		{name: "jwt", header: "Bearer aaa.bbb.ccc", want: "aaa.bbb.ccc", wantOK: true},
		{name: "lower case scheme", header: "bearer abc", want: "abc", wantOK: true},
		{name: "empty"},
		{name: "scheme only", header: "Bearer"},
		{name: "wrong scheme", header: "Token abc"},
		{name: "padding", header: "Bearer abc="},
		{name: "inner space", header: "Bearer abc def"},
		{name: "unicode", header: "Bearer abcé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bearerToken(tt.header)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticate_Handle(t *testing.T) {
	log := testutil.MakeNoopLogger()
	manager := httpContext.NewManager()
	responder := handler.NewResponder("http://localhost", 0, log)

	t.Run("passes username to next handler", func(t *testing.T) {
		tokens := mocks.NewTokenService(t)
		tokens.On("Authenticate", mock.Anything, "tok").Return("foo", nil).Once()

		var got string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = manager.GetUsernameFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/files/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		NewAuthenticate(tokens, manager, responder, log).Handle(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "foo", got)
	})

	t.Run("rejected token stops the chain", func(t *testing.T) {
		tokens := mocks.NewTokenService(t)
		tokens.On("Authenticate", mock.Anything, "tok").Return("", apierrors.NewErrTokenInvalid()).Once()

		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("next handler must not run")
		})

		req := httptest.NewRequest(http.MethodGet, "/files/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		NewAuthenticate(tokens, manager, responder, log).Handle(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
