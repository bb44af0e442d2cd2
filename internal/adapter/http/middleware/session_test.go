package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/internal/core/ports/mocks"
	"dgbcommerce-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func gatedRouter(tokenSvc ports.TokenService, reached *bool) *gin.Engine {
	table := NewRouteTable().
		Public(http.MethodPost, "/merchants/authenticate").
		Protect(http.MethodGet, "/merchants/me")

	r := gin.New()
	r.Use(SessionGate(table, tokenSvc, zerolog.Nop()))
	handler := func(c *gin.Context) {
		*reached = true
		c.Status(http.StatusOK)
	}
	r.POST("/merchants/authenticate", handler)
	r.GET("/merchants/me", handler)
	r.GET("/merchants/undeclared", handler)
	return r
}

func assertUnauthorized(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AUTH_003", resp.ErrorCode)
	assert.Equal(t, "You are not authorized to use this endpoint", resp.Message)
}

func TestSessionGate_PublicRoutePasses(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	var reached bool
	r := gatedRouter(tokenSvc, &reached)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/merchants/authenticate", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)
}

func TestSessionGate_MissingHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	var reached bool
	r := gatedRouter(tokenSvc, &reached)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/merchants/me", nil))

	assertUnauthorized(t, w)
	assert.False(t, reached, "handler must not run")
}

func TestSessionGate_NonBearerHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	var reached bool
	r := gatedRouter(tokenSvc, &reached)

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer    ", "token"} {
		req := httptest.NewRequest(http.MethodGet, "/merchants/me", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assertUnauthorized(t, w)
	}
	assert.False(t, reached)
}

func TestSessionGate_RejectedToken(t *testing.T) {
	reasons := []error{ports.ErrTokenMalformed, ports.ErrTokenBadSignature, ports.ErrTokenExpired}

	for _, reason := range reasons {
		t.Run(reason.Error(), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tokenSvc := mocks.NewMockTokenService(ctrl)
			tokenSvc.EXPECT().Verify("bad-token").Return(uuid.Nil, fmt.Errorf("verify: %w", reason))

			var reached bool
			r := gatedRouter(tokenSvc, &reached)

			req := httptest.NewRequest(http.MethodGet, "/merchants/me", nil)
			req.Header.Set("Authorization", "Bearer bad-token")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assertUnauthorized(t, w)
			assert.False(t, reached)
		})
	}
}

func TestSessionGate_ValidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	merchantID := uuid.New()
	tokenSvc.EXPECT().Verify("good-token").Return(merchantID, nil)

	table := NewRouteTable().Protect(http.MethodGet, "/merchants/me")
	var fromGin, fromCtx uuid.UUID
	r := gin.New()
	r.Use(SessionGate(table, tokenSvc, zerolog.Nop()))
	r.GET("/merchants/me", func(c *gin.Context) {
		fromGin, _ = MerchantID(c)
		fromCtx, _ = MerchantIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/merchants/me", nil)
	req.Header.Set("Authorization", "bearer good-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, merchantID, fromGin)
	assert.Equal(t, merchantID, fromCtx)
}

func TestSessionGate_UndeclaredRouteIsProtected(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	var reached bool
	r := gatedRouter(tokenSvc, &reached)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/merchants/undeclared", nil))

	assertUnauthorized(t, w)
	assert.False(t, reached)
}

func TestSessionGate_UnknownPathIsProtected(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	var reached bool
	r := gatedRouter(tokenSvc, &reached)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no/such/path", nil))

	assertUnauthorized(t, w)
}

func TestRouteTable_Lookup(t *testing.T) {
	table := NewRouteTable().
		Public(http.MethodPost, "/a").
		Protect(http.MethodPut, "/b")

	assert.Equal(t, Public, table.Lookup(http.MethodPost, "/a"))
	assert.Equal(t, RequiresSession, table.Lookup(http.MethodPut, "/b"))
	assert.Equal(t, RequiresSession, table.Lookup(http.MethodGet, "/a"), "posture is per method")
	assert.Equal(t, RequiresSession, table.Lookup(http.MethodGet, "/c"))
	assert.Equal(t, RequiresSession, table.Lookup(http.MethodGet, ""))
	assert.Equal(t, "public", Public.String())
	assert.Equal(t, "requires_session", Posture(0).String())
}

func TestRouteTable_Verify(t *testing.T) {
	r := gin.New()
	r.POST("/a", func(c *gin.Context) {})
	r.GET("/b", func(c *gin.Context) {})
	r.PUT("/c", func(c *gin.Context) {})

	complete := NewRouteTable().
		Public(http.MethodPost, "/a").
		Protect(http.MethodGet, "/b").
		Protect(http.MethodPut, "/c")
	assert.NoError(t, complete.Verify(r.Routes()))

	partial := NewRouteTable().Public(http.MethodPost, "/a")
	err := partial.Verify(r.Routes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /b")
	assert.Contains(t, err.Error(), "PUT /c")
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Bearerabc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}
