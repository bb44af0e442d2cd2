package handler_test

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"dgbcommerce-api/internal/adapter/http/handler"
	"dgbcommerce-api/internal/adapter/http/middleware"
	"dgbcommerce-api/internal/adapter/mail"
	redisStorage "dgbcommerce-api/internal/adapter/storage/redis"
	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/internal/service"
	"dgbcommerce-api/pkg/logger"
	"dgbcommerce-api/pkg/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAESKey    = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	testJWTSecret = "test-jwt-secret-key-32bytes-long!!"
)

var hrefRe = regexp.MustCompile(`href="([^"]+)"`)

// testApp wires the real router, middleware, services and Redis stores over
// in-memory repositories and miniredis.
type testApp struct {
	server *httptest.Server
	mailer *recordingMailer
	links  *inMemoryResetLinkRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.New("error", false)

	encSvc, err := service.NewAESEncryptionService(testAESKey)
	require.NoError(t, err)
	secrets := service.NewSecretService(service.WithArgon2Params(1, 1024, 1))
	tokenSvc := service.NewJWTTokenService(testJWTSecret, time.Hour, "test-issuer")

	merchantRepo := newInMemoryMerchantRepo()
	linkRepo := newInMemoryResetLinkRepo()
	mailer := newRecordingMailer()

	accountSvc := service.NewAccountService(
		merchantRepo,
		linkRepo,
		inMemoryTransactor{},
		secrets,
		encSvc,
		redisStorage.NewResetThrottle(rdb),
		mail.NewNotifier(mailer),
		service.AccountConfig{BaseURL: "https://shop.test", ResetCooldown: time.Minute},
		log,
	)

	router, err := handler.SetupRouter(handler.RouterDeps{
		AuthSvc:        service.NewAuthService(merchantRepo, secrets, tokenSvc, log),
		AccountSvc:     accountSvc,
		MerchantSvc:    service.NewMerchantService(merchantRepo),
		TokenSvc:       tokenSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		AuditSvc:       service.NewAuditService(nil, log),
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Metrics:        metrics.New(),
		OpenAPISpec:    []byte("openapi: 3.0.3\n"),
		Logger:         log,
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, mailer: mailer, links: linkRepo}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

// nextLink waits for the next e-mail and returns the query of its link.
func (a *testApp) nextLink(t *testing.T, wantPath string) url.Values {
	t.Helper()
	select {
	case msg := <-a.mailer.sent:
		m := hrefRe.FindStringSubmatch(msg.HTMLBody)
		require.Len(t, m, 2, "no link in %q", msg.HTMLBody)
		u, err := url.Parse(html.UnescapeString(m[1]))
		require.NoError(t, err)
		assert.Equal(t, "shop.test", u.Host)
		assert.Equal(t, wantPath, u.Path)
		return u.Query()
	case <-time.After(2 * time.Second):
		t.Fatal("no e-mail sent")
		return nil
	}
}

func (a *testApp) assertNoMail(t *testing.T) {
	t.Helper()
	select {
	case msg := <-a.mailer.sent:
		t.Fatalf("unexpected e-mail to %s", msg.To)
	case <-time.After(100 * time.Millisecond):
	}
}

func errorCode(body map[string]any) string {
	code, _ := body["error_code"].(string)
	return code
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

// registerAndActivate runs the registration flow and returns a session token.
func registerAndActivate(t *testing.T, app *testApp, email, password string) string {
	t.Helper()

	status, body := app.do(t, http.MethodPost, "/api/v1/merchants", "", map[string]string{
		"email_address": email,
		"username":      "owner",
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)

	q := app.nextLink(t, "/activate-account")
	status, body = app.do(t, http.MethodPut, "/api/v1/merchants/activate-account", "", map[string]string{
		"id":           q.Get("id"),
		"token":        q.Get("token"),
		"new_password": password,
	})
	require.Equal(t, http.StatusOK, status, "%v", body)

	return authenticate(t, app, email, password)
}

func authenticate(t *testing.T, app *testApp, email, password string) string {
	t.Helper()
	status, body := app.do(t, http.MethodPost, "/api/v1/merchants/authenticate", "", map[string]string{
		"email_address": email,
		"password":      password,
	})
	require.Equal(t, http.StatusOK, status, "%v", body)
	token, _ := data(body)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRouteTable(t *testing.T) {
	table := handler.RouteTable()
	r := gin.New()
	r.GET("/undeclared", func(c *gin.Context) {})
	assert.Error(t, table.Verify(r.Routes()))
	assert.Equal(t, middleware.RequiresSession, table.Lookup(http.MethodGet, "/api/v1/merchants/me"))
	assert.Equal(t, middleware.Public, table.Lookup(http.MethodPost, "/api/v1/merchants/authenticate"))
}

func TestRouter_HealthAndDocs(t *testing.T) {
	app := newTestApp(t)

	status, body := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, _ = app.do(t, http.MethodGet, "/swagger/spec", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_RegistrationActivationAndProfile(t *testing.T) {
	app := newTestApp(t)

	token := registerAndActivate(t, app, "owner@shop.test", "first password")

	status, body := app.do(t, http.MethodGet, "/api/v1/merchants/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	profile := data(body)
	assert.Equal(t, "owner@shop.test", profile["email_address"])
	assert.Equal(t, "owner", profile["username"])
	assert.NotContains(t, profile, "password_hash")
	assert.NotContains(t, profile, "password_salt")
}

func TestRouter_ActivateTwiceFails(t *testing.T) {
	app := newTestApp(t)

	status, _ := app.do(t, http.MethodPost, "/api/v1/merchants", "", map[string]string{
		"email_address": "twice@shop.test",
		"username":      "twice",
	})
	require.Equal(t, http.StatusCreated, status)
	q := app.nextLink(t, "/activate-account")

	req := map[string]string{"id": q.Get("id"), "token": q.Get("token"), "new_password": "first password"}
	status, _ = app.do(t, http.MethodPut, "/api/v1/merchants/activate-account", "", req)
	require.Equal(t, http.StatusOK, status)

	status, body := app.do(t, http.MethodPut, "/api/v1/merchants/activate-account", "", req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "AUTH_004", errorCode(body))
}

func TestRouter_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)

	req := map[string]string{"email_address": "dup@shop.test", "username": "dup"}
	status, _ := app.do(t, http.MethodPost, "/api/v1/merchants", "", req)
	require.Equal(t, http.StatusCreated, status)

	req["email_address"] = "DUP@shop.test"
	status, body := app.do(t, http.MethodPost, "/api/v1/merchants", "", req)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "AUTH_002", errorCode(body))
}

func TestRouter_WrongCredentialsLookAlike(t *testing.T) {
	app := newTestApp(t)
	registerAndActivate(t, app, "owner@shop.test", "first password")

	_, wrongPassword := app.do(t, http.MethodPost, "/api/v1/merchants/authenticate", "", map[string]string{
		"email_address": "owner@shop.test", "password": "not it",
	})
	_, unknownEmail := app.do(t, http.MethodPost, "/api/v1/merchants/authenticate", "", map[string]string{
		"email_address": "nobody@shop.test", "password": "not it",
	})

	assert.Equal(t, "AUTH_001", errorCode(wrongPassword))
	assert.Equal(t, wrongPassword["message"], unknownEmail["message"])
	assert.Equal(t, errorCode(wrongPassword), errorCode(unknownEmail))
}

func TestRouter_SessionGate(t *testing.T) {
	app := newTestApp(t)

	status, body := app.do(t, http.MethodGet, "/api/v1/merchants/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_003", errorCode(body))

	status, _ = app.do(t, http.MethodGet, "/api/v1/merchants/me", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = app.do(t, http.MethodPut, "/api/v1/merchants/change-password", "", map[string]string{
		"current_password": "x", "new_password": "long enough",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = app.do(t, http.MethodGet, "/api/v1/no-such-route", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status, "unknown paths are protected")
}

func TestRouter_ChangePassword(t *testing.T) {
	app := newTestApp(t)
	token := registerAndActivate(t, app, "owner@shop.test", "first password")

	status, body := app.do(t, http.MethodPut, "/api/v1/merchants/change-password", token, map[string]string{
		"current_password": "wrong password", "new_password": "second password",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "AUTH_007", errorCode(body))

	status, _ = app.do(t, http.MethodPut, "/api/v1/merchants/change-password", token, map[string]string{
		"current_password": "first password", "new_password": "second password",
	})
	require.Equal(t, http.StatusOK, status)

	authenticate(t, app, "owner@shop.test", "second password")
	status, _ = app.do(t, http.MethodPost, "/api/v1/merchants/authenticate", "", map[string]string{
		"email_address": "owner@shop.test", "password": "first password",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_PasswordReset(t *testing.T) {
	app := newTestApp(t)
	registerAndActivate(t, app, "owner@shop.test", "first password")

	status, known := app.do(t, http.MethodPost, "/api/v1/merchants/forgot-password", "", map[string]string{
		"email_address": "owner@shop.test",
	})
	require.Equal(t, http.StatusOK, status)
	q := app.nextLink(t, "/reset-password")

	status, unknown := app.do(t, http.MethodPost, "/api/v1/merchants/forgot-password", "", map[string]string{
		"email_address": "nobody@shop.test",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, data(known), data(unknown), "response must not reveal registration")
	app.assertNoMail(t)
	assert.Equal(t, 1, app.links.count())

	status, body := app.do(t, http.MethodGet,
		"/api/v1/password-reset-links/public?id="+q.Get("id")+"&key="+q.Get("key"), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, q.Get("id"), data(body)["id"])

	reset := map[string]string{"id": q.Get("id"), "key": q.Get("key"), "new_password": "reset password"}
	status, _ = app.do(t, http.MethodPut, "/api/v1/password-reset-links/public/reset-password", "", reset)
	require.Equal(t, http.StatusOK, status)

	status, body = app.do(t, http.MethodPut, "/api/v1/password-reset-links/public/reset-password", "", reset)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "AUTH_006", errorCode(body))

	status, _ = app.do(t, http.MethodGet,
		"/api/v1/password-reset-links/public?id="+q.Get("id")+"&key="+q.Get("key"), "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	authenticate(t, app, "owner@shop.test", "reset password")
	status, _ = app.do(t, http.MethodPost, "/api/v1/merchants/authenticate", "", map[string]string{
		"email_address": "owner@shop.test", "password": "first password",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_ResetDoesNotActivate(t *testing.T) {
	app := newTestApp(t)

	status, _ := app.do(t, http.MethodPost, "/api/v1/merchants", "", map[string]string{
		"email_address": "pending@shop.test",
		"username":      "pending",
	})
	require.Equal(t, http.StatusCreated, status)
	activation := app.nextLink(t, "/activate-account")

	status, _ = app.do(t, http.MethodPost, "/api/v1/merchants/forgot-password", "", map[string]string{
		"email_address": "pending@shop.test",
	})
	require.Equal(t, http.StatusOK, status)
	q := app.nextLink(t, "/reset-password")

	status, _ = app.do(t, http.MethodPut, "/api/v1/password-reset-links/public/reset-password", "", map[string]string{
		"id": q.Get("id"), "key": q.Get("key"), "new_password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, status)

	status, body := app.do(t, http.MethodPost, "/api/v1/merchants/authenticate", "", map[string]string{
		"email_address": "pending@shop.test", "password": "newpassword1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "AUTH_001", errorCode(body))

	status, _ = app.do(t, http.MethodPut, "/api/v1/merchants/activate-account", "", map[string]string{
		"id": activation.Get("id"), "token": activation.Get("token"), "new_password": "chosen password",
	})
	require.Equal(t, http.StatusOK, status)
	authenticate(t, app, "pending@shop.test", "chosen password")
}

func TestRouter_ActivateWrongTokenLooksUnknown(t *testing.T) {
	app := newTestApp(t)

	status, _ := app.do(t, http.MethodPost, "/api/v1/merchants", "", map[string]string{
		"email_address": "second@shop.test", "username": "second",
	})
	require.Equal(t, http.StatusCreated, status)
	q := app.nextLink(t, "/activate-account")
	req := map[string]string{"id": q.Get("id"), "token": q.Get("token"), "new_password": "first password"}
	status, _ = app.do(t, http.MethodPut, "/api/v1/merchants/activate-account", "", req)
	require.Equal(t, http.StatusOK, status)

	req["token"] = "guessed"
	status, body := app.do(t, http.MethodPut, "/api/v1/merchants/activate-account", "", req)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "AUTH_005", errorCode(body))
}

func TestRouter_ResetThrottled(t *testing.T) {
	app := newTestApp(t)
	registerAndActivate(t, app, "owner@shop.test", "first password")

	for i := 0; i < 2; i++ {
		status, _ := app.do(t, http.MethodPost, "/api/v1/merchants/forgot-password", "", map[string]string{
			"email_address": "owner@shop.test",
		})
		require.Equal(t, http.StatusOK, status)
	}
	app.nextLink(t, "/reset-password")
	app.assertNoMail(t)
	assert.Equal(t, 1, app.links.count())
}

func TestRouter_WrongResetKey(t *testing.T) {
	app := newTestApp(t)
	registerAndActivate(t, app, "owner@shop.test", "first password")

	status, _ := app.do(t, http.MethodPost, "/api/v1/merchants/forgot-password", "", map[string]string{
		"email_address": "owner@shop.test",
	})
	require.Equal(t, http.StatusOK, status)
	q := app.nextLink(t, "/reset-password")

	status, body := app.do(t, http.MethodPut, "/api/v1/password-reset-links/public/reset-password", "", map[string]string{
		"id": q.Get("id"), "key": "wrongkey", "new_password": "reset password",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "AUTH_006", errorCode(body))
}

func TestRouter_Metrics(t *testing.T) {
	app := newTestApp(t)
	registerAndActivate(t, app, "owner@shop.test", "first password")

	resp, err := http.Get(app.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `dgbcommerce_auth_attempts_total{outcome="success"} 1`)
	assert.Contains(t, string(raw), `dgbcommerce_account_events_total{event="activate",outcome="success"} 1`)
}
