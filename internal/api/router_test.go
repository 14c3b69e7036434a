package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/phim_premium_server/config"
	"github.com/qs3c/phim_premium_server/internal/api/handler"
	"github.com/qs3c/phim_premium_server/internal/model"
	"github.com/qs3c/phim_premium_server/internal/pkg/jwt"
	"github.com/qs3c/phim_premium_server/internal/pkg/metrics"
	"github.com/qs3c/phim_premium_server/internal/pkg/response"
	"github.com/qs3c/phim_premium_server/internal/pkg/vnpay"
	"github.com/qs3c/phim_premium_server/internal/pkg/ws"
	"github.com/qs3c/phim_premium_server/internal/repository"
	"github.com/qs3c/phim_premium_server/internal/service"
	"github.com/qs3c/phim_premium_server/internal/testutil"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupEngine(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		JWT:    config.JWTConfig{Secret: testSecret, ExpireHours: 1},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
	}

	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	movieRepo := repository.NewPremiumMovieRepository(db)
	txManager := repository.NewTxManager(db)
	registry := metrics.NewRegistry()

	gateway := vnpay.NewClient(vnpay.Config{TmnCode: "TESTTMN1", HashSecret: "ROUTERSECRET", PayURL: "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"})
	paymentService := service.NewPaymentService(planRepo, repository.NewPaymentRepository(db), txManager, gateway, 15*time.Minute).
		WithMetrics(metrics.NewPaymentMetrics(registry))
	entitlementService := service.NewEntitlementService(subRepo, movieRepo)

	router := NewRouter(
		handler.NewAuthHandler(service.NewAuthService(userRepo, cfg)),
		handler.NewPremiumHandler(service.NewPlanService(planRepo, nil), paymentService, entitlementService, "/profile"),
		handler.NewMemberHandler(service.NewMembershipService(subRepo, userRepo, txManager)),
		handler.NewPremiumMovieHandler(service.NewPremiumMovieService(movieRepo)),
		handler.NewWebSocketHandler(ws.NewHub(), testSecret, cfg.CORS.AllowedOrigins),
		handler.NewHealthHandler(map[string]handler.Pinger{
			"mysql": func(ctx context.Context) error { return nil },
		}),
		entitlementService,
		registry,
		cfg,
	)
	return router.Setup(), db
}

func bearer(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := jwt.GenerateToken(user.ID, user.Role, testSecret, 1)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(engine *gin.Engine, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func codeOf(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}

func TestRouter_PublicEndpoints(t *testing.T) {
	engine, db := setupEngine(t)
	testutil.TestPlan(t, db, testutil.WithPlanKey("personal_1m"))

	w := do(engine, "GET", "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(engine, "GET", "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "premium_gateway_signature_rejected_total")

	w = do(engine, "GET", "/api/v1/premium/plans", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "personal_1m")

	w = do(engine, "GET", "/api/v1/premium/status", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(engine, "GET", "/api/v1/premium-check/check?slug=anything", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// 未签名的回跳也重定向，不返回 JSON
	w = do(engine, "GET", "/api/v1/premium/vnpay-return?vnp_TxnRef=x", "", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile?payment=invalid", w.Header().Get("Location"))
}

func TestRouter_AuthRequired(t *testing.T) {
	engine, _ := setupEngine(t)

	w := do(engine, "POST", "/api/v1/premium/create-payment", "", `{"planKey":"personal_1m"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(engine, "GET", "/api/v1/premium/members", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(engine, "GET", "/api/v1/admin/premium-movies", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_MembersRequirePremium(t *testing.T) {
	engine, db := setupEngine(t)
	user := testutil.TestUser(t, db)

	w := do(engine, "GET", "/api/v1/premium/members", bearer(t, user), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.CodePremiumRequired, codeOf(t, w))

	plan := testutil.TestPlan(t, db, testutil.WithMaxMembers(3))
	testutil.TestSubscription(t, db, user.ID, plan.ID)

	w = do(engine, "GET", "/api/v1/premium/members", bearer(t, user), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AdminOnly(t *testing.T) {
	engine, db := setupEngine(t)
	user := testutil.TestUser(t, db)
	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))

	w := do(engine, "POST", "/api/v1/admin/premium-movies", bearer(t, user), `{"slug":"dune"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.CodePermissionDenied, codeOf(t, w))

	w = do(engine, "POST", "/api/v1/admin/premium-movies", bearer(t, admin), `{"slug":"dune"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(engine, "GET", "/api/v1/premium-check/check?slug=dune", "", "")
	assert.Contains(t, w.Body.String(), `"isPremium":true`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	engine, _ := setupEngine(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/premium/create-payment", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
