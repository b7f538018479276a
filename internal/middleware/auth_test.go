package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"music_academy_backend/internal/config"
	"music_academy_backend/internal/model"
	"music_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

func newAuthedRouter(cfg *config.Config, roles ...model.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api")
	group.Use(AuthMiddleware(cfg))
	if len(roles) > 0 {
		group.Use(RoleMiddleware(roles...))
	}
	group.GET("/ping", func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	return r
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-that-is-long-enough-00"
	cfg.JWT.ExpireTime = time.Hour
	return cfg
}

func tokenFor(t *testing.T, cfg *config.Config, role model.UserRole) string {
	t.Helper()
	user := &model.User{Username: "kim", Role: role}
	user.ID = 7
	token, err := util.GenerateJWT(user, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	r := newAuthedRouter(cfg)

	if w := doGet(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d, want 401", w.Code)
	}
	if w := doGet(r, "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d, want 401", w.Code)
	}

	// 其他密钥签出的令牌不可用
	other := testConfig()
	other.JWT.Secret = "another-secret-that-is-long-enough"
	if w := doGet(r, tokenFor(t, other, model.Student)); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: got %d, want 401", w.Code)
	}

	if w := doGet(r, tokenFor(t, cfg, model.Student)); w.Code != http.StatusOK {
		t.Fatalf("valid token: got %d, want 200", w.Code)
	}
}

func TestRoleMiddleware(t *testing.T) {
	cfg := testConfig()
	adminOnly := newAuthedRouter(cfg, model.Admin)

	if w := doGet(adminOnly, tokenFor(t, cfg, model.Student)); w.Code != http.StatusForbidden {
		t.Fatalf("student on admin route: got %d, want 403", w.Code)
	}
	if w := doGet(adminOnly, tokenFor(t, cfg, model.Admin)); w.Code != http.StatusOK {
		t.Fatalf("admin on admin route: got %d, want 200", w.Code)
	}

	// admin 对任何角色限制的路由都放行
	studentOnly := newAuthedRouter(cfg, model.Student)
	if w := doGet(studentOnly, tokenFor(t, cfg, model.Admin)); w.Code != http.StatusOK {
		t.Fatalf("admin on student route: got %d, want 200", w.Code)
	}
}
