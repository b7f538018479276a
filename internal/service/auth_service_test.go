package service

import (
	"errors"
	"testing"
	"time"

	"music_academy_backend/internal/config"
	"music_academy_backend/internal/repository"
	"music_academy_backend/internal/util"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-that-is-long-enough-00"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)

	user, token, err := svc.Register("Kim", "Kim@Example.com", "s3cret-pass", "Kim Doe")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token == "" {
		t.Fatal("Register: empty token")
	}
	// 用户名和邮箱统一小写存储
	if user.Username != "kim" || user.Email != "kim@example.com" {
		t.Fatalf("Register: got %q / %q", user.Username, user.Email)
	}
	if user.Role != "student" {
		t.Fatalf("Register: role %q, want student", user.Role)
	}
	if user.Password == "s3cret-pass" {
		t.Fatal("Register: password stored in plaintext")
	}

	// 用户名或邮箱重复都拒绝
	if _, _, err := svc.Register("kim", "other@example.com", "x", ""); !errors.Is(err, util.ErrUserExists) {
		t.Fatalf("duplicate username: got %v, want ErrUserExists", err)
	}
	if _, _, err := svc.Register("other", "kim@example.com", "x", ""); !errors.Is(err, util.ErrUserExists) {
		t.Fatalf("duplicate email: got %v, want ErrUserExists", err)
	}

	// 用户名和邮箱都能登录
	if _, _, err := svc.Login("kim", "s3cret-pass"); err != nil {
		t.Fatalf("login by username: %v", err)
	}
	if _, _, err := svc.Login("kim@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("login by email: %v", err)
	}

	if _, _, err := svc.Login("kim", "wrong"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login("ghost", "s3cret-pass"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v, want ErrInvalidCredentials", err)
	}

	claims, err := util.ParseJWT(token, "test-secret-that-is-long-enough-00")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "kim" {
		t.Fatalf("claims: got %+v", claims)
	}
}

func TestPasswordReset(t *testing.T) {
	svc := newAuthService(t)

	if _, _, err := svc.Register("kim", "kim@example.com", "old-pass", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// 未注册邮箱不报错也不发令牌，避免探测
	token, err := svc.ForgotPassword("ghost@example.com")
	if err != nil || token != "" {
		t.Fatalf("unknown email: token=%q err=%v", token, err)
	}

	token, err = svc.ForgotPassword("KIM@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if token == "" {
		t.Fatal("ForgotPassword: empty token")
	}

	if err := svc.ResetPassword("not-a-token", "new-pass"); !errors.Is(err, util.ErrInvalidResetToken) {
		t.Fatalf("bad token: got %v, want ErrInvalidResetToken", err)
	}

	// 普通访问令牌不能当重置令牌用
	_, accessToken, err := svc.Login("kim", "old-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.ResetPassword(accessToken, "new-pass"); !errors.Is(err, util.ErrInvalidResetToken) {
		t.Fatalf("access token as reset token: got %v, want ErrInvalidResetToken", err)
	}

	if err := svc.ResetPassword(token, "new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, _, err := svc.Login("kim", "old-pass"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("old password still valid after reset: %v", err)
	}
	if _, _, err := svc.Login("kim", "new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
