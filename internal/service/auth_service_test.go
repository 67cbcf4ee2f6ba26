package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shift-clock/backend/config"
	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/lockout"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/pkg/jwt"
)

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{tokens: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[jti]
	return ok, nil
}

// ── 测试辅助 ──

func setupTestAuthService() (AuthService, *testEnv, *jwt.Manager, *mockBlacklist) {
	env := newTestEnv()
	env.addEmployee("emp-1", "张三", "1234", model.RoleEmployee)
	env.addEmployee("admin-1", "Boss", "9999", model.RoleSuperAdmin)

	jwtMgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "test-secret-key", AccessTokenTTL: 12 * time.Hour})
	limiter := lockout.NewMemoryLimiter(lockout.Policy{MaxFailures: 5, LockDuration: 5 * time.Minute}, env.clock)
	blacklist := newMockBlacklist()
	svc := NewAuthService(env.repo, env.creds(), limiter, jwtMgr, blacklist, env.logger)
	return svc, env, jwtMgr, blacklist
}

// ═══════════════════════════════════════════════════════════
// Login
// ═══════════════════════════════════════════════════════════

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, jwtMgr, _ := setupTestAuthService()

	resp, err := svc.Login(context.Background(), "10.0.0.1", &dto.LoginRequest{PIN: "9999"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if resp.ExpiresIn != 12*3600 {
		t.Errorf("期望ExpiresIn=43200，实际=%d", resp.ExpiresIn)
	}
	if resp.Employee.ID != "admin-1" {
		t.Errorf("期望Employee.ID=admin-1，实际=%s", resp.Employee.ID)
	}

	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("token 应可解析: %v", err)
	}
	if claims.EmployeeID != "admin-1" || claims.Role != model.RoleSuperAdmin {
		t.Errorf("claims 不符: %+v", claims)
	}
}

func TestAuthService_Login_EmployeePINRejected(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), "10.0.0.1", &dto.LoginRequest{PIN: "1234"})
	if !errors.Is(err, ErrInvalidPIN) {
		t.Errorf("普通员工 PIN 期望 ErrInvalidPIN，实际: %v", err)
	}
}

func TestAuthService_Login_LocksByIP(t *testing.T) {
	svc, env, _, _ := setupTestAuthService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, "10.0.0.1", &dto.LoginRequest{PIN: "0000"})
	}
	if _, err := svc.Login(ctx, "10.0.0.1", &dto.LoginRequest{PIN: "9999"}); !errors.Is(err, lockout.ErrLocked) {
		t.Fatalf("期望 lockout.ErrLocked，实际: %v", err)
	}
	// 其他 IP 不受影响
	if _, err := svc.Login(ctx, "10.0.0.2", &dto.LoginRequest{PIN: "9999"}); err != nil {
		t.Errorf("其他 IP 应可登录: %v", err)
	}

	env.clock.Advance(6 * time.Minute)
	if _, err := svc.Login(ctx, "10.0.0.1", &dto.LoginRequest{PIN: "9999"}); err != nil {
		t.Errorf("锁定期满后应可登录: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Me / Logout
// ═══════════════════════════════════════════════════════════

func TestAuthService_Me(t *testing.T) {
	svc, env, _, _ := setupTestAuthService()
	ctx := context.Background()

	me, err := svc.Me(ctx, "admin-1")
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if me.Name != "Boss" {
		t.Errorf("期望Name=Boss，实际=%s", me.Name)
	}

	if _, err := svc.Me(ctx, "emp-1"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("普通员工期望 ErrNotAdmin，实际: %v", err)
	}
	if _, err := svc.Me(ctx, "ghost"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际: %v", err)
	}

	// 停用后 token 随即失效
	admin := env.employees.lookup("admin-1")
	admin.IsActive = false
	_ = env.employees.Update(ctx, admin)
	if _, err := svc.Me(ctx, "admin-1"); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("停用管理员期望 ErrNotAdmin，实际: %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, _, blacklist := setupTestAuthService()
	ctx := context.Background()

	if err := svc.Logout(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if ok, _ := blacklist.IsBlacklisted(ctx, "jti-1"); !ok {
		t.Error("token 应进入黑名单")
	}

	// 已过期的 token 无需记录
	_ = svc.Logout(ctx, "jti-2", time.Now().Add(-time.Minute))
	if ok, _ := blacklist.IsBlacklisted(ctx, "jti-2"); ok {
		t.Error("已过期 token 不应写入黑名单")
	}
}

func TestAuthService_Logout_WithoutBlacklist(t *testing.T) {
	env := newTestEnv()
	jwtMgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "test-secret-key", AccessTokenTTL: time.Hour})
	svc := NewAuthService(env.repo, env.creds(), lockout.NewMemoryLimiter(lockout.Policy{}, env.clock), jwtMgr, nil, env.logger)

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Errorf("未启用黑名单时 Logout 应为空操作: %v", err)
	}
}
