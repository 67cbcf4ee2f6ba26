package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/lockout"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/internal/repository"
	"shift-clock/backend/pkg/jwt"
)

var (
	ErrNotAdmin = errors.New("仅超级管理员可登录管理端")
)

// TokenBlacklist 已注销 token 的存储，由 pkg/redis.Client 实现
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 管理端认证业务接口
type AuthService interface {
	// Login 管理员 PIN 登录，按客户端 IP 限流
	Login(ctx context.Context, clientIP string, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Me(ctx context.Context, employeeID string) (*dto.EmployeeResponse, error)
	// Logout 将 token 加入黑名单直至过期；未启用 Redis 时为空操作
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	repo      *repository.Repository
	creds     CredentialVerifier
	limiter   lockout.Limiter
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例，blacklist 可为 nil
func NewAuthService(
	repo *repository.Repository,
	creds CredentialVerifier,
	limiter lockout.Limiter,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		creds:     creds,
		limiter:   limiter,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, clientIP string, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 限流检查
	if err := s.limiter.CheckAllowed(ctx, clientIP); err != nil {
		if !errors.Is(err, lockout.ErrLocked) {
			s.logger.Error("检查登录限流失败", zap.String("ip", clientIP), zap.Error(err))
		}
		return nil, err
	}

	// 2. 只在在职超级管理员中匹配 PIN
	admin, err := s.creds.VerifyRole(ctx, req.PIN, model.RoleSuperAdmin)
	if err != nil {
		if errors.Is(err, ErrInvalidPIN) {
			if rerr := s.limiter.RecordFailure(ctx, clientIP); rerr != nil {
				s.logger.Warn("记录登录失败次数失败", zap.String("ip", clientIP), zap.Error(rerr))
			}
			s.logger.Info("管理员登录失败", zap.String("ip", clientIP))
		}
		return nil, err
	}
	if err := s.limiter.RecordSuccess(ctx, clientIP); err != nil {
		s.logger.Warn("重置登录失败次数失败", zap.String("ip", clientIP), zap.Error(err))
	}

	// 3. 签发 token
	token, _, err := s.jwtMgr.GenerateAccessToken(admin.EmployeeID, admin.Role)
	if err != nil {
		s.logger.Error("生成 access token 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("管理员登录", zap.String("employee_id", admin.EmployeeID), zap.String("ip", clientIP))
	return &dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Employee:    toEmployeeResponse(admin),
	}, nil
}

func (s *authService) Me(ctx context.Context, employeeID string) (*dto.EmployeeResponse, error) {
	emp, err := s.repo.Employee.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("id", employeeID), zap.Error(err))
		return nil, err
	}
	if !emp.IsActive || !emp.IsSuperAdmin() {
		return nil, ErrNotAdmin
	}

	resp := toEmployeeResponse(emp)
	return &resp, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Error("token 加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}
