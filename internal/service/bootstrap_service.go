package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"shift-clock/backend/config"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/internal/repository"
)

// 超级管理员初始化动作
const (
	AdminUnchanged = "unchanged"
	AdminCreated   = "created"
	AdminRekeyed   = "rekeyed"
)

// BootstrapResult 初始化结果
// AdminPIN 只在自动生成 PIN 时返回，由调用方负责展示
type BootstrapResult struct {
	SeededLocations int
	AdminAction     string
	AdminName       string
	AdminPIN        string
}

// BootstrapService 首次启动初始化
type BootstrapService interface {
	Run(ctx context.Context) (*BootstrapResult, error)
}

type bootstrapService struct {
	cfg    *config.BootstrapConfig
	repo   *repository.Repository
	creds  CredentialVerifier
	logger *zap.Logger
}

// NewBootstrapService 创建 BootstrapService 实例
func NewBootstrapService(cfg *config.BootstrapConfig, repo *repository.Repository, creds CredentialVerifier, logger *zap.Logger) BootstrapService {
	return &bootstrapService{cfg: cfg, repo: repo, creds: creds, logger: logger}
}

// Run 门店表为空时写入预置门店；配置了 admin_pin 时创建或重置超级管理员 PIN，
// 未配置且没有任何在职超级管理员时创建一个并生成随机 PIN
func (s *bootstrapService) Run(ctx context.Context) (*BootstrapResult, error) {
	result := &BootstrapResult{AdminAction: AdminUnchanged}

	seeded, err := s.seedLocations(ctx)
	if err != nil {
		return nil, err
	}
	result.SeededLocations = seeded

	admins, err := s.repo.Employee.ListActiveByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		s.logger.Error("查询超级管理员失败", zap.Error(err))
		return nil, err
	}

	pin := strings.TrimSpace(s.cfg.AdminPIN)
	switch {
	case pin != "" && len(admins) > 0:
		hash, err := s.creds.Hash(pin)
		if err != nil {
			return nil, err
		}
		for _, admin := range admins {
			if err := s.repo.Employee.UpdatePINHash(ctx, admin.EmployeeID, hash); err != nil {
				s.logger.Error("重置超级管理员 PIN 失败", zap.String("employee_id", admin.EmployeeID), zap.Error(err))
				return nil, err
			}
		}
		result.AdminAction = AdminRekeyed
		result.AdminName = admins[0].Name

	case pin != "":
		hash, err := s.creds.Hash(pin)
		if err != nil {
			return nil, err
		}
		if err := s.createAdmin(ctx, hash); err != nil {
			return nil, err
		}
		result.AdminAction = AdminCreated
		result.AdminName = s.adminName()

	case len(admins) == 0:
		generated, hash, err := s.creds.GenerateUnique(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.createAdmin(ctx, hash); err != nil {
			return nil, err
		}
		result.AdminAction = AdminCreated
		result.AdminName = s.adminName()
		result.AdminPIN = generated
	}

	s.logger.Info("初始化完成",
		zap.Int("seeded_locations", result.SeededLocations),
		zap.String("admin_action", result.AdminAction),
	)
	return result, nil
}

func (s *bootstrapService) seedLocations(ctx context.Context) (int, error) {
	count, err := s.repo.Location.Count(ctx)
	if err != nil {
		s.logger.Error("统计门店失败", zap.Error(err))
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	seeded := 0
	for _, entry := range s.cfg.SeedLocations {
		name, locType := parseSeedLocation(entry)
		if name == "" {
			continue
		}
		loc := &model.Location{Name: name, Type: locType, IsActive: true}
		if err := s.repo.Location.Create(ctx, loc); err != nil {
			s.logger.Error("写入预置门店失败", zap.String("name", name), zap.Error(err))
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

func (s *bootstrapService) createAdmin(ctx context.Context, hash string) error {
	admin := &model.Employee{
		Name:     s.adminName(),
		PINHash:  hash,
		Role:     model.RoleSuperAdmin,
		IsActive: true,
	}
	if err := s.repo.Employee.Create(ctx, admin); err != nil {
		s.logger.Error("创建超级管理员失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *bootstrapService) adminName() string {
	if name := strings.TrimSpace(s.cfg.AdminName); name != "" {
		return name
	}
	return "Boss"
}

// parseSeedLocation 解析 "名称:类型"，类型无效时使用 OTHER
func parseSeedLocation(entry string) (string, string) {
	i := strings.LastIndex(entry, ":")
	if i < 0 {
		return strings.TrimSpace(entry), model.LocationTypeOther
	}
	locType := strings.ToUpper(strings.TrimSpace(entry[i+1:]))
	if !model.ValidLocationType(locType) {
		return strings.TrimSpace(entry), model.LocationTypeOther
	}
	return strings.TrimSpace(entry[:i]), locType
}
