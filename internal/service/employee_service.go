package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/model"
	"shift-clock/backend/internal/repository"
)

// ── 员工模块业务错误 ──

var (
	ErrEmployeeNotFound = errors.New("员工不存在")
)

// EmployeeService 员工管理业务接口
type EmployeeService interface {
	// Create 创建员工并生成 PIN，明文 PIN 只在返回值中出现一次
	Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*dto.EmployeePINResponse, error)
	GetByID(ctx context.Context, id string) (*dto.EmployeeResponse, error)
	List(ctx context.Context, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error)
	ResetPIN(ctx context.Context, id string) (*dto.EmployeePINResponse, error)
}

type employeeService struct {
	repo   *repository.Repository
	creds  CredentialVerifier
	logger *zap.Logger
}

// NewEmployeeService 创建 EmployeeService 实例
func NewEmployeeService(repo *repository.Repository, creds CredentialVerifier, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, creds: creds, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *employeeService) Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*dto.EmployeePINResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleEmployee
	}

	pin, hash, err := s.creds.GenerateUnique(ctx)
	if err != nil {
		s.logger.Error("生成员工 PIN 失败", zap.Error(err))
		return nil, err
	}

	emp := &model.Employee{
		Name:     strings.TrimSpace(req.Name),
		PINHash:  hash,
		Role:     role,
		IsActive: true,
	}
	if err := s.repo.Employee.Create(ctx, emp); err != nil {
		s.logger.Error("创建员工失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("员工已创建", zap.String("employee_id", emp.EmployeeID), zap.String("role", role))
	return &dto.EmployeePINResponse{Employee: toEmployeeResponse(emp), PIN: pin}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *employeeService) GetByID(ctx context.Context, id string) (*dto.EmployeeResponse, error) {
	emp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *employeeService) List(ctx context.Context, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, error) {
	employees, err := s.repo.Employee.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出员工失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		list = append(list, toEmployeeResponse(&employees[i]))
	}
	return list, nil
}

// ────────────────────── Update ──────────────────────

func (s *employeeService) Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	emp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		emp.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		emp.Role = *req.Role
	}
	if req.IsActive != nil {
		emp.IsActive = *req.IsActive
	}

	if err := s.repo.Employee.Update(ctx, emp); err != nil {
		s.logger.Error("更新员工失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toEmployeeResponse(emp)
	return &resp, nil
}

// ────────────────────── ResetPIN ──────────────────────

func (s *employeeService) ResetPIN(ctx context.Context, id string) (*dto.EmployeePINResponse, error) {
	emp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	pin, hash, err := s.creds.GenerateUnique(ctx)
	if err != nil {
		s.logger.Error("生成员工 PIN 失败", zap.Error(err))
		return nil, err
	}
	if err := s.repo.Employee.UpdatePINHash(ctx, emp.EmployeeID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("重置 PIN 失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	emp.PINHash = hash

	s.logger.Info("员工 PIN 已重置", zap.String("employee_id", emp.EmployeeID))
	return &dto.EmployeePINResponse{Employee: toEmployeeResponse(emp), PIN: pin}, nil
}

func (s *employeeService) get(ctx context.Context, id string) (*model.Employee, error) {
	emp, err := s.repo.Employee.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return emp, nil
}

func toEmployeeResponse(e *model.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:        e.EmployeeID,
		Name:      e.Name,
		Role:      e.Role,
		IsActive:  e.IsActive,
		CreatedAt: formatTime(e.CreatedAt),
		UpdatedAt: formatTime(e.UpdatedAt),
	}
}
