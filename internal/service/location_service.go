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

// ── 门店模块业务错误 ──

var (
	ErrLocationNotFound = errors.New("门店不存在")
)

// LocationService 门店业务接口
type LocationService interface {
	Create(ctx context.Context, req *dto.CreateLocationRequest) (*dto.LocationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LocationResponse, error)
	List(ctx context.Context, req *dto.LocationListRequest) ([]dto.LocationResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateLocationRequest) (*dto.LocationResponse, error)
	// Delete 门店被历史班次引用，删除只做停用
	Delete(ctx context.Context, id string) error
}

type locationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewLocationService 创建 LocationService 实例
func NewLocationService(repo *repository.Repository, logger *zap.Logger) LocationService {
	return &locationService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *locationService) Create(ctx context.Context, req *dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	locType := req.Type
	if locType == "" {
		locType = model.LocationTypeOther
	}

	loc := &model.Location{
		Name:     strings.TrimSpace(req.Name),
		Type:     locType,
		Address:  optionalString(req.Address),
		IsActive: true,
	}

	if err := s.repo.Location.Create(ctx, loc); err != nil {
		s.logger.Error("创建门店失败", zap.Error(err))
		return nil, err
	}

	return s.toLocationResponse(loc), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *locationService) GetByID(ctx context.Context, id string) (*dto.LocationResponse, error) {
	loc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toLocationResponse(loc), nil
}

// ────────────────────── List ──────────────────────

func (s *locationService) List(ctx context.Context, req *dto.LocationListRequest) ([]dto.LocationResponse, error) {
	locations, err := s.repo.Location.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出门店失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.LocationResponse, 0, len(locations))
	for i := range locations {
		result = append(result, *s.toLocationResponse(&locations[i]))
	}

	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *locationService) Update(ctx context.Context, id string, req *dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	loc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		loc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		loc.Type = *req.Type
	}
	if req.Address != nil {
		loc.Address = optionalString(*req.Address)
	}
	if req.IsActive != nil {
		loc.IsActive = *req.IsActive
	}

	if err := s.repo.Location.Update(ctx, loc); err != nil {
		s.logger.Error("更新门店失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toLocationResponse(loc), nil
}

// ────────────────────── Delete ──────────────────────

func (s *locationService) Delete(ctx context.Context, id string) error {
	loc, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !loc.IsActive {
		return nil
	}

	loc.IsActive = false
	if err := s.repo.Location.Update(ctx, loc); err != nil {
		s.logger.Error("停用门店失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *locationService) get(ctx context.Context, id string) (*model.Location, error) {
	loc, err := s.repo.Location.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		s.logger.Error("查询门店失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return loc, nil
}

func (s *locationService) toLocationResponse(loc *model.Location) *dto.LocationResponse {
	resp := &dto.LocationResponse{
		ID:        loc.LocationID,
		Name:      loc.Name,
		Type:      loc.Type,
		IsActive:  loc.IsActive,
		CreatedAt: formatTime(loc.CreatedAt),
		UpdatedAt: formatTime(loc.UpdatedAt),
	}
	if loc.Address != nil {
		resp.Address = *loc.Address
	}
	return resp
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
